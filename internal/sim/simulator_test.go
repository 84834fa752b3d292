package sim_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/metrics"
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/tensor"
)

type recorder struct {
	steps []int
}

func (r *recorder) OnStep(f sim.Frame) { r.steps = append(r.steps, f.Step) }

func (r *recorder) Snapshot(f sim.Frame) error {
	r.steps = append(r.steps, f.Step)
	return nil
}

func preset(name string, duration float64) (*sim.Simulator, sim.Config) {
	cfg := config.GetPreset(name)
	Expect(cfg).NotTo(BeNil())
	cfg.Duration = duration

	g, bodies, bc, err := cfg.Build()
	Expect(err).NotTo(HaveOccurred())
	return sim.New(g, bodies, bc), cfg.SimConfig()
}

var _ = Describe("Simulator", func() {
	var (
		s   *sim.Simulator
		cfg sim.Config
	)

	BeforeEach(func() {
		s, cfg = preset("falling_block", 0.05)
	})

	Describe("Run", func() {
		It("steps for the configured duration", func() {
			s.AddMetric(metrics.NewKineticEnergy())
			res, err := s.Run(context.Background(), cfg)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(50))
			Expect(res.Times).To(HaveLen(51))
			Expect(res.Series["kinetic_energy"]).To(HaveLen(51))
			Expect(s.Time()).To(BeNumerically("~", 0.05, 1e-12))
		})

		It("conserves mass", func() {
			m0 := metrics.TotalMass(s.Bodies())
			_, err := s.Run(context.Background(), cfg)

			Expect(err).NotTo(HaveOccurred())
			Expect(metrics.TotalMass(s.Bodies())).To(Equal(m0))
			Expect(metrics.MassError(s.Grid(), s.Bodies())).To(BeNumerically("<", 1e-9))
		})

		It("lets the block fall under gravity", func() {
			y0 := metrics.Centroid(s.Bodies()[0])[1]
			_, err := s.Run(context.Background(), cfg)

			Expect(err).NotTo(HaveOccurred())
			Expect(metrics.Centroid(s.Bodies()[0])[1]).To(BeNumerically("<", y0))
		})

		It("gives the same answer with several workers", func() {
			serial, _ := preset("two_disks", 0.02)
			parallel, _ := preset("two_disks", 0.02)
			c := config.GetPreset("two_disks").SimConfig()
			c.Duration = 0.02

			_, err := serial.Run(context.Background(), c)
			Expect(err).NotTo(HaveOccurred())
			c.Workers = 4
			_, err = parallel.Run(context.Background(), c)
			Expect(err).NotTo(HaveOccurred())

			for i, b := range serial.Bodies() {
				for p := range b.X {
					Expect(parallel.Bodies()[i].X[p][0]).To(BeNumerically("~", b.X[p][0], 1e-12))
					Expect(parallel.Bodies()[i].X[p][1]).To(BeNumerically("~", b.X[p][1], 1e-12))
				}
			}
		})

		It("returns the partial result when cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res, err := s.Run(ctx, cfg)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res).NotTo(BeNil())
			Expect(res.Steps).To(Equal(0))
			Expect(res.Times).To(HaveLen(1))
		})

		It("rejects a bad config", func() {
			cfg.Dt = 0
			_, err := s.Run(context.Background(), cfg)
			Expect(err).To(HaveOccurred())

			cfg.Dt = 1e-3
			cfg.Duration = 1e-4
			_, err = s.Run(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
		})

		It("notifies observers and snapshotters", func() {
			obs, snaps := &recorder{}, &recorder{}
			s.AddObserver(obs)
			s.AddSnapshotter(snaps)
			cfg.SnapshotEvery = 10

			_, err := s.Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.steps).To(HaveLen(51))
			Expect(snaps.steps).To(Equal([]int{0, 10, 20, 30, 40, 50}))
		})

		It("starts over on every call", func() {
			_, err := s.Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			first := append([]tensor.Vec2(nil), s.Bodies()[0].X...)

			_, err = s.Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Bodies()[0].X).To(Equal(first))
			Expect(s.StepCount()).To(Equal(50))
		})
	})

	Describe("Step", func() {
		It("rolls back a step that crushes a particle", func() {
			b := s.Bodies()[0]
			for i, x := range b.X {
				b.V[i] = tensor.Vec2{-30 * (x[0] - 0.5), 0}
			}
			before := b.Clone()
			cfg.Dt = 0.1

			err := s.Step(cfg)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, mpm.ErrDegenerateDeformation)).To(BeTrue())

			var stepErr *sim.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(0))

			var kernelErr *mpm.KernelError
			Expect(errors.As(err, &kernelErr)).To(BeTrue())
			Expect(kernelErr.Body).To(Equal("block"))

			Expect(b.X).To(Equal(before.X))
			Expect(b.F).To(Equal(before.F))
			Expect(b.Volume).To(Equal(before.Volume))
			Expect(s.StepCount()).To(Equal(0))
		})
	})

	Describe("Reset", func() {
		It("restores the initial particles", func() {
			x0 := append([]tensor.Vec2(nil), s.Bodies()[0].X...)
			for i := 0; i < 5; i++ {
				Expect(s.Step(cfg)).To(Succeed())
			}
			Expect(s.Bodies()[0].X).NotTo(Equal(x0))

			s.Reset()
			Expect(s.Bodies()[0].X).To(Equal(x0))
			Expect(s.Time()).To(BeZero())
			Expect(s.StepCount()).To(BeZero())
		})
	})

	Describe("RunWithCallback", func() {
		It("stops when the callback says so", func() {
			calls := 0
			err := s.RunWithCallback(context.Background(), cfg, func(f sim.Frame) bool {
				calls++
				return calls < 3
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(3))
			Expect(s.StepCount()).To(Equal(2))
		})

		It("sees the final frame", func() {
			var last sim.Frame
			err := s.RunWithCallback(context.Background(), cfg, func(f sim.Frame) bool {
				last = f
				return true
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(last.Step).To(Equal(50))
		})
	})
})

var _ = Describe("Batch", func() {
	It("runs independent jobs", func() {
		s1, c1 := preset("falling_block", 0.02)
		s2, c2 := preset("vibrating_bar", 0.02)

		results, err := sim.NewBatch(
			sim.Job{Name: "block", Sim: s1, Config: c1},
			sim.Job{Name: "bar", Sim: s2, Config: c2},
		).Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Steps).To(Equal(20))
		Expect(results[1].Steps).To(Equal(20))
	})

	It("tags failures with the job name", func() {
		s1, c1 := preset("falling_block", 0.02)
		s2, c2 := preset("vibrating_bar", 0.02)
		c2.Dt = -1

		batch := sim.NewBatch(
			sim.Job{Name: "block", Sim: s1, Config: c1},
			sim.Job{Name: "bar", Sim: s2, Config: c2},
		)
		results, err := batch.Run(context.Background())

		Expect(err).To(HaveOccurred())
		Expect(batch.Errors()[0]).NotTo(HaveOccurred())
		Expect(batch.Errors()[1]).To(HaveOccurred())
		Expect(strings.HasPrefix(err.Error(), "bar: ")).To(BeTrue())
		Expect(results[0]).NotTo(BeNil())
		Expect(results[1]).To(BeNil())
	})
})

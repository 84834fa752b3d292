package storage

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mpmsim/internal/basis"
	"github.com/san-kum/mpmsim/internal/material"
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/tensor"
)

func sampleBody(t *testing.T) *mpm.Body {
	t.Helper()
	model, err := material.PlaneStrain(1000, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	b := mpm.NewBody("disk", 3, basis.Params{Scheme: basis.Linear}, model, tensor.Vec2{0, -9.8})
	for i := 0; i < b.Len(); i++ {
		fi := float64(i)
		b.X[i] = tensor.Vec2{0.1 + fi/3, 0.7}
		b.V[i] = tensor.Vec2{-fi, 0.25}
		b.Mass[i] = 1.5
		b.Volume0[i] = 0.01
		b.Volume[i] = 0.0101
		b.F[i] = tensor.Mat2{XX: 1.01, XY: 0.002, YX: -0.003, YY: 0.99}
		b.Stress[i] = tensor.Voigt{12.5, -3, fi}
		b.Strain[i] = tensor.Voigt{1e-3, -2e-4, 5e-5}
		b.Kappa[i] = 1e-4
	}
	return b
}

func sampleResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0, 0.001, 0.002},
		Series: map[string][]float64{
			"kinetic_energy": {1, 0.9, 0.8},
			"total_mass":     {4.5, 4.5, 4.5},
		},
		Metrics: map[string]float64{"energy_drift": 0.2},
		Steps:   2,
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())

	id, err := s.Save(RunMetadata{Scenario: "two_disks", Dt: 0.001, Duration: 0.002}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := s.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != id || meta.Scenario != "two_disks" || meta.Steps != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["energy_drift"] != 0.2 {
		t.Errorf("metrics = %v", meta.Metrics)
	}

	times, series, err := s.LoadSeries(id)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(times) != 3 || times[2] != 0.002 {
		t.Errorf("times = %v", times)
	}
	if got := series["kinetic_energy"]; len(got) != 3 || got[1] != 0.9 {
		t.Errorf("kinetic_energy = %v", got)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Errorf("list = %+v", runs)
	}
}

func TestListMissingDir(t *testing.T) {
	s := New(t.TempDir() + "/missing")
	runs, err := s.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			s := New(t.TempDir())
			run, err := s.Create("bar", compress)
			if err != nil {
				t.Fatalf("create failed: %v", err)
			}

			b := sampleBody(t)
			for _, step := range []int{0, 10} {
				if err := run.Snapshot(sim.Frame{Step: step, Bodies: []*mpm.Body{b}}); err != nil {
					t.Fatalf("snapshot %d failed: %v", step, err)
				}
			}
			if err := run.Finish(RunMetadata{Scenario: "bar"}, sampleResult()); err != nil {
				t.Fatalf("finish failed: %v", err)
			}

			meta, err := s.Load(run.ID)
			if err != nil {
				t.Fatal(err)
			}
			if meta.Compress != compress || len(meta.Snapshots) != 2 || meta.Snapshots[1] != 10 {
				t.Errorf("metadata = %+v", meta)
			}

			steps, err := s.ListSnapshots(run.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(steps) != 2 || steps[0] != 0 || steps[1] != 10 {
				t.Errorf("snapshots = %v", steps)
			}

			records, err := s.LoadSnapshot(run.ID, 10)
			if err != nil {
				t.Fatalf("load snapshot failed: %v", err)
			}
			want := Records([]*mpm.Body{b})
			if len(records) != len(want) {
				t.Fatalf("expected %d records, got %d", len(want), len(records))
			}
			for i := range want {
				got, w := records[i], want[i]
				if got.Body != w.Body || got.Index != w.Index {
					t.Errorf("record %d identity %s/%d, want %s/%d", i, got.Body, got.Index, w.Body, w.Index)
				}
				pairs := [][2]float64{
					{got.X, w.X}, {got.VX, w.VX}, {got.Volume, w.Volume},
					{got.FXY, w.FXY}, {got.StressXY, w.StressXY}, {got.StrainYY, w.StrainYY}, {got.Kappa, w.Kappa},
				}
				for _, p := range pairs {
					if math.Abs(p[0]-p[1]) > 1e-12 {
						t.Errorf("record %d: got %g, want %g", i, p[0], p[1])
					}
				}
			}

			if _, err := s.LoadSnapshot(run.ID, 5); !errors.Is(err, ErrSnapshotNotFound) {
				t.Errorf("expected ErrSnapshotNotFound, got %v", err)
			}
		})
	}
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/DataDog/zstd"
	"github.com/gocarina/gocsv"

	"github.com/san-kum/mpmsim/internal/mpm"
)

const compressionLevel = 3

var ErrSnapshotNotFound = errors.New("storage: snapshot not found")

// ParticleRecord is one particle row of a snapshot.
type ParticleRecord struct {
	Body     string  `csv:"body"`
	Index    int     `csv:"index"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	VX       float64 `csv:"vx"`
	VY       float64 `csv:"vy"`
	Mass     float64 `csv:"mass"`
	Volume   float64 `csv:"volume"`
	Volume0  float64 `csv:"volume0"`
	FXX      float64 `csv:"f_xx"`
	FXY      float64 `csv:"f_xy"`
	FYX      float64 `csv:"f_yx"`
	FYY      float64 `csv:"f_yy"`
	StressXX float64 `csv:"stress_xx"`
	StressYY float64 `csv:"stress_yy"`
	StressXY float64 `csv:"stress_xy"`
	StrainXX float64 `csv:"strain_xx"`
	StrainYY float64 `csv:"strain_yy"`
	StrainXY float64 `csv:"strain_xy"`
	Kappa    float64 `csv:"kappa"`
}

// Records flattens the particle state of bodies.
func Records(bodies []*mpm.Body) []*ParticleRecord {
	n := 0
	for _, b := range bodies {
		n += b.Len()
	}
	out := make([]*ParticleRecord, 0, n)
	for _, b := range bodies {
		for i := 0; i < b.Len(); i++ {
			f, s, e := b.F[i], b.Stress[i], b.Strain[i]
			out = append(out, &ParticleRecord{
				Body:     b.Name,
				Index:    i,
				X:        b.X[i][0],
				Y:        b.X[i][1],
				VX:       b.V[i][0],
				VY:       b.V[i][1],
				Mass:     b.Mass[i],
				Volume:   b.Volume[i],
				Volume0:  b.Volume0[i],
				FXX:      f.XX,
				FXY:      f.XY,
				FYX:      f.YX,
				FYY:      f.YY,
				StressXX: s[0],
				StressYY: s[1],
				StressXY: s[2],
				StrainXX: e[0],
				StrainYY: e[1],
				StrainXY: e[2],
				Kappa:    b.Kappa[i],
			})
		}
	}
	return out
}

func snapshotName(step int, compress bool) string {
	name := fmt.Sprintf("snapshot_%06d.csv", step)
	if compress {
		name += ".zst"
	}
	return name
}

func writeSnapshot(dir string, step int, bodies []*mpm.Body, compress bool) error {
	data, err := gocsv.MarshalBytes(Records(bodies))
	if err != nil {
		return fmt.Errorf("storage: encode snapshot %d: %w", step, err)
	}
	if compress {
		data, err = zstd.CompressLevel(nil, data, compressionLevel)
		if err != nil {
			return fmt.Errorf("storage: compress snapshot %d: %w", step, err)
		}
	}
	return os.WriteFile(filepath.Join(dir, snapshotName(step, compress)), data, 0644)
}

// LoadSnapshot reads the particle records of one step, compressed or not.
func (s *Store) LoadSnapshot(runID string, step int) ([]*ParticleRecord, error) {
	dir := filepath.Join(s.baseDir, runID)

	for _, compress := range []bool{false, true} {
		data, err := os.ReadFile(filepath.Join(dir, snapshotName(step, compress)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if compress {
			if data, err = zstd.Decompress(nil, data); err != nil {
				return nil, fmt.Errorf("storage: decompress snapshot %d: %w", step, err)
			}
		}

		var records []*ParticleRecord
		if err := gocsv.UnmarshalBytes(data, &records); err != nil {
			return nil, fmt.Errorf("storage: decode snapshot %d: %w", step, err)
		}
		return records, nil
	}
	return nil, fmt.Errorf("%w: run %s step %d", ErrSnapshotNotFound, runID, step)
}

// ListSnapshots returns the steps with a stored snapshot, ascending.
func (s *Store) ListSnapshots(runID string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, runID))
	if err != nil {
		return nil, err
	}
	var steps []int
	for _, e := range entries {
		var step int
		if _, err := fmt.Sscanf(e.Name(), "snapshot_%d.csv", &step); err == nil {
			steps = append(steps, step)
		}
	}
	sort.Ints(steps)
	return steps, nil
}

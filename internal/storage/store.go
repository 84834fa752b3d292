package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/mpmsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Workers   int                `json:"workers"`
	Steps     int                `json:"steps"`
	Particles int                `json:"particles"`
	Nodes     int                `json:"nodes"`
	Bodies    []string           `json:"bodies"`
	Compress  bool               `json:"compress"`
	Snapshots []int              `json:"snapshots,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
	Error     string             `json:"error,omitempty"`
}

// Run is an open run directory. Snapshots are written while the simulation
// runs; Finish writes the metadata and metric series.
type Run struct {
	ID       string
	Compress bool

	dir       string
	snapshots []int
}

// Create makes a new run directory for scenario.
func (s *Store) Create(scenario string, compress bool) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}
	return &Run{ID: runID, Compress: compress, dir: runDir}, nil
}

// Snapshot implements sim.Snapshotter.
func (r *Run) Snapshot(f sim.Frame) error {
	if err := writeSnapshot(r.dir, f.Step, f.Bodies, r.Compress); err != nil {
		return err
	}
	r.snapshots = append(r.snapshots, f.Step)
	return nil
}

// Finish writes metadata.json and series.csv. meta.ID and meta.Snapshots are
// filled in from the run.
func (r *Run) Finish(meta RunMetadata, result *sim.Result) error {
	meta.ID = r.ID
	meta.Compress = r.Compress
	meta.Snapshots = append([]int(nil), r.snapshots...)
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if result != nil {
		meta.Steps = result.Steps
		meta.Metrics = result.Metrics
	}

	if err := writeMetadata(filepath.Join(r.dir, metadataFile), meta); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return writeSeries(filepath.Join(r.dir, seriesFile), result)
}

// Save stores a finished run without snapshots and returns its ID.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	run, err := s.Create(meta.Scenario, false)
	if err != nil {
		return "", err
	}
	if err := run.Finish(meta, result); err != nil {
		return "", err
	}
	return run.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	metaFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSeries(path string, result *sim.Result) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(csvFile)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}

	for i, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, name := range names {
			val := 0.0
			if s := result.Series[name]; i < len(s) {
				val = s[i]
			}
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", metaPath, err)
	}

	return &meta, nil
}

// LoadSeries reads series.csv back into times and named columns.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, seriesFile)
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", csvPath, err)
	}

	series := make(map[string][]float64)
	if len(records) < 1 {
		return []float64{}, series, nil
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	for _, name := range header[1:] {
		series[name] = make([]float64, 0, len(records)-1)
	}

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s row %d column %q: %w", csvPath, i+1, header[j], err)
			}
			vals[j] = v
		}
		times = append(times, vals[0])
		for j, name := range header[1:] {
			series[name] = append(series[name], vals[j+1])
		}
	}

	return times, series, nil
}

// Package storage keeps finished runs on disk, one directory per run:
//
//	<base>/<run-id>/metadata.json
//	<base>/<run-id>/config.yaml
//	<base>/<run-id>/series.csv
//	<base>/<run-id>/fields.csv
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	seriesFile   = "series.csv"
	fieldsFile   = "fields.csv"
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
	ID             string             `json:"id"`
	Scene          string             `json:"scene"`
	Mode           string             `json:"mode"`
	Timestamp      time.Time          `json:"timestamp"`
	Dt             float64            `json:"dt"`
	Frames         int                `json:"frames"`
	XCells         int                `json:"x_cells"`
	YCells         int                `json:"y_cells"`
	Iterations     int                `json:"iterations"`
	OverRelaxation float64            `json:"over_relaxation"`
	Steps          int                `json:"steps"`
	SimTime        float64            `json:"sim_time"`
	ElapsedMs      int64              `json:"elapsed_ms"`
	Metrics        map[string]float64 `json:"metrics"`
	// Unstable marks a run whose metrics stopped being finite. Those metrics
	// are left out of Metrics.
	Unstable bool `json:"unstable,omitempty"`
}

// FieldRecord is one cell of a final field dump.
type FieldRecord struct {
	X     int     `csv:"x"`
	Y     int     `csv:"y"`
	U     float64 `csv:"u"`
	V     float64 `csv:"v"`
	D     float64 `csv:"d"`
	P     float64 `csv:"p"`
	Solid bool    `csv:"solid"`
}

// Save writes a run directory. On any error the partial directory is removed.
func (s *Store) Save(scene string, cfg *config.Config, result *sim.Result) (runID string, err error) {
	now := time.Now()
	runID = fmt.Sprintf("%s_%d", scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	finite, unstable := finiteMetrics(result.Metrics)

	meta := RunMetadata{
		ID:             runID,
		Scene:          scene,
		Mode:           cfg.Mode,
		Timestamp:      now,
		Dt:             cfg.Dt,
		Frames:         cfg.Frames,
		XCells:         cfg.Grid.XCells,
		YCells:         cfg.Grid.YCells,
		Iterations:     cfg.Fluid.Iterations,
		OverRelaxation: cfg.Fluid.OverRelaxation,
		Steps:          result.StepsTaken,
		SimTime:        result.SimTime,
		ElapsedMs:      result.Elapsed.Milliseconds(),
		Metrics:        finite,
		Unstable:       unstable,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, seriesFile), result.Samples); err != nil {
		return "", err
	}
	if result.Final != nil {
		if err := writeCSV(filepath.Join(runDir, fieldsFile), FieldRecords(result.Final)); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// finiteMetrics drops NaN and infinite values, which JSON cannot encode, and
// reports whether any were dropped.
func finiteMetrics(in map[string]float64) (map[string]float64, bool) {
	out := make(map[string]float64, len(in))
	dropped := false
	for name, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			dropped = true
			continue
		}
		out[name] = v
	}
	return out, dropped
}

// FieldRecords flattens a snapshot into one record per cell, bottom row first.
func FieldRecords(r grid.Reader) []FieldRecord {
	records := make([]FieldRecord, 0, r.Width()*r.Height())
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			u, v := r.VelocityAt(x, y)
			records = append(records, FieldRecord{
				X: x, Y: y,
				U: u, V: v,
				D:     r.ScalarAt(x, y),
				P:     r.PressureAt(x, y),
				Solid: r.IsSolid(x, y),
			})
		}
	}
	return records
}

// List returns every readable run, oldest first.
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
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		return nil, notFound(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	cfg, err := config.Load(s.path(runID, configFile))
	if err != nil {
		return nil, notFound(runID, err)
	}
	return cfg, nil
}

func (s *Store) LoadSeries(runID string) ([]sim.Sample, error) {
	var samples []sim.Sample
	if err := readCSV(s.path(runID, seriesFile), &samples); err != nil {
		return nil, notFound(runID, err)
	}
	return samples, nil
}

func (s *Store) LoadFields(runID string) ([]FieldRecord, error) {
	var records []FieldRecord
	if err := readCSV(s.path(runID, fieldsFile), &records); err != nil {
		return nil, notFound(runID, err)
	}
	return records, nil
}

// LoadGrid rebuilds the final grid of a run from its config and field dump.
func (s *Store) LoadGrid(runID string) (*grid.Grid, error) {
	cfg, err := s.LoadConfig(runID)
	if err != nil {
		return nil, err
	}
	records, err := s.LoadFields(runID)
	if err != nil {
		return nil, err
	}
	return RestoreGrid(records, cfg.Grid.XCells, cfg.Grid.YCells, cfg.Grid.Width, cfg.Grid.Height)
}

// RestoreGrid is the inverse of FieldRecords.
func RestoreGrid(records []FieldRecord, xCells, yCells int, width, height float64) (*grid.Grid, error) {
	g, err := grid.New(xCells, yCells, width, height)
	if err != nil {
		return nil, err
	}
	if len(records) != xCells*yCells {
		return nil, fmt.Errorf("field dump has %d cells, grid has %d", len(records), xCells*yCells)
	}
	for _, rec := range records {
		if !g.InBounds(rec.X, rec.Y) {
			return nil, fmt.Errorf("field record (%d,%d) outside %dx%d grid", rec.X, rec.Y, xCells, yCells)
		}
		g.SetSolid(rec.X, rec.Y, rec.Solid)
	}
	for _, rec := range records {
		i := g.Index(rec.X, rec.Y)
		g.U[i], g.V[i], g.D[i], g.P[i] = rec.U, rec.V, rec.D, rec.P
	}
	return g, nil
}

func (s *Store) path(runID, name string) string {
	return filepath.Join(s.baseDir, runID, name)
}

func notFound(runID string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)
	return gocsv.MarshalFile(rows, f)
}

// closeFile closes f and keeps the first error.
func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}

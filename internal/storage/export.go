package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/fluidsim/internal/sim"
)

type ExportData struct {
	Scene      string             `json:"scene"`
	Mode       string             `json:"mode"`
	Dt         float64            `json:"dt"`
	Iterations int                `json:"iterations"`
	Steps      int                `json:"steps"`
	SimTime    float64            `json:"sim_time"`
	Samples    []sim.Sample       `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`
	Unstable   bool               `json:"unstable,omitempty"`
}

// NewExportData collects the exportable parts of a stored run.
func NewExportData(meta *RunMetadata, samples []sim.Sample) ExportData {
	return ExportData{
		Scene:      meta.Scene,
		Mode:       meta.Mode,
		Dt:         meta.Dt,
		Iterations: meta.Iterations,
		Steps:      meta.Steps,
		SimTime:    meta.SimTime,
		Samples:    samples,
		Metrics:    meta.Metrics,
		Unstable:   meta.Unstable,
	}
}

func ExportJSON(path string, data ExportData) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(file, &err)
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteSeriesCSV writes samples with a header row.
func WriteSeriesCSV(w io.Writer, samples []sim.Sample) error {
	return gocsv.Marshal(samples, w)
}

func WriteFieldsCSV(w io.Writer, records []FieldRecord) error {
	return gocsv.Marshal(records, w)
}

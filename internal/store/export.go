// Package store writes run results to flat files for external tools.
package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/sim"
	"github.com/san-kum/epicycle/internal/telemetry"
	"github.com/san-kum/epicycle/internal/vehicle"
)

type SampleRecord struct {
	N    uint64     `json:"n"`
	T    float64    `json:"t"`
	R    [3]float64 `json:"r"`
	Q    [4]float64 `json:"q"`
	V    [3]float64 `json:"v"`
	W    [3]float64 `json:"w"`
	Mass float64    `json:"mass"`
}

type ExportData struct {
	Name       string             `json:"name"`
	Integrator string             `json:"integrator"`
	Models     []string           `json:"models"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      uint64             `json:"steps"`
	Rejected   int                `json:"rejected"`
	Events     int                `json:"events"`
	Samples    []SampleRecord     `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`
}

func record(s sim.Sample) SampleRecord {
	return SampleRecord{
		N:    s.N,
		T:    s.T,
		R:    s.System.R,
		Q:    s.System.Q,
		V:    s.System.V,
		W:    s.System.W,
		Mass: s.Mass,
	}
}

func exportData(cfg *config.Config, result *sim.Result) ExportData {
	data := ExportData{
		Name:       cfg.Name,
		Integrator: cfg.Integrator,
		Models:     cfg.Models,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Steps:      result.Steps,
		Rejected:   result.Rejected,
		Events:     result.Events,
		Samples:    make([]SampleRecord, len(result.Samples)),
		Metrics:    result.Metrics,
	}
	for i, s := range result.Samples {
		data.Samples[i] = record(s)
	}
	return data
}

func ExportJSON(path string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, cfg, result)
}

// WriteJSON is ExportJSON to an open writer such as stdout.
func WriteJSON(w io.Writer, cfg *config.Config, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(cfg, result))
}

var csvHeader = []string{"n", "t", "rx", "ry", "rz", "qw", "qx", "qy", "qz", "vx", "vy", "vz", "wx", "wy", "wz", "mass"}

func ExportCSV(path string, samples []sim.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, samples)
}

func WriteCSV(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	format := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	for _, s := range samples {
		sys := s.System
		row := []string{strconv.FormatUint(s.N, 10), format(s.T)}
		for _, x := range sys.R {
			row = append(row, format(x))
		}
		for _, x := range sys.Q {
			row = append(row, format(x))
		}
		for _, x := range sys.V {
			row = append(row, format(x))
		}
		for _, x := range sys.W {
			row = append(row, format(x))
		}
		row = append(row, format(s.Mass))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ExportLineProtocol(path, run string, samples []sim.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteLineProtocol(file, run, samples)
}

// WriteLineProtocol writes one InfluxDB line per sample.
func WriteLineProtocol(w io.Writer, run string, samples []sim.Sample) error {
	for _, s := range samples {
		st := vehicle.State{Clock: vehicle.Clock{N: s.N, T: s.T}, System: s.System}
		out := vehicle.Output{Mass: s.Mass, Center: s.Center}
		if _, err := io.WriteString(w, telemetry.LineProtocol(run, &st, &out)); err != nil {
			return err
		}
	}
	return nil
}

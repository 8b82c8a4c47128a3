package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/walks/internal/analysis"
	"github.com/san-kum/walks/internal/output"
)

type ExportData struct {
	Metadata     *RunMetadata `json:"metadata"`
	Times        []float64    `json:"times"`
	Counts       []int        `json:"counts"`
	MeanPath     [][]float64  `json:"mean_path"`
	VariancePath [][]float64  `json:"variance_path"`
	Diffusion    []float64    `json:"effective_diffusion,omitempty"`
}

// ExportJSON writes the run's metadata and ensemble statistics. NaN
// statistics are written as null.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata:     meta,
		Times:        tr.Times,
		Counts:       tr.Counts,
		MeanPath:     nullable(analysis.MeanPath(tr)),
		VariancePath: nullable(analysis.VariancePath(tr)),
	}
	if d, err := analysis.EffectiveDiffusion(tr); err == nil {
		data.Diffusion = d
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// nullable replaces rows containing NaN with nil, which encoding/json
// cannot represent.
func nullable(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for k, row := range rows {
		ok := true
		for _, v := range row {
			if v != v {
				ok = false
			}
		}
		if ok {
			out[k] = row
		}
	}
	return out
}

// ExportCSV writes one row per valid walker per snapshot:
// step, time, walker, x0, x1, ...
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return WriteCSV(w, tr)
}

func WriteCSV(w io.Writer, tr *output.Trajectory) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if tr.Len() == 0 {
		return nil
	}

	dim := len(tr.Positions[0])
	header := []string{"step", "time", "walker"}
	for d := 0; d < dim; d++ {
		header = append(header, fmt.Sprintf("x%d", d))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for k := range tr.Times {
		snap := tr.Snapshot(k)
		for i := 0; i < tr.Counts[k]; i++ {
			row[0] = strconv.Itoa(k)
			row[1] = strconv.FormatFloat(tr.Times[k], 'f', 6, 64)
			row[2] = strconv.Itoa(i)
			for d := 0; d < dim; d++ {
				row[3+d] = strconv.FormatFloat(snap[d][i], 'f', 6, 64)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

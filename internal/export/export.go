// Package export writes the derived change-analysis artifacts as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, csv, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// Analysis is the full machine-readable breakdown for a period.
type Analysis struct {
	Period    model.Period          `json:"period" yaml:"period"`
	Labels    model.ClassLabels     `json:"labels" yaml:"labels"`
	Change    *model.ChangeResponse `json:"change,omitempty" yaml:"change,omitempty"`
	Insights  model.InsightResult   `json:"insights" yaml:"insights"`
	Narrative core.Narrative        `json:"narrative" yaml:"narrative"`
}

// Write encodes a in the requested format.
func Write(w io.Writer, f Format, a *Analysis) error {
	switch f {
	case FormatCSV:
		return WriteInsightsCSV(w, a.Labels, &a.Insights)
	case FormatYAML:
		return WriteYAML(w, a)
	default:
		return WriteJSON(w, a)
	}
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteLULCCSV writes the class distribution table of one year.
func WriteLULCCSV(w io.Writer, resp *model.LULCResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Class", "Area (Ha)", "Percentage"}); err != nil {
		return err
	}
	for _, s := range resp.Stats {
		if err := cw.Write([]string{s.ClassName, formatFloat(s.AreaHa), formatFloat(s.Percentage)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatrixCSV writes the transition matrix with class labels as header and first column.
func WriteMatrixCSV(w io.Writer, labels model.ClassLabels, matrix model.TransitionMatrix) error {
	cw := csv.NewWriter(w)
	header := append([]string{"From / To"}, labels...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range matrix {
		label := strconv.Itoa(i)
		if i < len(labels) {
			label = labels[i]
		}
		record := make([]string, 0, len(row)+1)
		record = append(record, label)
		for _, v := range row {
			record = append(record, formatFloat(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInsightsCSV writes one row per class with its retention and area change.
func WriteInsightsCSV(w io.Writer, labels model.ClassLabels, r *model.InsightResult) error {
	rows := [][]string{{"Class", "Retention", "Start (Ha)", "End (Ha)", "Delta (Ha)"}}
	for i, ratio := range r.Retention {
		class := strconv.Itoa(i)
		if i < len(labels) {
			class = labels[i]
		}
		var start, end float64
		if i < len(r.StartArea) && i < len(r.EndArea) {
			start, end = r.StartArea[i], r.EndArea[i]
		}
		rows = append(rows, []string{class, formatFloat(ratio), formatFloat(start), formatFloat(end), formatFloat(end - start)})
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write insights csv: %w", err)
	}
	return nil
}

func LULCFilename(place string, year int) string {
	return fmt.Sprintf("%s_lulc_stats_%d.csv", slug(place), year)
}

// AnalysisFilename names a period export; JSON keeps the dashboard's change_analysis name.
func AnalysisFilename(place string, p model.Period, f Format) string {
	if f == FormatJSON {
		return fmt.Sprintf("%s_change_analysis_%d_%d.json", slug(place), p.Start, p.End)
	}
	return fmt.Sprintf("%s_insights_%d_%d.%s", slug(place), p.Start, p.End, f)
}

func slug(place string) string {
	s := strings.ToLower(strings.TrimSpace(place))
	s = strings.Join(strings.Fields(s), "_")
	if s == "" {
		return "geoai"
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package model

import (
	"fmt"
	"time"
)

// TransitionMatrix holds transitioned area in hectares.
// Row i is the origin class at the start year, column j the class at the end year.
type TransitionMatrix [][]float64

// ClassLabels are the class names aligned with matrix indices.
type ClassLabels []string

// InsightConfig tells the engine which classes carry meaning for a deployment.
type InsightConfig struct {
	BuiltupIndex     int   `json:"builtup_index" yaml:"builtup_index"`
	FootprintIndices []int `json:"footprint_indices" yaml:"footprint_indices"`
}

// Period identifies one change-detection request.
type Period struct {
	Start int `json:"start_year" yaml:"start_year"`
	End   int `json:"end_year" yaml:"end_year"`
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%d", p.Start, p.End)
}

// Transition is a single off-diagonal flow between two classes.
type Transition struct {
	From      string  `json:"from_class" yaml:"from_class"`
	To        string  `json:"to_class" yaml:"to_class"`
	FromIndex int     `json:"from_index" yaml:"from_index"`
	ToIndex   int     `json:"to_index" yaml:"to_index"`
	Area      float64 `json:"area_ha" yaml:"area_ha"`
}

// FootprintDelta is the net area change of one ecological class.
type FootprintDelta struct {
	Class string  `json:"class" yaml:"class"`
	Index int     `json:"index" yaml:"index"`
	Start float64 `json:"start_ha" yaml:"start_ha"`
	End   float64 `json:"end_ha" yaml:"end_ha"`
	Delta float64 `json:"delta_ha" yaml:"delta_ha"`
}

// InsightResult bundles the derived facts for one matrix snapshot.
type InsightResult struct {
	StableClass    string  `json:"stable_class" yaml:"stable_class"`
	StableIndex    int     `json:"stable_index" yaml:"stable_index"`
	RetentionRatio float64 `json:"retention_ratio" yaml:"retention_ratio"`
	// Retention is the per-class ratio, index aligned with the labels.
	Retention []float64 `json:"retention" yaml:"retention"`
	// StartArea and EndArea are the per-class row and column totals in hectares.
	StartArea []float64 `json:"start_area_ha" yaml:"start_area_ha"`
	EndArea   []float64 `json:"end_area_ha" yaml:"end_area_ha"`

	BuiltupClass   string  `json:"builtup_class" yaml:"builtup_class"`
	BuiltupStart   float64 `json:"builtup_start_ha" yaml:"builtup_start_ha"`
	BuiltupEnd     float64 `json:"builtup_end_ha" yaml:"builtup_end_ha"`
	ExpansionDelta float64 `json:"expansion_delta_ha" yaml:"expansion_delta_ha"`

	// DominantTransition is nil when no off-diagonal cell is positive.
	DominantTransition *Transition `json:"dominant_transition" yaml:"dominant_transition"`

	Footprint []FootprintDelta `json:"footprint" yaml:"footprint"`
}

// InsightRun is a committed computation for a period.
type InsightRun struct {
	ID         string        `json:"id" yaml:"id"`
	Period     Period        `json:"period" yaml:"period"`
	Result     InsightResult `json:"result" yaml:"result"`
	ComputedAt time.Time     `json:"computed_at" yaml:"computed_at"`
}

// ChangeBreakdown is one non-empty transition as reported by the backend.
type ChangeBreakdown struct {
	FromClass string  `json:"from_class" yaml:"from_class"`
	ToClass   string  `json:"to_class" yaml:"to_class"`
	AreaHa    float64 `json:"area_ha" yaml:"area_ha"`
}

// ChangeResponse is the backend payload for /change/{start}/{end}.
type ChangeResponse struct {
	MatrixArea       TransitionMatrix  `json:"matrix_area" yaml:"matrix_area"`
	MatrixPercentage [][]float64       `json:"matrix_percentage" yaml:"matrix_percentage"`
	Breakdown        []ChangeBreakdown `json:"breakdown" yaml:"breakdown"`
}

// LULCStat is the area of one class in a year.
type LULCStat struct {
	ClassName  string  `json:"class_name"`
	AreaHa     float64 `json:"area_ha"`
	Percentage float64 `json:"percentage"`
}

// LULCResponse is the backend payload for /lulc/{year}.
type LULCResponse struct {
	TotalAreaHa float64    `json:"total_area_ha"`
	Stats       []LULCStat `json:"stats"`
	Error       string     `json:"error,omitempty"`
}

// ConfidenceSummary is the backend payload for /confidence/{year}.
type ConfidenceSummary struct {
	Year            int     `json:"year"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Mean            float64 `json:"mean"`
	Median          float64 `json:"median"`
	ValidPixels     int64   `json:"valid_pixels"`
	TotalPixels     int64   `json:"total_pixels"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// ConfidenceStat is the mean confidence over a set of pixels.
// MeanConfidence is nil when the set is empty.
type ConfidenceStat struct {
	MeanConfidence *float64 `json:"mean_confidence"`
	PixelCount     int64    `json:"pixel_count"`
}

// ConfidenceByClass is the backend payload for /confidence/lulc/{year}.
type ConfidenceByClass struct {
	Year    int                       `json:"year"`
	Classes map[string]ConfidenceStat `json:"classes"`
}

// ChangeConfidence is the backend payload for /confidence/change/{start}/{end}.
type ChangeConfidence struct {
	Period    string         `json:"period"`
	Changed   ConfidenceStat `json:"changed"`
	Unchanged ConfidenceStat `json:"unchanged"`
}

// MapBounds is [[lat_min, lon_min], [lat_max, lon_max]].
type MapBounds [2][2]float64

// Report is everything the dashboard shows for one period.
// Only Insights is guaranteed; the other sections are nil when unavailable.
type Report struct {
	Period           Period             `json:"period"`
	Insights         InsightResult      `json:"insights"`
	Change           *ChangeResponse    `json:"change,omitempty"`
	StartLULC        *LULCResponse      `json:"start_lulc,omitempty"`
	EndLULC          *LULCResponse      `json:"end_lulc,omitempty"`
	Confidence       *ConfidenceSummary `json:"confidence,omitempty"`
	ChangeConfidence *ChangeConfidence  `json:"change_confidence,omitempty"`
}

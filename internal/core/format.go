package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

// Narrative is the human-readable form of an InsightResult.
type Narrative struct {
	Stability  string `json:"stability" yaml:"stability"`
	Expansion  string `json:"expansion" yaml:"expansion"`
	Transition string `json:"transition" yaml:"transition"`
	Footprint  string `json:"footprint" yaml:"footprint"`
}

// FormatPercent renders a ratio in [0,1] as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatArea renders hectares with thousands separators and at most two decimals.
func FormatArea(ha float64) string {
	r := math.Round(ha*100) / 100
	if r == 0 {
		// drops the sign of -0
		r = 0
	}
	return humanize.Commaf(r)
}

// FormatSignedArea is FormatArea with a leading "+" for gains.
func FormatSignedArea(ha float64) string {
	s := FormatArea(ha)
	if math.Round(ha*100) > 0 {
		return "+" + s
	}
	return s
}

// Render builds the dashboard sentences for a result. place names the study area.
func Render(result *model.InsightResult, place string) Narrative {
	var n Narrative

	n.Stability = fmt.Sprintf("%s remains the most stable land class with %s retention.",
		result.StableClass, FormatPercent(result.RetentionRatio))

	if result.ExpansionDelta > 0 {
		n.Expansion = fmt.Sprintf("%s experienced an urban expansion of %s hectares in %s area.",
			place, FormatArea(result.ExpansionDelta), strings.ToLower(result.BuiltupClass))
	} else {
		n.Expansion = "Urban footprint remained relatively stable with minor shifts in infrastructure."
	}

	if t := result.DominantTransition; t != nil {
		n.Transition = fmt.Sprintf("The most significant landscape shift was the conversion of %s to %s.", t.From, t.To)
	} else {
		n.Transition = "No significant inter-class transitions were detected in this period."
	}

	n.Footprint = FormatFootprint(result.Footprint)
	return n
}

// FormatFootprint renders the compact summary, e.g. "Net Footprint: Forest (+5 Ha), Agriculture (-10 Ha)".
func FormatFootprint(deltas []model.FootprintDelta) string {
	if len(deltas) == 0 {
		return "Net Footprint: n/a"
	}
	parts := make([]string, 0, len(deltas))
	for _, d := range deltas {
		parts = append(parts, fmt.Sprintf("%s (%s Ha)", d.Class, FormatSignedArea(d.Delta)))
	}
	return "Net Footprint: " + strings.Join(parts, ", ")
}

package model

import (
	"context"
	"encoding/json"
	"fmt"
)

// GeoAIClient defines the interface to the GeoAI backend
type GeoAIClient interface {
	// GetChange returns the transition matrix between two years
	GetChange(ctx context.Context, period Period) (*ChangeResponse, error)

	// GetLULC returns class area statistics for a year
	GetLULC(ctx context.Context, year int) (*LULCResponse, error)

	// GetConfidence returns the confidence summary for a year
	GetConfidence(ctx context.Context, year int) (*ConfidenceSummary, error)

	// GetConfidenceByClass returns the per-class confidence for a year
	GetConfidenceByClass(ctx context.Context, year int) (*ConfidenceByClass, error)

	// GetChangeConfidence returns confidence of changed vs unchanged pixels
	GetChangeConfidence(ctx context.Context, period Period) (*ChangeConfidence, error)

	// GetMapBounds returns the raster extent
	GetMapBounds(ctx context.Context) (*MapBounds, error)
}

// UnmarshalJSON decodes the backend shape, where class names are top-level keys next to "year".
func (c *ConfidenceByClass) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Classes = make(map[string]ConfidenceStat, len(raw))
	for key, value := range raw {
		if key == "year" {
			if err := json.Unmarshal(value, &c.Year); err != nil {
				return fmt.Errorf("invalid year: %w", err)
			}
			continue
		}
		var stat ConfidenceStat
		if err := json.Unmarshal(value, &stat); err != nil {
			return fmt.Errorf("invalid confidence for class %q: %w", key, err)
		}
		c.Classes[key] = stat
	}
	return nil
}

// MarshalJSON writes the same flat shape back.
func (c ConfidenceByClass) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Classes)+1)
	for name, stat := range c.Classes {
		out[name] = stat
	}
	out["year"] = c.Year
	return json.Marshal(out)
}

package core

import (
	"fmt"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

// DefaultPeriods are the year pairs the backend has change rasters for.
var DefaultPeriods = []model.Period{
	{Start: 2018, End: 2025},
	{Start: 2019, End: 2024},
}

// ValidatePeriod checks p against allowed. An empty allow-list accepts any ordered pair.
func ValidatePeriod(p model.Period, allowed []model.Period) error {
	if p.Start >= p.End {
		return fmt.Errorf("start year %d must be before end year %d: %w", p.Start, p.End, model.ErrInvalidPeriod)
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if a == p {
			return nil
		}
	}
	return fmt.Errorf("no change data for %d→%d: %w", p.Start, p.End, model.ErrInvalidPeriod)
}

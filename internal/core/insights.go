package core

import (
	"fmt"
	"math"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

// ComputeInsights derives stability, built-up expansion, the dominant transition
// and the ecological footprint from one transition matrix.
// It returns model.ErrMissingData for absent or malformed input and never a partial result.
func ComputeInsights(matrix model.TransitionMatrix, labels model.ClassLabels, cfg model.InsightConfig) (*model.InsightResult, error) {
	if err := validateInput(matrix, labels, cfg); err != nil {
		return nil, err
	}

	n := len(matrix)
	rowSums := make([]float64, n)
	colSums := make([]float64, n)
	for i, row := range matrix {
		for j, v := range row {
			rowSums[i] += v
			colSums[j] += v
		}
	}

	result := &model.InsightResult{
		Retention: make([]float64, n),
		StartArea: rowSums,
		EndArea:   colSums,
	}

	// Stability: strict > keeps the lowest index on ties.
	maxRetention := -1.0
	for i := 0; i < n; i++ {
		var retention float64
		if rowSums[i] > 0 {
			retention = matrix[i][i] / rowSums[i]
		}
		result.Retention[i] = retention
		if retention > maxRetention {
			maxRetention = retention
			result.StableIndex = i
		}
	}
	result.StableClass = labels[result.StableIndex]
	result.RetentionRatio = maxRetention

	// Expansion
	b := cfg.BuiltupIndex
	result.BuiltupClass = labels[b]
	result.BuiltupStart = rowSums[b]
	result.BuiltupEnd = colSums[b]
	result.ExpansionDelta = colSums[b] - rowSums[b]

	// Dominant transition: row-major scan, first occurrence wins.
	maxTrans := -1.0
	fromIdx, toIdx := -1, -1
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && matrix[i][j] > maxTrans {
				maxTrans = matrix[i][j]
				fromIdx, toIdx = i, j
			}
		}
	}
	if maxTrans > 0 {
		result.DominantTransition = &model.Transition{
			From:      labels[fromIdx],
			To:        labels[toIdx],
			FromIndex: fromIdx,
			ToIndex:   toIdx,
			Area:      maxTrans,
		}
	}

	// Footprint
	result.Footprint = make([]model.FootprintDelta, 0, len(cfg.FootprintIndices))
	for _, k := range cfg.FootprintIndices {
		result.Footprint = append(result.Footprint, model.FootprintDelta{
			Class: labels[k],
			Index: k,
			Start: rowSums[k],
			End:   colSums[k],
			Delta: colSums[k] - rowSums[k],
		})
	}

	return result, nil
}

func validateInput(matrix model.TransitionMatrix, labels model.ClassLabels, cfg model.InsightConfig) error {
	n := len(matrix)
	if n == 0 {
		return fmt.Errorf("empty transition matrix: %w", model.ErrMissingData)
	}
	if len(labels) != n {
		return fmt.Errorf("%d labels for %d classes: %w", len(labels), n, model.ErrMissingData)
	}
	for i, row := range matrix {
		if len(row) != n {
			return fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), n, model.ErrMissingData)
		}
		for j, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("invalid area %v at [%d][%d]: %w", v, i, j, model.ErrMissingData)
			}
		}
	}
	if cfg.BuiltupIndex < 0 || cfg.BuiltupIndex >= n {
		return fmt.Errorf("built-up index %d out of range [0,%d): %w", cfg.BuiltupIndex, n, model.ErrMissingData)
	}
	for _, k := range cfg.FootprintIndices {
		if k < 0 || k >= n {
			return fmt.Errorf("footprint index %d out of range [0,%d): %w", k, n, model.ErrMissingData)
		}
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

type InsightRecorder interface {
	RecordInsight(ctx context.Context, run *model.InsightRun) error
	ListInsights(ctx context.Context, limit int) ([]model.InsightRun, error)
}

type SQLInsightRecorder struct {
	db *sqlx.DB
}

func NewSQLInsightRecorder(db *sqlx.DB) *SQLInsightRecorder {
	return &SQLInsightRecorder{db: db}
}

func (r *SQLInsightRecorder) RecordInsight(ctx context.Context, run *model.InsightRun) error {
	const query = `
		INSERT INTO insight_runs (
			id, start_year, end_year,
			stable_class, retention_ratio, expansion_delta,
			dominant_from, dominant_to, dominant_area,
			result_json, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal insight result: %w", err)
	}

	var from, to *string
	var area *float64
	if t := run.Result.DominantTransition; t != nil {
		from, to, area = &t.From, &t.To, &t.Area
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query),
		run.ID, run.Period.Start, run.Period.End,
		run.Result.StableClass, run.Result.RetentionRatio, run.Result.ExpansionDelta,
		from, to, area,
		string(resultJSON), run.ComputedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert insight run: %w", err)
	}
	return nil
}

type insightRow struct {
	ID         string `db:"id"`
	StartYear  int    `db:"start_year"`
	EndYear    int    `db:"end_year"`
	ResultJSON string `db:"result_json"`
	ComputedAt int64  `db:"computed_at"`
}

// ListInsights returns up to limit runs, newest first.
func (r *SQLInsightRecorder) ListInsights(ctx context.Context, limit int) ([]model.InsightRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, start_year, end_year, result_json, computed_at
		FROM insight_runs
		ORDER BY computed_at DESC, id DESC
		LIMIT ?`

	var rows []insightRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), limit); err != nil {
		return nil, fmt.Errorf("failed to query insight runs: %w", err)
	}

	runs := make([]model.InsightRun, 0, len(rows))
	for _, row := range rows {
		var result model.InsightResult
		if err := json.Unmarshal([]byte(row.ResultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to decode insight run %s: %w", row.ID, err)
		}
		runs = append(runs, model.InsightRun{
			ID:         row.ID,
			Period:     model.Period{Start: row.StartYear, End: row.EndYear},
			Result:     result,
			ComputedAt: time.UnixMilli(row.ComputedAt).UTC(),
		})
	}
	return runs, nil
}

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/repository"
)

// Taxonomy describes the class set of a deployment.
type Taxonomy struct {
	Labels  model.ClassLabels
	Insight model.InsightConfig
	Periods []model.Period
}

type InsightService struct {
	client   model.GeoAIClient
	recorder repository.InsightRecorder
	tracker  *Tracker
	taxonomy Taxonomy
	logger   *zap.Logger
	now      func() time.Time
}

// NewInsightService wires the service. recorder may be nil to disable persistence.
func NewInsightService(
	client model.GeoAIClient,
	recorder repository.InsightRecorder,
	taxonomy Taxonomy,
	logger *zap.Logger,
) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightService{
		client:   client,
		recorder: recorder,
		tracker:  NewTracker(logger),
		taxonomy: taxonomy,
		logger:   logger,
		now:      time.Now,
	}
}

// Taxonomy returns the configured class set.
func (s *InsightService) Taxonomy() Taxonomy {
	return s.taxonomy
}

// Insights fetches the change matrix for period and computes its insights.
func (s *InsightService) Insights(ctx context.Context, period model.Period) (*model.InsightRun, error) {
	run, _, err := s.Analyze(ctx, period)
	return run, err
}

// Analyze is Insights that also hands back the change payload the run was derived from.
func (s *InsightService) Analyze(ctx context.Context, period model.Period) (*model.InsightRun, *model.ChangeResponse, error) {
	run, change, err := s.compute(ctx, period)
	if err != nil {
		return nil, nil, err
	}
	s.record(ctx, run)
	return run, change, nil
}

// Select computes insights for the period the user selected last.
// A run superseded by a newer Select returns model.ErrStaleResult and is never recorded.
func (s *InsightService) Select(ctx context.Context, period model.Period) (*model.InsightRun, error) {
	run, err := s.tracker.Run(ctx, period, func(ctx context.Context) (*model.InsightRun, error) {
		run, _, err := s.compute(ctx, period)
		return run, err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, run)
	return run, nil
}

// Selected returns the insights of the last committed selection.
func (s *InsightService) Selected() (*model.InsightRun, bool) {
	return s.tracker.Latest()
}

// Close discards pending selections.
func (s *InsightService) Close() {
	s.tracker.Close()
}

// Report assembles everything shown for a period. Only the insights are mandatory.
func (s *InsightService) Report(ctx context.Context, period model.Period) (*model.Report, error) {
	if err := ValidatePeriod(period, s.taxonomy.Periods); err != nil {
		return nil, err
	}

	report := &model.Report{Period: period}
	g, gctx := errgroup.WithContext(ctx)

	var change *model.ChangeResponse
	g.Go(func() error {
		var err error
		change, err = s.fetchChange(gctx, period)
		return err
	})

	g.Go(func() error {
		report.StartLULC = optional(s, "lulc start", func() (*model.LULCResponse, error) {
			return s.client.GetLULC(gctx, period.Start)
		})
		return nil
	})
	g.Go(func() error {
		report.EndLULC = optional(s, "lulc end", func() (*model.LULCResponse, error) {
			return s.client.GetLULC(gctx, period.End)
		})
		return nil
	})
	g.Go(func() error {
		report.Confidence = optional(s, "confidence", func() (*model.ConfidenceSummary, error) {
			return s.client.GetConfidence(gctx, period.End)
		})
		return nil
	})
	g.Go(func() error {
		report.ChangeConfidence = optional(s, "change confidence", func() (*model.ChangeConfidence, error) {
			return s.client.GetChangeConfidence(gctx, period)
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := ComputeInsights(change.MatrixArea, s.taxonomy.Labels, s.taxonomy.Insight)
	if err != nil {
		return nil, fmt.Errorf("failed to compute insights for %s: %w", period, err)
	}
	report.Insights = *result
	report.Change = change
	return report, nil
}

// ChangeData returns the raw change analysis for a period.
func (s *InsightService) ChangeData(ctx context.Context, period model.Period) (*model.ChangeResponse, error) {
	if err := ValidatePeriod(period, s.taxonomy.Periods); err != nil {
		return nil, err
	}
	return s.fetchChange(ctx, period)
}

// LULC returns the class distribution for a year.
func (s *InsightService) LULC(ctx context.Context, year int) (*model.LULCResponse, error) {
	resp, err := s.client.GetLULC(ctx, year)
	if err != nil {
		s.logger.Warn("failed to get lulc stats", zap.Int("year", year), zap.Error(err))
		return nil, fmt.Errorf("failed to get lulc stats for %d: %w", year, model.ErrMissingData)
	}
	if resp == nil || len(resp.Stats) == 0 {
		return nil, fmt.Errorf("no lulc stats for %d: %w", year, model.ErrMissingData)
	}
	return resp, nil
}

func (s *InsightService) ConfidenceByClass(ctx context.Context, year int) (*model.ConfidenceByClass, error) {
	resp, err := s.client.GetConfidenceByClass(ctx, year)
	if err != nil {
		s.logger.Warn("failed to get class confidence", zap.Int("year", year), zap.Error(err))
		return nil, fmt.Errorf("failed to get class confidence for %d: %w", year, model.ErrMissingData)
	}
	return resp, nil
}

func (s *InsightService) MapBounds(ctx context.Context) (*model.MapBounds, error) {
	bounds, err := s.client.GetMapBounds(ctx)
	if err != nil {
		s.logger.Warn("failed to get map bounds", zap.Error(err))
		return nil, fmt.Errorf("failed to get map bounds: %w", model.ErrMissingData)
	}
	return bounds, nil
}

// History lists recorded runs, newest first.
func (s *InsightService) History(ctx context.Context, limit int) ([]model.InsightRun, error) {
	if s.recorder == nil {
		return nil, nil
	}
	runs, err := s.recorder.ListInsights(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return runs, nil
}

func (s *InsightService) compute(ctx context.Context, period model.Period) (*model.InsightRun, *model.ChangeResponse, error) {
	if err := ValidatePeriod(period, s.taxonomy.Periods); err != nil {
		return nil, nil, err
	}

	change, err := s.fetchChange(ctx, period)
	if err != nil {
		return nil, nil, err
	}

	result, err := ComputeInsights(change.MatrixArea, s.taxonomy.Labels, s.taxonomy.Insight)
	if err != nil {
		s.logger.Warn("insights unavailable", zap.Stringer("period", period), zap.Error(err))
		return nil, nil, fmt.Errorf("failed to compute insights for %s: %w", period, err)
	}

	return &model.InsightRun{
		ID:         uuid.NewString(),
		Period:     period,
		Result:     *result,
		ComputedAt: s.now().UTC(),
	}, change, nil
}

func (s *InsightService) fetchChange(ctx context.Context, period model.Period) (*model.ChangeResponse, error) {
	change, err := s.client.GetChange(ctx, period)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("failed to get change data", zap.Stringer("period", period), zap.Error(err))
		return nil, fmt.Errorf("failed to get change data for %s: %w", period, model.ErrMissingData)
	}
	if change == nil || change.MatrixArea == nil {
		return nil, fmt.Errorf("empty change data for %s: %w", period, model.ErrMissingData)
	}
	return change, nil
}

func (s *InsightService) record(ctx context.Context, run *model.InsightRun) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordInsight(ctx, run); err != nil {
		s.logger.Warn("failed to record insight run",
			zap.String("id", run.ID),
			zap.Stringer("period", run.Period),
			zap.Error(err))
	}
}

func optional[T any](s *InsightService, section string, fetch func() (*T, error)) *T {
	v, err := fetch()
	if err != nil {
		s.logger.Warn("report section unavailable", zap.String("section", section), zap.Error(err))
		return nil
	}
	return v
}

package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/acadtrack/acadtrack/internal/analytics"
)

// AnalyticsWarmupJob pre-populates the analytics caches so the first
// dashboard view after an invalidation does not pay the aggregation cost.
type AnalyticsWarmupJob struct {
	Analytics *analytics.Service
	Logger    *slog.Logger
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analyticsSvc *analytics.Service, logger *slog.Logger) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{Analytics: analyticsSvc, Logger: logger}
}

// Handle processes TaskTypeAnalyticsWarmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}

	if _, err := j.Analytics.ClassOverview(ctx); err != nil {
		return err
	}

	ids, err := j.Analytics.ActiveStudentIDs(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := j.Analytics.OverviewForScan(gctx, id); err != nil {
				j.Logger.Warn("warm student overview", slog.String("student_id", id), slog.Any("error", err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	j.Logger.Info("analytics warmup complete", slog.Int("students", len(ids)))
	return nil
}

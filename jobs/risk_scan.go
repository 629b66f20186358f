package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/acadtrack/acadtrack/internal/analytics"
)

// Enqueuer submits follow-up tasks, implemented by Client.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// RiskScanJob sweeps all active students and mails a digest of those whose
// marks or attendance have fallen through the risk floors.
type RiskScanJob struct {
	Analytics *analytics.Service
	Mailer    Enqueuer
	Recipient string
	Logger    *slog.Logger
}

// NewRiskScanJob wires dependencies for the scan handler.
func NewRiskScanJob(analyticsSvc *analytics.Service, mailer Enqueuer, recipient string, logger *slog.Logger) *RiskScanJob {
	return &RiskScanJob{Analytics: analyticsSvc, Mailer: mailer, Recipient: recipient, Logger: logger}
}

// Handle processes TaskTypeRiskScan tasks.
func (j *RiskScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("risk scan: handler not configured")
	}

	ids, err := j.Analytics.ActiveStudentIDs(ctx)
	if err != nil {
		return err
	}

	var lines []string
	for _, id := range ids {
		overview, err := j.Analytics.OverviewForScan(ctx, id)
		if err != nil {
			j.Logger.Warn("risk scan overview", slog.String("student_id", id), slog.Any("error", err))
			continue
		}
		if overview.Risk.Level == analytics.RiskNone {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)",
			id, overview.Risk.Level, strings.Join(overview.Risk.Reasons, "; ")))
	}

	j.Logger.Info("risk scan complete",
		slog.Int("students", len(ids)), slog.Int("flagged", len(lines)))

	if len(lines) == 0 || j.Mailer == nil || j.Recipient == "" {
		return nil
	}
	_, err = j.Mailer.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      j.Recipient,
		Subject: fmt.Sprintf("Risk digest: %d students flagged", len(lines)),
		Body:    strings.Join(lines, "\n"),
	})
	return err
}

// Package jobs contains background task definitions and the Asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRiskScan sweeps all active students for risk flags.
	TaskTypeRiskScan = "analytics:risk_scan"
	// TaskTypeAnalyticsWarmup pre-populates analytics caches.
	TaskTypeAnalyticsWarmup = "analytics:warmup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery via Mailpit in development.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// NewRiskScanTask constructs the nightly risk scan task.
func NewRiskScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRiskScan, nil)
}

// NewAnalyticsWarmupTask constructs the cache warmup task.
func NewAnalyticsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAnalyticsWarmup, nil)
}

package feedback

import (
	"context"
	"strings"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// RepositoryPort defines data access methods for feedback.
type RepositoryPort interface {
	Insert(ctx context.Context, senderID string, input MessageInput) (Message, error)
	Inbox(ctx context.Context, studentID string) ([]Message, error)
	Sent(ctx context.Context, senderID string) ([]Message, error)
	MarkRead(ctx context.Context, id, studentID string) error
}

// Service handles feedback business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *authz.Evaluator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, evaluator *authz.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// Send stores a message from the caller to a student. The route guard
// already requires the feedback permission; the check here keeps the rule
// intact for callers that bypass HTTP.
func (s *Service) Send(ctx context.Context, caller authz.AppUser, input MessageInput) (Message, error) {
	allowed, err := s.evaluator.HasPermission(ctx, caller.Role, authz.PermGiveFeedback)
	if err != nil {
		return Message{}, err
	}
	if !allowed {
		return Message{}, httpx.ErrForbidden
	}
	input.Body = strings.TrimSpace(input.Body)
	if input.Body == "" {
		return Message{}, httpx.ErrValidation
	}
	return s.repo.Insert(ctx, caller.ID, input)
}

// Inbox returns messages addressed to the caller.
func (s *Service) Inbox(ctx context.Context, caller authz.AppUser) ([]Message, error) {
	return s.repo.Inbox(ctx, caller.ID)
}

// Sent returns messages the caller wrote.
func (s *Service) Sent(ctx context.Context, caller authz.AppUser) ([]Message, error) {
	return s.repo.Sent(ctx, caller.ID)
}

// MarkRead stamps one of the caller's messages as read.
func (s *Service) MarkRead(ctx context.Context, caller authz.AppUser, id string) error {
	return s.repo.MarkRead(ctx, id, caller.ID)
}

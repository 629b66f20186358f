package marks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/masterdata"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// RepositoryPort defines data access methods for marks.
type RepositoryPort interface {
	FindMark(ctx context.Context, examID, studentID string) (Mark, error)
	InsertMark(ctx context.Context, input MarkInput, enteredBy string) (Mark, error)
	UpdateMark(ctx context.Context, id string, obtained int, remarks, enteredBy string) (Mark, error)
	ResultsForStudent(ctx context.Context, studentID string) ([]StudentResult, error)
	MarksheetForExam(ctx context.Context, examID string) ([]MarksheetRow, error)
	IsGuardian(ctx context.Context, parentID, studentID string) (bool, error)
}

// ExamSource resolves exams so entries can be validated against max marks.
type ExamSource interface {
	GetExam(ctx context.Context, id string) (masterdata.Exam, error)
}

// CacheInvalidator bumps caches that aggregate marks, so dashboards pick up
// new scores before the cache TTL expires.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles marks business logic.
type Service struct {
	repo      RepositoryPort
	exams     ExamSource
	evaluator *authz.Evaluator
	insights  CacheInvalidator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, exams ExamSource, evaluator *authz.Evaluator, insights CacheInvalidator) *Service {
	return &Service{repo: repo, exams: exams, evaluator: evaluator, insights: insights}
}

// EnterMark records a score for an (exam, student) pair. An existing row is
// overwritten; the returned flag reports whether that happened so callers can
// audit it.
func (s *Service) EnterMark(ctx context.Context, caller authz.AppUser, input MarkInput) (Mark, bool, error) {
	input.Remarks = strings.TrimSpace(input.Remarks)

	exam, err := s.exams.GetExam(ctx, input.ExamID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Mark{}, false, fmt.Errorf("%w: exam does not exist", httpx.ErrValidation)
		}
		return Mark{}, false, err
	}
	if input.Obtained < 0 || input.Obtained > exam.MaxMarks {
		return Mark{}, false, fmt.Errorf("%w: obtained marks must be between 0 and %d", httpx.ErrValidation, exam.MaxMarks)
	}

	existing, err := s.repo.FindMark(ctx, input.ExamID, input.StudentID)
	switch {
	case err == nil:
		mark, err := s.repo.UpdateMark(ctx, existing.ID, input.Obtained, input.Remarks, caller.ID)
		if err != nil {
			return Mark{}, true, err
		}
		s.bumpCaches(ctx)
		return mark, true, nil
	case errors.Is(err, httpx.ErrNotFound):
		mark, err := s.repo.InsertMark(ctx, input, caller.ID)
		if err != nil {
			return Mark{}, false, err
		}
		s.bumpCaches(ctx)
		return mark, false, nil
	default:
		return Mark{}, false, err
	}
}

// bumpCaches invalidates derived aggregates. A failure here means stale
// entries until the TTL expires, not a failed write.
func (s *Service) bumpCaches(ctx context.Context) {
	if s.insights == nil {
		return
	}
	_ = s.insights.Bump(ctx)
}

// ResultsForStudent returns a student's results. Students see their own rows
// through the ownership rule, parents see a linked child's rows, and staff
// need the analytics permission.
func (s *Service) ResultsForStudent(ctx context.Context, caller authz.AppUser, studentID string) ([]StudentResult, error) {
	allowed, err := s.evaluator.IsAuthorized(ctx, caller.ID, caller.Role, studentID, authz.PermViewAnalytics)
	if err != nil {
		return nil, err
	}
	if !allowed && caller.Role == authz.RoleParent {
		allowed, err = s.repo.IsGuardian(ctx, caller.ID, studentID)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, httpx.ErrForbidden
	}
	return s.repo.ResultsForStudent(ctx, studentID)
}

// MarksheetForExam returns all recorded marks for an exam.
func (s *Service) MarksheetForExam(ctx context.Context, examID string) (masterdata.Exam, []MarksheetRow, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return masterdata.Exam{}, nil, err
	}
	sheet, err := s.repo.MarksheetForExam(ctx, examID)
	if err != nil {
		return masterdata.Exam{}, nil, err
	}
	return exam, sheet, nil
}

package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// RepositoryPort defines data access methods for attendance.
type RepositoryPort interface {
	UpsertDay(ctx context.Context, subjectID string, day time.Time, entries []DayEntry, markedBy string) error
	DayRecords(ctx context.Context, subjectID string, day time.Time) ([]Record, error)
	SummaryForStudent(ctx context.Context, studentID string) ([]Summary, error)
	OverallPercentage(ctx context.Context, studentID string) (float64, error)
	IsGuardian(ctx context.Context, parentID, studentID string) (bool, error)
}

// CacheInvalidator bumps caches that aggregate attendance, so risk views
// pick up new records before the cache TTL expires.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles attendance business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *authz.Evaluator
	insights  CacheInvalidator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, evaluator *authz.Evaluator, insights CacheInvalidator) *Service {
	return &Service{repo: repo, evaluator: evaluator, insights: insights}
}

// MarkDay stores a whole class's attendance for one subject and day.
func (s *Service) MarkDay(ctx context.Context, caller authz.AppUser, input DayInput) error {
	day, err := time.Parse("2006-01-02", input.Day)
	if err != nil {
		return fmt.Errorf("%w: day must be YYYY-MM-DD", httpx.ErrValidation)
	}
	if day.After(time.Now()) {
		return fmt.Errorf("%w: cannot mark attendance for a future day", httpx.ErrValidation)
	}
	seen := make(map[string]struct{}, len(input.Entries))
	for _, entry := range input.Entries {
		if !entry.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, entry.Status)
		}
		if _, dup := seen[entry.StudentID]; dup {
			return fmt.Errorf("%w: duplicate student in entries", httpx.ErrValidation)
		}
		seen[entry.StudentID] = struct{}{}
	}
	if err := s.repo.UpsertDay(ctx, input.SubjectID, day, input.Entries, caller.ID); err != nil {
		return err
	}
	s.bumpCaches(ctx)
	return nil
}

// bumpCaches invalidates derived aggregates. A failure here means stale
// entries until the TTL expires, not a failed write.
func (s *Service) bumpCaches(ctx context.Context) {
	if s.insights == nil {
		return
	}
	_ = s.insights.Bump(ctx)
}

// DayRecords returns the stored records for one subject and day.
func (s *Service) DayRecords(ctx context.Context, subjectID string, day time.Time) ([]Record, error) {
	return s.repo.DayRecords(ctx, subjectID, day)
}

// SummaryForStudent returns per-subject attendance. Students see their own
// summary, linked parents their child's, and staff need the attendance
// permission.
func (s *Service) SummaryForStudent(ctx context.Context, caller authz.AppUser, studentID string) ([]Summary, error) {
	allowed, err := s.evaluator.IsAuthorized(ctx, caller.ID, caller.Role, studentID, authz.PermManageAttendance)
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
	return s.repo.SummaryForStudent(ctx, studentID)
}

// OverallPercentage returns a student's attendance across all subjects.
func (s *Service) OverallPercentage(ctx context.Context, studentID string) (float64, error) {
	return s.repo.OverallPercentage(ctx, studentID)
}

package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

type memRepo struct {
	// keyed by subject|student|day
	records   map[string]Status
	guardians map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]Status{}, guardians: map[string]string{}}
}

func (m *memRepo) UpsertDay(_ context.Context, subjectID string, day time.Time, entries []DayEntry, _ string) error {
	for _, entry := range entries {
		m.records[subjectID+"|"+entry.StudentID+"|"+day.Format("2006-01-02")] = entry.Status
	}
	return nil
}

func (m *memRepo) DayRecords(context.Context, string, time.Time) ([]Record, error) {
	return nil, nil
}

func (m *memRepo) SummaryForStudent(_ context.Context, studentID string) ([]Summary, error) {
	var total, present int
	for key, status := range m.records {
		if !strings.Contains(key, "|"+studentID+"|") {
			continue
		}
		total++
		if status == StatusPresent || status == StatusLate {
			present++
		}
	}
	if total == 0 {
		return nil, nil
	}
	return []Summary{{TotalDays: total, PresentDays: present, Percentage: float64(present) / float64(total) * 100}}, nil
}

func (m *memRepo) OverallPercentage(ctx context.Context, studentID string) (float64, error) {
	summaries, err := m.SummaryForStudent(ctx, studentID)
	if err != nil || len(summaries) == 0 {
		return 100, err
	}
	return summaries[0].Percentage, nil
}

func (m *memRepo) IsGuardian(_ context.Context, parentID, studentID string) (bool, error) {
	return m.guardians[parentID] == studentID, nil
}

type denyAllSource struct{}

func (denyAllSource) PermissionsForRole(_ context.Context, _ authz.Role) (map[authz.Permission]bool, error) {
	perms := map[authz.Permission]bool{}
	for _, p := range authz.AllPermissions() {
		perms[p] = false
	}
	return perms, nil
}

const (
	subjectID = "11111111-1111-4111-8111-111111111111"
	studentID = "22222222-2222-4222-8222-222222222222"
	teacherID = "33333333-3333-4333-8333-333333333333"
	parentID  = "44444444-4444-4444-8444-444444444444"
)

type bumpCounter struct{ calls int }

func (b *bumpCounter) Bump(context.Context) error {
	b.calls++
	return nil
}

func TestMarkDayValidation(t *testing.T) {
	svc := NewService(newMemRepo(), authz.NewEvaluator(denyAllSource{}), nil)
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	err := svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "not-a-date",
		Entries: []DayEntry{{StudentID: studentID, Status: StatusPresent}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	err = svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: tomorrow,
		Entries: []DayEntry{{StudentID: studentID, Status: StatusPresent}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "2026-08-01",
		Entries: []DayEntry{{StudentID: studentID, Status: "vanished"}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "2026-08-01",
		Entries: []DayEntry{
			{StudentID: studentID, Status: StatusPresent},
			{StudentID: studentID, Status: StatusAbsent},
		},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMarkDayOverwritesOnResubmit(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, authz.NewEvaluator(denyAllSource{}), nil)
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	err := svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "2026-08-01",
		Entries: []DayEntry{{StudentID: studentID, Status: StatusAbsent}},
	})
	require.NoError(t, err)

	err = svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "2026-08-01",
		Entries: []DayEntry{{StudentID: studentID, Status: StatusPresent}},
	})
	require.NoError(t, err)
	require.Len(t, repo.records, 1)
	require.Equal(t, StatusPresent, repo.records[subjectID+"|"+studentID+"|2026-08-01"])
}

func TestMarkDayBumpsDerivedCaches(t *testing.T) {
	svc := NewService(newMemRepo(), authz.NewEvaluator(denyAllSource{}), nil)
	bumps := &bumpCounter{}
	svc.insights = bumps
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	err := svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "2026-08-01",
		Entries: []DayEntry{{StudentID: studentID, Status: StatusPresent}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, bumps.calls)

	// A rejected submission leaves the cache version alone.
	err = svc.MarkDay(context.Background(), teacher, DayInput{
		SubjectID: subjectID, Day: "not-a-date",
		Entries: []DayEntry{{StudentID: studentID, Status: StatusPresent}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, 1, bumps.calls)
}

func TestSummaryAccess(t *testing.T) {
	repo := newMemRepo()
	repo.guardians[parentID] = studentID
	repo.records[subjectID+"|"+studentID+"|2026-08-01"] = StatusPresent
	repo.records[subjectID+"|"+studentID+"|2026-08-02"] = StatusAbsent
	svc := NewService(repo, authz.NewEvaluator(denyAllSource{}), nil)

	// Own summary is always readable.
	summaries, err := svc.SummaryForStudent(context.Background(),
		authz.AppUser{ID: studentID, Role: authz.RoleStudent}, studentID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.InDelta(t, 50.0, summaries[0].Percentage, 0.01)

	// Linked parent reads it, stranger does not.
	_, err = svc.SummaryForStudent(context.Background(),
		authz.AppUser{ID: parentID, Role: authz.RoleParent}, studentID)
	require.NoError(t, err)
	_, err = svc.SummaryForStudent(context.Background(),
		authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}, studentID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

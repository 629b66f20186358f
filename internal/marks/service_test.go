package marks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/masterdata"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

type memRepo struct {
	marks     map[string]Mark // keyed by exam_id|student_id
	guardians map[string]string
	seq       int
}

func newMemRepo() *memRepo {
	return &memRepo{marks: map[string]Mark{}, guardians: map[string]string{}}
}

func key(examID, studentID string) string { return examID + "|" + studentID }

func (m *memRepo) FindMark(_ context.Context, examID, studentID string) (Mark, error) {
	mark, ok := m.marks[key(examID, studentID)]
	if !ok {
		return Mark{}, httpx.ErrNotFound
	}
	return mark, nil
}

func (m *memRepo) InsertMark(_ context.Context, input MarkInput, enteredBy string) (Mark, error) {
	m.seq++
	mark := Mark{
		ID:        "mark-" + string(rune('a'+m.seq)),
		ExamID:    input.ExamID,
		StudentID: input.StudentID,
		Obtained:  input.Obtained,
		Remarks:   input.Remarks,
		EnteredBy: enteredBy,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.marks[key(input.ExamID, input.StudentID)] = mark
	return mark, nil
}

func (m *memRepo) UpdateMark(_ context.Context, id string, obtained int, remarks, enteredBy string) (Mark, error) {
	for k, mark := range m.marks {
		if mark.ID == id {
			mark.Obtained = obtained
			mark.Remarks = remarks
			mark.EnteredBy = enteredBy
			mark.UpdatedAt = time.Now()
			m.marks[k] = mark
			return mark, nil
		}
	}
	return Mark{}, httpx.ErrNotFound
}

func (m *memRepo) ResultsForStudent(_ context.Context, studentID string) ([]StudentResult, error) {
	var results []StudentResult
	for _, mark := range m.marks {
		if mark.StudentID == studentID {
			results = append(results, StudentResult{ExamID: mark.ExamID, Obtained: mark.Obtained, MaxMarks: 100})
		}
	}
	return results, nil
}

func (m *memRepo) MarksheetForExam(_ context.Context, examID string) ([]MarksheetRow, error) {
	var sheet []MarksheetRow
	for _, mark := range m.marks {
		if mark.ExamID == examID {
			sheet = append(sheet, MarksheetRow{StudentID: mark.StudentID, Obtained: mark.Obtained})
		}
	}
	return sheet, nil
}

func (m *memRepo) IsGuardian(_ context.Context, parentID, studentID string) (bool, error) {
	return m.guardians[parentID] == studentID, nil
}

type stubExams struct {
	exams map[string]masterdata.Exam
}

func (s *stubExams) GetExam(_ context.Context, id string) (masterdata.Exam, error) {
	exam, ok := s.exams[id]
	if !ok {
		return masterdata.Exam{}, httpx.ErrNotFound
	}
	return exam, nil
}

type grantsSource struct {
	grants map[authz.Role]map[authz.Permission]bool
}

func (s *grantsSource) PermissionsForRole(_ context.Context, role authz.Role) (map[authz.Permission]bool, error) {
	perms := map[authz.Permission]bool{}
	for _, p := range authz.AllPermissions() {
		perms[p] = s.grants[role][p]
	}
	return perms, nil
}

const (
	examID    = "8f8cbb7e-5f0f-4a13-9a6f-111111111111"
	studentID = "8f8cbb7e-5f0f-4a13-9a6f-222222222222"
	teacherID = "8f8cbb7e-5f0f-4a13-9a6f-333333333333"
	parentID  = "8f8cbb7e-5f0f-4a13-9a6f-444444444444"
)

func newTestService(repo *memRepo, grants map[authz.Role]map[authz.Permission]bool) *Service {
	exams := &stubExams{exams: map[string]masterdata.Exam{
		examID: {ID: examID, Name: "Midterm", MaxMarks: 100},
	}}
	evaluator := authz.NewEvaluator(&grantsSource{grants: grants})
	return NewService(repo, exams, evaluator, nil)
}

type bumpCounter struct{ calls int }

func (b *bumpCounter) Bump(context.Context) error {
	b.calls++
	return nil
}

func TestEnterMarkCreatesThenOverwrites(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	mark, overwritten, err := svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 72,
	})
	require.NoError(t, err)
	require.False(t, overwritten)
	require.Equal(t, 72, mark.Obtained)

	mark, overwritten, err = svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 85,
	})
	require.NoError(t, err)
	require.True(t, overwritten)
	require.Equal(t, 85, mark.Obtained)
	require.Len(t, repo.marks, 1)
}

func TestEnterMarkRejectsOutOfRange(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	_, _, err := svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 101,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestEnterMarkRejectsUnknownExam(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	_, _, err := svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: "8f8cbb7e-5f0f-4a13-9a6f-999999999999", StudentID: studentID, Obtained: 10,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestResultsOwnershipAndPermission(t *testing.T) {
	repo := newMemRepo()
	repo.guardians[parentID] = studentID
	grants := map[authz.Role]map[authz.Permission]bool{
		authz.RoleTeacher: {authz.PermViewAnalytics: true},
	}
	svc := newTestService(repo, grants)

	_, _, err := svc.EnterMark(context.Background(), authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 60,
	})
	require.NoError(t, err)

	// The student reads their own rows without any grant.
	results, err := svc.ResultsForStudent(context.Background(),
		authz.AppUser{ID: studentID, Role: authz.RoleStudent}, studentID)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// A different student is refused.
	_, err = svc.ResultsForStudent(context.Background(),
		authz.AppUser{ID: "8f8cbb7e-5f0f-4a13-9a6f-555555555555", Role: authz.RoleStudent}, studentID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// A linked parent is allowed, an unlinked one is not.
	_, err = svc.ResultsForStudent(context.Background(),
		authz.AppUser{ID: parentID, Role: authz.RoleParent}, studentID)
	require.NoError(t, err)
	_, err = svc.ResultsForStudent(context.Background(),
		authz.AppUser{ID: "8f8cbb7e-5f0f-4a13-9a6f-666666666666", Role: authz.RoleParent}, studentID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// Staff access rides on the analytics grant.
	_, err = svc.ResultsForStudent(context.Background(),
		authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}, studentID)
	require.NoError(t, err)
	_, err = svc.ResultsForStudent(context.Background(),
		authz.AppUser{ID: "8f8cbb7e-5f0f-4a13-9a6f-777777777777", Role: authz.RoleLabAssistant}, studentID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestEnterMarkBumpsDerivedCaches(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	bumps := &bumpCounter{}
	svc.insights = bumps
	teacher := authz.AppUser{ID: teacherID, Role: authz.RoleTeacher}

	_, _, err := svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 40,
	})
	require.NoError(t, err)
	require.Equal(t, 1, bumps.calls)

	// An overwrite bumps again so cached overviews reload.
	_, _, err = svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 55,
	})
	require.NoError(t, err)
	require.Equal(t, 2, bumps.calls)

	// A rejected entry leaves the cache version alone.
	_, _, err = svc.EnterMark(context.Background(), teacher, MarkInput{
		ExamID: examID, StudentID: studentID, Obtained: 101,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, 2, bumps.calls)
}

func TestEnterMarkSurfacesRepoErrors(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	// Exam source failure that is not a missing row propagates unchanged.
	svc.exams = &failingExams{err: errors.New("boom")}

	_, _, err := svc.EnterMark(context.Background(),
		authz.AppUser{ID: teacherID, Role: authz.RoleTeacher},
		MarkInput{ExamID: examID, StudentID: studentID, Obtained: 10})
	require.EqualError(t, err, "boom")
}

type failingExams struct{ err error }

func (f *failingExams) GetExam(context.Context, string) (masterdata.Exam, error) {
	return masterdata.Exam{}, f.err
}

package analytics

import (
	"context"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// RepositoryPort defines the aggregate queries the service relies on.
type RepositoryPort interface {
	SubjectAverages(ctx context.Context, studentID string) ([]SubjectPerformance, error)
	ScoreSeries(ctx context.Context, studentID string) ([]float64, error)
	ClassOverview(ctx context.Context) ([]StudentPerformance, error)
	ActiveStudentIDs(ctx context.Context) ([]string, error)
}

// AttendanceSource supplies the attendance side of risk assessment.
type AttendanceSource interface {
	OverallPercentage(ctx context.Context, studentID string) (float64, error)
}

// SubjectInsight is one subject's line in a student overview.
type SubjectInsight struct {
	SubjectPerformance
	Classification Classification `json:"classification"`
}

// StudentOverview is the full analytics view for one student.
type StudentOverview struct {
	StudentID      string           `json:"student_id"`
	Average        float64          `json:"average"`
	ExamCount      int              `json:"exam_count"`
	Classification Classification   `json:"classification"`
	Trend          Trend            `json:"trend"`
	AttendancePct  float64          `json:"attendance_pct"`
	Risk           RiskAssessment   `json:"risk"`
	Subjects       []SubjectInsight `json:"subjects"`
}

// ClassEntry is one student's line in the class overview.
type ClassEntry struct {
	StudentPerformance
	Classification Classification `json:"classification"`
}

// Service computes analytics views, caching them in Redis.
type Service struct {
	repo       RepositoryPort
	attendance AttendanceSource
	evaluator  *authz.Evaluator
	cache      *Cache
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, attendance AttendanceSource, evaluator *authz.Evaluator, cache *Cache) *Service {
	return &Service{repo: repo, attendance: attendance, evaluator: evaluator, cache: cache}
}

// StudentOverview assembles classification, trend and risk for one student.
// Students read their own overview through the ownership rule; staff need
// the analytics permission.
func (s *Service) StudentOverview(ctx context.Context, caller authz.AppUser, studentID string) (StudentOverview, error) {
	allowed, err := s.evaluator.IsAuthorized(ctx, caller.ID, caller.Role, studentID, authz.PermViewAnalytics)
	if err != nil {
		return StudentOverview{}, err
	}
	if !allowed {
		return StudentOverview{}, httpx.ErrForbidden
	}
	return s.buildStudentOverview(ctx, studentID)
}

// OverviewForScan assembles a student overview without a caller check, for
// background risk scans.
func (s *Service) OverviewForScan(ctx context.Context, studentID string) (StudentOverview, error) {
	return s.buildStudentOverview(ctx, studentID)
}

func (s *Service) buildStudentOverview(ctx context.Context, studentID string) (StudentOverview, error) {
	loader := func(ctx context.Context) (any, error) {
		subjects, err := s.repo.SubjectAverages(ctx, studentID)
		if err != nil {
			return nil, err
		}
		series, err := s.repo.ScoreSeries(ctx, studentID)
		if err != nil {
			return nil, err
		}
		attendancePct, err := s.attendance.OverallPercentage(ctx, studentID)
		if err != nil {
			return nil, err
		}

		overview := StudentOverview{
			StudentID:     studentID,
			Trend:         DetectTrend(series),
			AttendancePct: attendancePct,
		}
		var weighted float64
		for _, subj := range subjects {
			overview.Subjects = append(overview.Subjects, SubjectInsight{
				SubjectPerformance: subj,
				Classification:     Classify(subj.Average, subj.ExamCount),
			})
			weighted += subj.Average * float64(subj.ExamCount)
			overview.ExamCount += subj.ExamCount
		}
		if overview.ExamCount > 0 {
			overview.Average = weighted / float64(overview.ExamCount)
		}
		overview.Classification = Classify(overview.Average, overview.ExamCount)
		overview.Risk = AssessRisk(overview.Average, overview.ExamCount, attendancePct)
		return overview, nil
	}

	key, err := s.cache.BuildKey(ctx, keyStudentOverview(studentID))
	if err != nil {
		return StudentOverview{}, err
	}
	var overview StudentOverview
	if err := s.cache.FetchJSON(ctx, key, &overview, loader); err != nil {
		return StudentOverview{}, err
	}
	return overview, nil
}

// ClassOverview returns every active student's average and classification.
func (s *Service) ClassOverview(ctx context.Context) ([]ClassEntry, error) {
	loader := func(ctx context.Context) (any, error) {
		perfs, err := s.repo.ClassOverview(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]ClassEntry, 0, len(perfs))
		for _, p := range perfs {
			entries = append(entries, ClassEntry{
				StudentPerformance: p,
				Classification:     Classify(p.Average, p.ExamCount),
			})
		}
		return entries, nil
	}

	key, err := s.cache.BuildKey(ctx, keyClassOverview())
	if err != nil {
		return nil, err
	}
	var entries []ClassEntry
	if err := s.cache.FetchJSON(ctx, key, &entries, loader); err != nil {
		return nil, err
	}
	return entries, nil
}

// ActiveStudentIDs exposes the scan population for background jobs.
func (s *Service) ActiveStudentIDs(ctx context.Context) ([]string, error) {
	return s.repo.ActiveStudentIDs(ctx)
}

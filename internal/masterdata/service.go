package masterdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// RepositoryPort defines data access methods for master data.
type RepositoryPort interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
	CreateSubject(ctx context.Context, input SubjectInput) (Subject, error)
	UpdateSubject(ctx context.Context, id string, input SubjectInput) (Subject, error)
	DeleteSubject(ctx context.Context, id string) error
	ListExams(ctx context.Context, subjectID string) ([]Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	CreateExam(ctx context.Context, input ExamInput) (Exam, error)
	UpdateExam(ctx context.Context, id string, input ExamInput) (Exam, error)
	DeleteExam(ctx context.Context, id string) error
}

// Service handles master data business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListSubjects returns all subjects.
func (s *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return s.repo.ListSubjects(ctx)
}

// CreateSubject validates and inserts a subject.
func (s *Service) CreateSubject(ctx context.Context, input SubjectInput) (Subject, error) {
	normalizeSubject(&input)
	return s.repo.CreateSubject(ctx, input)
}

// UpdateSubject validates and updates a subject.
func (s *Service) UpdateSubject(ctx context.Context, id string, input SubjectInput) (Subject, error) {
	normalizeSubject(&input)
	return s.repo.UpdateSubject(ctx, id, input)
}

// DeleteSubject removes a subject.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	return s.repo.DeleteSubject(ctx, id)
}

// ListExams returns exams, optionally for one subject.
func (s *Service) ListExams(ctx context.Context, subjectID string) ([]Exam, error) {
	return s.repo.ListExams(ctx, subjectID)
}

// GetExam fetches one exam.
func (s *Service) GetExam(ctx context.Context, id string) (Exam, error) {
	return s.repo.GetExam(ctx, id)
}

// CreateExam validates and inserts an exam.
func (s *Service) CreateExam(ctx context.Context, input ExamInput) (Exam, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.MaxMarks <= 0 {
		return Exam{}, fmt.Errorf("%w: max marks must be positive", httpx.ErrValidation)
	}
	return s.repo.CreateExam(ctx, input)
}

// UpdateExam validates and updates an exam.
func (s *Service) UpdateExam(ctx context.Context, id string, input ExamInput) (Exam, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.MaxMarks <= 0 {
		return Exam{}, fmt.Errorf("%w: max marks must be positive", httpx.ErrValidation)
	}
	return s.repo.UpdateExam(ctx, id, input)
}

// DeleteExam removes an exam.
func (s *Service) DeleteExam(ctx context.Context, id string) error {
	return s.repo.DeleteExam(ctx, id)
}

func normalizeSubject(input *SubjectInput) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)
	input.Department = strings.TrimSpace(input.Department)
}

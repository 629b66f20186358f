package masterdata

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSubjects returns all subjects ordered by code.
func (r *Repository) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, department, semester, created_at, updated_at FROM subjects ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Department, &s.Semester, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// CreateSubject inserts a subject.
func (r *Repository) CreateSubject(ctx context.Context, input SubjectInput) (Subject, error) {
	var s Subject
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subjects (id, code, name, department, semester, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING id, code, name, department, semester, created_at, updated_at`,
		uuid.NewString(), input.Code, input.Name, input.Department, input.Semester).
		Scan(&s.ID, &s.Code, &s.Name, &s.Department, &s.Semester, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return Subject{}, httpx.ErrDuplicate
		}
		return Subject{}, err
	}
	return s, nil
}

// UpdateSubject updates a subject by ID.
func (r *Repository) UpdateSubject(ctx context.Context, id string, input SubjectInput) (Subject, error) {
	var s Subject
	err := r.pool.QueryRow(ctx,
		`UPDATE subjects SET code = $2, name = $3, department = $4, semester = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, code, name, department, semester, created_at, updated_at`,
		id, input.Code, input.Name, input.Department, input.Semester).
		Scan(&s.ID, &s.Code, &s.Name, &s.Department, &s.Semester, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subject{}, httpx.ErrNotFound
		}
		return Subject{}, err
	}
	return s, nil
}

// DeleteSubject removes a subject by ID.
func (r *Repository) DeleteSubject(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			// Referenced by exams or marks; surface as a validation problem.
			return httpx.ErrValidation
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListExams returns exams, optionally scoped to one subject.
func (r *Repository) ListExams(ctx context.Context, subjectID string) ([]Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, name, exam_date, max_marks, created_at, updated_at
		 FROM exams
		 WHERE ($1 = '' OR subject_id = $1::uuid)
		 ORDER BY exam_date DESC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []Exam
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Name, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// GetExam fetches one exam.
func (r *Repository) GetExam(ctx context.Context, id string) (Exam, error) {
	var e Exam
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, name, exam_date, max_marks, created_at, updated_at FROM exams WHERE id = $1`, id).
		Scan(&e.ID, &e.SubjectID, &e.Name, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Exam{}, httpx.ErrNotFound
		}
		return Exam{}, err
	}
	return e, nil
}

// CreateExam inserts an exam.
func (r *Repository) CreateExam(ctx context.Context, input ExamInput) (Exam, error) {
	var e Exam
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, subject_id, name, exam_date, max_marks, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING id, subject_id, name, exam_date, max_marks, created_at, updated_at`,
		uuid.NewString(), input.SubjectID, input.Name, input.ExamDate, input.MaxMarks).
		Scan(&e.ID, &e.SubjectID, &e.Name, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			switch pgErr.Code {
			case "23505":
				return Exam{}, httpx.ErrDuplicate
			case "23503":
				return Exam{}, httpx.ErrValidation
			}
		}
		return Exam{}, err
	}
	return e, nil
}

// UpdateExam updates an exam by ID.
func (r *Repository) UpdateExam(ctx context.Context, id string, input ExamInput) (Exam, error) {
	var e Exam
	err := r.pool.QueryRow(ctx,
		`UPDATE exams SET subject_id = $2, name = $3, exam_date = $4, max_marks = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, subject_id, name, exam_date, max_marks, created_at, updated_at`,
		id, input.SubjectID, input.Name, input.ExamDate, input.MaxMarks).
		Scan(&e.ID, &e.SubjectID, &e.Name, &e.ExamDate, &e.MaxMarks, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Exam{}, httpx.ErrNotFound
		}
		return Exam{}, err
	}
	return e, nil
}

// DeleteExam removes an exam by ID.
func (r *Repository) DeleteExam(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return httpx.ErrValidation
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

package marks

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

// FindMark returns the stored mark for an (exam, student) pair.
func (r *Repository) FindMark(ctx context.Context, examID, studentID string) (Mark, error) {
	var m Mark
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, obtained, COALESCE(remarks, ''), entered_by, created_at, updated_at
		 FROM marks WHERE exam_id = $1 AND student_id = $2`, examID, studentID).
		Scan(&m.ID, &m.ExamID, &m.StudentID, &m.Obtained, &m.Remarks, &m.EnteredBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mark{}, httpx.ErrNotFound
		}
		return Mark{}, err
	}
	return m, nil
}

// InsertMark stores a new mark row.
func (r *Repository) InsertMark(ctx context.Context, input MarkInput, enteredBy string) (Mark, error) {
	var m Mark
	err := r.pool.QueryRow(ctx,
		`INSERT INTO marks (id, exam_id, student_id, obtained, remarks, entered_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NOW(), NOW())
		 RETURNING id, exam_id, student_id, obtained, COALESCE(remarks, ''), entered_by, created_at, updated_at`,
		uuid.NewString(), input.ExamID, input.StudentID, input.Obtained, input.Remarks, enteredBy).
		Scan(&m.ID, &m.ExamID, &m.StudentID, &m.Obtained, &m.Remarks, &m.EnteredBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			switch pgErr.Code {
			case "23505":
				return Mark{}, httpx.ErrDuplicate
			case "23503":
				return Mark{}, httpx.ErrValidation
			}
		}
		return Mark{}, err
	}
	return m, nil
}

// UpdateMark overwrites the score of an existing row.
func (r *Repository) UpdateMark(ctx context.Context, id string, obtained int, remarks, enteredBy string) (Mark, error) {
	var m Mark
	err := r.pool.QueryRow(ctx,
		`UPDATE marks SET obtained = $2, remarks = NULLIF($3, ''), entered_by = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, exam_id, student_id, obtained, COALESCE(remarks, ''), entered_by, created_at, updated_at`,
		id, obtained, remarks, enteredBy).
		Scan(&m.ID, &m.ExamID, &m.StudentID, &m.Obtained, &m.Remarks, &m.EnteredBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mark{}, httpx.ErrNotFound
		}
		return Mark{}, err
	}
	return m, nil
}

// ResultsForStudent returns a student's results newest first.
func (r *Repository) ResultsForStudent(ctx context.Context, studentID string) ([]StudentResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.exam_id, e.name, s.code, s.name, e.exam_date, m.obtained, e.max_marks
		 FROM marks m
		 JOIN exams e ON e.id = m.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 WHERE m.student_id = $1
		 ORDER BY e.exam_date DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []StudentResult
	for rows.Next() {
		var res StudentResult
		if err := rows.Scan(&res.ExamID, &res.ExamName, &res.SubjectCode, &res.SubjectName,
			&res.ExamDate, &res.Obtained, &res.MaxMarks); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// MarksheetForExam returns every recorded mark for an exam ordered by
// student name.
func (r *Repository) MarksheetForExam(ctx context.Context, examID string) ([]MarksheetRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.student_id, u.full_name, m.obtained, COALESCE(m.remarks, '')
		 FROM marks m
		 JOIN users u ON u.id = m.student_id
		 WHERE m.exam_id = $1
		 ORDER BY u.full_name`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheet []MarksheetRow
	for rows.Next() {
		var row MarksheetRow
		if err := rows.Scan(&row.StudentID, &row.StudentName, &row.Obtained, &row.Remarks); err != nil {
			return nil, err
		}
		sheet = append(sheet, row)
	}
	return sheet, rows.Err()
}

// IsGuardian reports whether parentID is linked to studentID.
func (r *Repository) IsGuardian(ctx context.Context, parentID, studentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM guardians WHERE parent_id = $1 AND student_id = $2)`,
		parentID, studentID).Scan(&exists)
	return exists, err
}

package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
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

// UpsertDay stores a full day's records for a subject. Existing rows for the
// same (subject, student, day) are overwritten so a correction re-submit just
// works.
func (r *Repository) UpsertDay(ctx context.Context, subjectID string, day time.Time, entries []DayEntry, markedBy string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, entry := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO attendance (id, subject_id, student_id, day, status, marked_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			 ON CONFLICT (subject_id, student_id, day)
			 DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = NOW()`,
			uuid.NewString(), subjectID, entry.StudentID, day, entry.Status, markedBy)
		if err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
				return httpx.ErrValidation
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

// DayRecords returns the stored records for one subject and day.
func (r *Repository) DayRecords(ctx context.Context, subjectID string, day time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.subject_id, a.student_id, a.day, a.status, a.marked_by, a.created_at, a.updated_at
		 FROM attendance a
		 JOIN users u ON u.id = a.student_id
		 WHERE a.subject_id = $1 AND a.day = $2
		 ORDER BY u.full_name`, subjectID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SubjectID, &rec.StudentID, &rec.Day, &rec.Status,
			&rec.MarkedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SummaryForStudent aggregates per-subject attendance for one student. Late
// counts as attended.
func (r *Repository) SummaryForStudent(ctx context.Context, studentID string) ([]Summary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.code, s.name,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE a.status IN ('present', 'late'))
		 FROM attendance a
		 JOIN subjects s ON s.id = a.subject_id
		 WHERE a.student_id = $1
		 GROUP BY s.id, s.code, s.name
		 ORDER BY s.code`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.SubjectID, &sum.SubjectCode, &sum.SubjectName, &sum.TotalDays, &sum.PresentDays); err != nil {
			return nil, err
		}
		if sum.TotalDays > 0 {
			sum.Percentage = float64(sum.PresentDays) / float64(sum.TotalDays) * 100
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// OverallPercentage returns a student's attendance across all subjects, or
// 100 when nothing has been marked yet.
func (r *Repository) OverallPercentage(ctx context.Context, studentID string) (float64, error) {
	var total, present int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status IN ('present', 'late'))
		 FROM attendance WHERE student_id = $1`, studentID).Scan(&total, &present)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 100, nil
	}
	return float64(present) / float64(total) * 100, nil
}

// IsGuardian reports whether parentID is linked to studentID.
func (r *Repository) IsGuardian(ctx context.Context, parentID, studentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM guardians WHERE parent_id = $1 AND student_id = $2)`,
		parentID, studentID).Scan(&exists)
	return exists, err
}

package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubjectPerformance aggregates one student's scores in one subject.
type SubjectPerformance struct {
	SubjectID   string  `json:"subject_id"`
	SubjectCode string  `json:"subject_code"`
	SubjectName string  `json:"subject_name"`
	Average     float64 `json:"average"`
	ExamCount   int     `json:"exam_count"`
}

// StudentPerformance aggregates one student's scores across all subjects.
type StudentPerformance struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Average     float64 `json:"average"`
	ExamCount   int     `json:"exam_count"`
}

// Repository provides PostgreSQL backed aggregate queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SubjectAverages returns a student's per-subject average percentage.
func (r *Repository) SubjectAverages(ctx context.Context, studentID string) ([]SubjectPerformance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.code, s.name,
		        AVG(m.obtained * 100.0 / e.max_marks),
		        COUNT(*)
		 FROM marks m
		 JOIN exams e ON e.id = m.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 WHERE m.student_id = $1
		 GROUP BY s.id, s.code, s.name
		 ORDER BY s.code`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perfs []SubjectPerformance
	for rows.Next() {
		var p SubjectPerformance
		if err := rows.Scan(&p.SubjectID, &p.SubjectCode, &p.SubjectName, &p.Average, &p.ExamCount); err != nil {
			return nil, err
		}
		perfs = append(perfs, p)
	}
	return perfs, rows.Err()
}

// ScoreSeries returns a student's exam percentages in chronological order.
func (r *Repository) ScoreSeries(ctx context.Context, studentID string) ([]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.obtained * 100.0 / e.max_marks
		 FROM marks m
		 JOIN exams e ON e.id = m.exam_id
		 WHERE m.student_id = $1
		 ORDER BY e.exam_date, e.created_at`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []float64
	for rows.Next() {
		var pct float64
		if err := rows.Scan(&pct); err != nil {
			return nil, err
		}
		series = append(series, pct)
	}
	return series, rows.Err()
}

// ClassOverview returns every student's overall average, best first.
func (r *Repository) ClassOverview(ctx context.Context) ([]StudentPerformance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name,
		        AVG(m.obtained * 100.0 / e.max_marks),
		        COUNT(*)
		 FROM marks m
		 JOIN exams e ON e.id = m.exam_id
		 JOIN users u ON u.id = m.student_id
		 WHERE u.role = 'student' AND u.is_active
		 GROUP BY u.id, u.full_name
		 ORDER BY 3 DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perfs []StudentPerformance
	for rows.Next() {
		var p StudentPerformance
		if err := rows.Scan(&p.StudentID, &p.StudentName, &p.Average, &p.ExamCount); err != nil {
			return nil, err
		}
		perfs = append(perfs, p)
	}
	return perfs, rows.Err()
}

// ActiveStudentIDs returns every active student, used by background scans.
func (r *Repository) ActiveStudentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM users WHERE role = 'student' AND is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

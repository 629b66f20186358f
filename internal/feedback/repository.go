package feedback

import (
	"context"

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

// Insert stores a message.
func (r *Repository) Insert(ctx context.Context, senderID string, input MessageInput) (Message, error) {
	var msg Message
	err := r.pool.QueryRow(ctx,
		`INSERT INTO feedback (id, sender_id, student_id, subject_id, body, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, NOW())
		 RETURNING id, sender_id, student_id, COALESCE(subject_id::text, ''), body, created_at`,
		uuid.NewString(), senderID, input.StudentID, input.SubjectID, input.Body).
		Scan(&msg.ID, &msg.SenderID, &msg.StudentID, &msg.SubjectID, &msg.Body, &msg.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return Message{}, httpx.ErrValidation
		}
		return Message{}, err
	}
	return msg, nil
}

// Inbox returns messages sent to a student, newest first.
func (r *Repository) Inbox(ctx context.Context, studentID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.id, f.sender_id, u.full_name, f.student_id, COALESCE(f.subject_id::text, ''),
		        f.body, COALESCE(f.read_at, 'epoch'::timestamptz), f.created_at
		 FROM feedback f
		 JOIN users u ON u.id = f.sender_id
		 WHERE f.student_id = $1
		 ORDER BY f.created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Sent returns messages a sender wrote, newest first.
func (r *Repository) Sent(ctx context.Context, senderID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.id, f.sender_id, u.full_name, f.student_id, COALESCE(f.subject_id::text, ''),
		        f.body, COALESCE(f.read_at, 'epoch'::timestamptz), f.created_at
		 FROM feedback f
		 JOIN users u ON u.id = f.student_id
		 WHERE f.sender_id = $1
		 ORDER BY f.created_at DESC`, senderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MarkRead stamps a message read if it belongs to the student.
func (r *Repository) MarkRead(ctx context.Context, id, studentID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE feedback SET read_at = NOW() WHERE id = $1 AND student_id = $2 AND read_at IS NULL`,
		id, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderName, &msg.StudentID, &msg.SubjectID,
			&msg.Body, &msg.ReadAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Package feedback implements short messages from staff to students.
package feedback

import "time"

// Message is one feedback note.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	StudentID  string    `json:"student_id"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Body       string    `json:"body"`
	ReadAt     time.Time `json:"read_at,omitzero"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageInput carries a send request.
type MessageInput struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	SubjectID string `json:"subject_id" validate:"omitempty,uuid4"`
	Body      string `json:"body" validate:"required,max=2000"`
}

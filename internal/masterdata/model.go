// Package masterdata manages the academic reference records behind the
// settings pages: subjects and exams.
package masterdata

import "time"

// Subject is a taught course unit.
type Subject struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Semester   int       `json:"semester"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Exam is a scheduled assessment for a subject.
type Exam struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Name      string    `json:"name"`
	ExamDate  time.Time `json:"exam_date"`
	MaxMarks  int       `json:"max_marks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubjectInput carries create/update fields for a subject.
type SubjectInput struct {
	Code       string `json:"code" validate:"required,min=2,max=16"`
	Name       string `json:"name" validate:"required,min=2,max=120"`
	Department string `json:"department" validate:"required,min=2,max=80"`
	Semester   int    `json:"semester" validate:"required,min=1,max=12"`
}

// ExamInput carries create/update fields for an exam.
type ExamInput struct {
	SubjectID string    `json:"subject_id" validate:"required,uuid4"`
	Name      string    `json:"name" validate:"required,min=2,max=120"`
	ExamDate  time.Time `json:"exam_date" validate:"required"`
	MaxMarks  int       `json:"max_marks" validate:"required,min=1,max=1000"`
}

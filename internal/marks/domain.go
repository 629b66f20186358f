// Package marks implements exam marks entry and result views.
package marks

import "time"

// Mark is one student's score for one exam. The (exam, student) pair is
// unique; re-entering a mark overwrites the previous value.
type Mark struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	StudentID string    `json:"student_id"`
	Obtained  int       `json:"obtained"`
	Remarks   string    `json:"remarks,omitempty"`
	EnteredBy string    `json:"entered_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkInput carries an entry request.
type MarkInput struct {
	ExamID    string `json:"exam_id" validate:"required,uuid4"`
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Obtained  int    `json:"obtained" validate:"min=0"`
	Remarks   string `json:"remarks" validate:"max=500"`
}

// StudentResult is one row of a student's result view.
type StudentResult struct {
	ExamID      string    `json:"exam_id"`
	ExamName    string    `json:"exam_name"`
	SubjectCode string    `json:"subject_code"`
	SubjectName string    `json:"subject_name"`
	ExamDate    time.Time `json:"exam_date"`
	Obtained    int       `json:"obtained"`
	MaxMarks    int       `json:"max_marks"`
}

// MarksheetRow is one student's line in an exam marksheet.
type MarksheetRow struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Obtained    int    `json:"obtained"`
	Remarks     string `json:"remarks,omitempty"`
}

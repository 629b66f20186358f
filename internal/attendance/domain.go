// Package attendance implements daily attendance marking and summaries.
package attendance

import "time"

// Status is a day's attendance outcome for one student.
type Status string

// Attendance statuses.
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Record is one student's attendance for one subject on one day.
type Record struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	StudentID string    `json:"student_id"`
	Day       time.Time `json:"day"`
	Status    Status    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayEntry is one student's line in a bulk marking request.
type DayEntry struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Status    Status `json:"status" validate:"required"`
}

// DayInput marks a whole class for one subject and day in one request.
type DayInput struct {
	SubjectID string     `json:"subject_id" validate:"required,uuid4"`
	Day       string     `json:"day" validate:"required,datetime=2006-01-02"`
	Entries   []DayEntry `json:"entries" validate:"required,min=1,dive"`
}

// Summary aggregates a student's attendance for one subject.
type Summary struct {
	SubjectID   string  `json:"subject_id"`
	SubjectCode string  `json:"subject_code"`
	SubjectName string  `json:"subject_name"`
	TotalDays   int     `json:"total_days"`
	PresentDays int     `json:"present_days"`
	Percentage  float64 `json:"percentage"`
}

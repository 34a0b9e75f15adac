package models

import (
	"fmt"
	"time"
)

// TimetableEntry places one subject lesson for a class in a room and slot.
type TimetableEntry struct {
	ID            string    `db:"id" json:"id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	FacultyID     string    `db:"faculty_id" json:"faculty_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	ClassroomID   string    `db:"classroom_id" json:"classroom_id"`
	TimeSlotID    string    `db:"time_slot_id" json:"time_slot_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	EffectiveFrom time.Time `db:"effective_from" json:"effective_from"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableEntryDetail joins an entry with the labels needed by timetable views.
type TimetableEntryDetail struct {
	TimetableEntry
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	SubjectCode   string  `db:"subject_code" json:"subject_code"`
	Credits       int     `db:"credits" json:"credits"`
	FacultyName   string  `db:"faculty_name" json:"faculty_name"`
	ClassName     string  `db:"class_name" json:"class_name"`
	ClassSection  string  `db:"class_section" json:"class_section"`
	ClassroomName string  `db:"classroom_name" json:"classroom_name"`
	RoomNumber    string  `db:"room_number" json:"room_number"`
	RoomLocation  *string `db:"room_location" json:"room_location,omitempty"`
	DayOfWeek     Weekday `db:"day_of_week" json:"day_of_week"`
	StartTime     string  `db:"start_time" json:"start_time"`
	EndTime       string  `db:"end_time" json:"end_time"`
}

// ConflictReason is the machine-readable category of a hard-constraint violation.
type ConflictReason string

const (
	ConflictFacultyDoubleBooked  ConflictReason = "FACULTY_DOUBLE_BOOKED"
	ConflictRoomDoubleBooked     ConflictReason = "ROOM_DOUBLE_BOOKED"
	ConflictClassDoubleBooked    ConflictReason = "CLASS_DOUBLE_BOOKED"
	ConflictRoomTypeMismatch     ConflictReason = "ROOM_TYPE_MISMATCH"
	ConflictRoomCapacityExceeded ConflictReason = "ROOM_CAPACITY_EXCEEDED"
)

// Conflict is one violation. Conflicting is nil for violations that do not involve
// another entry (room type and capacity).
type Conflict struct {
	Candidate   TimetableEntry  `json:"candidate"`
	Conflicting *TimetableEntry `json:"conflicting,omitempty"`
	Reason      ConflictReason  `json:"reason"`
	Message     string          `json:"message"`
}

// ConflictReport is the outcome of checking one candidate entry.
type ConflictReport struct {
	Conflicts []Conflict `json:"conflicts"`
}

// HasConflicts reports whether any violation was found.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Reasons lists the reason of every conflict in report order.
func (r ConflictReport) Reasons() []ConflictReason {
	reasons := make([]ConflictReason, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		reasons = append(reasons, c.Reason)
	}
	return reasons
}

// Has reports whether the report contains reason.
func (r ConflictReport) Has(reason ConflictReason) bool {
	for _, c := range r.Conflicts {
		if c.Reason == reason {
			return true
		}
	}
	return false
}

// Messages lists the human-readable message of every conflict.
func (r ConflictReport) Messages() []string {
	messages := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		messages = append(messages, c.Message)
	}
	return messages
}

// Add appends a conflict with a formatted message.
func (r *ConflictReport) Add(candidate TimetableEntry, conflicting *TimetableEntry, reason ConflictReason, format string, args ...interface{}) {
	r.Conflicts = append(r.Conflicts, Conflict{
		Candidate:   candidate,
		Conflicting: conflicting,
		Reason:      reason,
		Message:     fmt.Sprintf(format, args...),
	})
}

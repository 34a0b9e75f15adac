package dto

import "github.com/noah-isme/timetable-api/internal/models"

// GenerateTimetableRequest asks the generator to build a timetable for one class and year.
type GenerateTimetableRequest struct {
	ClassID      string `json:"classId" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"omitempty,academic_year"`
	// EffectiveFrom is an ISO date (2006-01-02). Defaults to today.
	EffectiveFrom   string `json:"effectiveFrom" validate:"omitempty,datetime=2006-01-02"`
	ReplaceExisting bool   `json:"replaceExisting"`
}

// GenerateTimetableResponse is returned by synchronous generation.
type GenerateTimetableResponse struct {
	RunID       string                         `json:"runId"`
	Status      models.RunStatus               `json:"status"`
	Policy      models.SlotPolicy              `json:"policy"`
	Entries     []models.TimetableEntry        `json:"entries"`
	Unscheduled []models.UnscheduledObligation `json:"unscheduled"`
	Partial     bool                           `json:"partial"`
	Aborted     bool                           `json:"aborted"`
}

// AsyncRunResponse acknowledges an enqueued generation run.
type AsyncRunResponse struct {
	RunID  string           `json:"runId"`
	Status models.RunStatus `json:"status"`
}

// SaveTimetableRequest persists a previewed run.
type SaveTimetableRequest struct {
	RunID string `json:"runId" validate:"required"`
}

// SaveTimetableResponse reports what Save wrote.
type SaveTimetableResponse struct {
	RunID       string `json:"runId"`
	Inserted    int    `json:"inserted"`
	Deactivated int64  `json:"deactivated"`
}

// ConflictCheckRequest describes a candidate entry to check against persisted rows.
type ConflictCheckRequest struct {
	SubjectID      string `json:"subjectId" validate:"required"`
	FacultyID      string `json:"facultyId" validate:"required"`
	ClassID        string `json:"classId" validate:"required"`
	ClassroomID    string `json:"classroomId" validate:"required"`
	TimeSlotID     string `json:"timeSlotId" validate:"required"`
	AcademicYear   string `json:"academicYear" validate:"omitempty,academic_year"`
	ExcludeEntryID string `json:"excludeEntryId"`
}

// ConflictRecord is one conflict in API form.
type ConflictRecord struct {
	Reason             models.ConflictReason `json:"reason"`
	ConflictMessage    string                `json:"conflict_message"`
	ConflictingEntryID string                `json:"conflicting_entry_id,omitempty"`
}

// ConflictCheckResponse wraps the records of a conflict check.
type ConflictCheckResponse struct {
	Clear     bool             `json:"clear"`
	Conflicts []ConflictRecord `json:"conflicts"`
}

// CreateEntryRequest adds a manual timetable entry.
type CreateEntryRequest struct {
	SubjectID     string `json:"subjectId" validate:"required"`
	FacultyID     string `json:"facultyId" validate:"required"`
	ClassID       string `json:"classId" validate:"required"`
	ClassroomID   string `json:"classroomId" validate:"required"`
	TimeSlotID    string `json:"timeSlotId" validate:"required"`
	AcademicYear  string `json:"academicYear" validate:"omitempty,academic_year"`
	EffectiveFrom string `json:"effectiveFrom" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateEntryRequest changes fields of an existing entry. Empty fields keep their value.
type UpdateEntryRequest struct {
	SubjectID     *string `json:"subjectId" validate:"omitempty,min=1"`
	FacultyID     *string `json:"facultyId" validate:"omitempty,min=1"`
	ClassroomID   *string `json:"classroomId" validate:"omitempty,min=1"`
	TimeSlotID    *string `json:"timeSlotId" validate:"omitempty,min=1"`
	EffectiveFrom *string `json:"effectiveFrom" validate:"omitempty,datetime=2006-01-02"`
	IsActive      *bool   `json:"isActive"`
}

// TimetableQuery filters timetable views.
type TimetableQuery struct {
	AcademicYear string `form:"academicYear"`
}

package models

import "time"

// Obligation is one weekly contact hour a faculty member owes for a subject.
type Obligation struct {
	FacultyID string `json:"faculty_id"`
	SubjectID string `json:"subject_id"`
	// Hour is the 1-based index of this obligation among the subject's credits.
	Hour int `json:"hour"`
}

// UnscheduledReason categorises why an obligation could not be placed.
type UnscheduledReason string

const (
	UnscheduledNoCompatibleRoom   UnscheduledReason = "NO_COMPATIBLE_ROOM"
	UnscheduledNoFreeSlot         UnscheduledReason = "NO_FREE_SLOT"
	UnscheduledPersistentConflict UnscheduledReason = "PERSISTENT_CONFLICT"
	UnscheduledRunAborted         UnscheduledReason = "RUN_ABORTED"
)

// UnscheduledObligation is an obligation the scheduler gave up on.
type UnscheduledObligation struct {
	Obligation
	Reason UnscheduledReason `json:"reason"`
	// LastConflicts holds the reasons seen on the last rejected candidate, if any.
	LastConflicts []ConflictReason `json:"last_conflicts,omitempty"`
}

// SlotPolicy controls how slot usage is tracked during a run.
type SlotPolicy string

const (
	// SlotPolicyGlobal places at most one entry per time slot per run.
	SlotPolicyGlobal SlotPolicy = "global"
	// SlotPolicyRoom tracks usage per (classroom, time slot) pair.
	SlotPolicyRoom SlotPolicy = "room"
)

// GenerationResult is the (possibly partial) output of one generation run.
type GenerationResult struct {
	RunID           string                  `json:"run_id"`
	ClassID         string                  `json:"class_id"`
	AcademicYear    string                  `json:"academic_year"`
	EffectiveFrom   time.Time               `json:"effective_from"`
	ReplaceExisting bool                    `json:"replace_existing"`
	Policy          SlotPolicy              `json:"policy"`
	Entries         []TimetableEntry        `json:"entries"`
	Unscheduled     []UnscheduledObligation `json:"unscheduled"`
	Aborted         bool                    `json:"aborted"`
	StartedAt       time.Time               `json:"started_at"`
	FinishedAt      time.Time               `json:"finished_at"`
}

// Partial reports whether some obligations were left unscheduled.
func (r GenerationResult) Partial() bool {
	return len(r.Unscheduled) > 0
}

// RunStatus tracks the lifecycle of a generation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusSaving    RunStatus = "SAVING"
	RunStatusSaved     RunStatus = "SAVED"
)

// GenerationRun is the stored state of a run, used for previews and async jobs.
type GenerationRun struct {
	RunID        string            `json:"run_id"`
	ClassID      string            `json:"class_id"`
	AcademicYear string            `json:"academic_year"`
	Status       RunStatus         `json:"status"`
	Result       *GenerationResult `json:"result,omitempty"`
	Error        string            `json:"error,omitempty"`
	RequestedAt  time.Time         `json:"requested_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

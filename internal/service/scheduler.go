package service

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// scheduleInput is everything one greedy pass needs. The pass owns its slot usage
// and committed entries; nothing is shared between passes.
type scheduleInput struct {
	Catalog       *models.Catalog
	ClassID       string
	AcademicYear  string
	EffectiveFrom time.Time
	Policy        models.SlotPolicy
	Checker       ConflictChecker
	// Baseline entries are checked against but never placed or modified.
	Baseline []models.TimetableEntry
	// Expired is polled between obligations. Nil never expires.
	Expired func() bool
	NewID   func() string
}

type scheduleOutput struct {
	Entries     []models.TimetableEntry
	Unscheduled []models.UnscheduledObligation
	Aborted     bool
}

// buildObligations expands every assignment of a catalog subject into one obligation per credit,
// keeping assignment order.
func buildObligations(catalog *models.Catalog) []models.Obligation {
	obligations := make([]models.Obligation, 0)
	for _, assignment := range catalog.Assignments {
		subject, ok := catalog.Subject(assignment.SubjectID)
		if !ok {
			continue
		}
		for hour := 1; hour <= subject.Credits; hour++ {
			obligations = append(obligations, models.Obligation{
				FacultyID: assignment.FacultyID,
				SubjectID: assignment.SubjectID,
				Hour:      hour,
			})
		}
	}
	return obligations
}

// compatibleRooms lists, in catalog order, the active rooms that can host subject for the class.
func compatibleRooms(catalog *models.Catalog, subject models.Subject, classID string, lectureFallback bool) []models.Classroom {
	size, sized := catalog.ClassSize(classID)
	rooms := make([]models.Classroom, 0, len(catalog.Classrooms))
	for _, room := range catalog.Classrooms {
		if !room.IsActive || !room.Hosts(subject.Type, lectureFallback) {
			continue
		}
		if sized && room.Capacity < size {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms
}

type slotUsage struct {
	policy models.SlotPolicy
	slots  map[string]bool
	rooms  map[[2]string]bool
}

func newSlotUsage(policy models.SlotPolicy) *slotUsage {
	return &slotUsage{policy: policy, slots: map[string]bool{}, rooms: map[[2]string]bool{}}
}

// candidates returns the rooms still open in slot under the policy. The global
// policy offers only the first compatible room of a slot nobody used yet.
func (u *slotUsage) candidates(slotID string, rooms []models.Classroom) []models.Classroom {
	if u.policy != models.SlotPolicyRoom {
		if u.slots[slotID] || len(rooms) == 0 {
			return nil
		}
		return rooms[:1]
	}
	open := make([]models.Classroom, 0, len(rooms))
	for _, room := range rooms {
		if !u.rooms[[2]string{room.ID, slotID}] {
			open = append(open, room)
		}
	}
	return open
}

func (u *slotUsage) mark(roomID, slotID string) {
	u.slots[slotID] = true
	u.rooms[[2]string{roomID, slotID}] = true
}

// runGreedy places obligations first-fit with no backtracking.
func runGreedy(in scheduleInput) scheduleOutput {
	catalog := in.Catalog
	obligations := buildObligations(catalog)
	usage := newSlotUsage(in.Policy)

	out := scheduleOutput{
		Entries:     make([]models.TimetableEntry, 0, len(obligations)),
		Unscheduled: make([]models.UnscheduledObligation, 0),
	}
	against := make([]models.TimetableEntry, 0, len(in.Baseline)+len(obligations))
	against = append(against, in.Baseline...)

	for i, obligation := range obligations {
		if in.Expired != nil && in.Expired() {
			for _, rest := range obligations[i:] {
				out.Unscheduled = append(out.Unscheduled, models.UnscheduledObligation{Obligation: rest, Reason: models.UnscheduledRunAborted})
			}
			out.Aborted = true
			break
		}

		subject, _ := catalog.Subject(obligation.SubjectID)
		rooms := compatibleRooms(catalog, subject, in.ClassID, in.Checker.LectureRoomFallback)
		if len(rooms) == 0 {
			out.Unscheduled = append(out.Unscheduled, models.UnscheduledObligation{Obligation: obligation, Reason: models.UnscheduledNoCompatibleRoom})
			continue
		}

		var (
			placed  bool
			tried   bool
			lastHit []models.ConflictReason
		)
		for _, slot := range catalog.TimeSlots {
			for _, room := range usage.candidates(slot.ID, rooms) {
				tried = true
				candidate := models.TimetableEntry{
					SubjectID:     obligation.SubjectID,
					FacultyID:     obligation.FacultyID,
					ClassID:       in.ClassID,
					ClassroomID:   room.ID,
					TimeSlotID:    slot.ID,
					AcademicYear:  in.AcademicYear,
					EffectiveFrom: in.EffectiveFrom,
					IsActive:      true,
				}
				report := in.Checker.Check(candidate, against, catalog)
				if report.HasConflicts() {
					lastHit = report.Reasons()
					continue
				}
				if in.NewID != nil {
					candidate.ID = in.NewID()
				}
				out.Entries = append(out.Entries, candidate)
				against = append(against, candidate)
				usage.mark(room.ID, slot.ID)
				placed = true
				break
			}
			if placed {
				break
			}
		}
		if placed {
			continue
		}

		item := models.UnscheduledObligation{Obligation: obligation, Reason: models.UnscheduledPersistentConflict, LastConflicts: lastHit}
		if !tried {
			item.Reason = models.UnscheduledNoFreeSlot
		}
		out.Unscheduled = append(out.Unscheduled, item)
	}

	return out
}

package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

const testYear = "2024-25"

func subjectOf(id string, credits int, kind models.RoomType) models.Subject {
	return models.Subject{ID: id, Name: "Subject " + id, Code: id, Credits: credits, DepartmentID: "dept-1", Type: kind}
}

func slotAt(id string, day models.Weekday, start string) models.TimeSlot {
	var h, m int
	fmt.Sscanf(start, "%d:%d", &h, &m)
	return models.TimeSlot{ID: id, DayOfWeek: day, StartTime: start + ":00", EndTime: fmt.Sprintf("%02d:%02d:00", h+1, m), IsActive: true}
}

func roomOf(id string, kind models.RoomType, capacity int) models.Classroom {
	return models.Classroom{ID: id, Name: "Room " + id, Number: id, Type: kind, Capacity: capacity, IsActive: true}
}

func intPtr(v int) *int { return &v }

type catalogOption func(*models.Catalog)

func withStrength(n int) catalogOption {
	return func(c *models.Catalog) { c.Class.Strength = intPtr(n) }
}

func withBaseline(entries ...models.TimetableEntry) catalogOption {
	return func(c *models.Catalog) { c.Baseline = entries }
}

func newCatalog(subjects []models.Subject, assignments []models.FacultyAssignment, slots []models.TimeSlot, rooms []models.Classroom, opts ...catalogOption) *models.Catalog {
	catalog := &models.Catalog{
		Class:       models.Class{ID: "class-1", DepartmentID: "dept-1", Name: "CS", Section: "A"},
		Department:  models.Department{ID: "dept-1", Name: "Computer Science", Code: "CS"},
		Subjects:    subjects,
		Assignments: assignments,
		TimeSlots:   slots,
		Classrooms:  rooms,
	}
	for _, opt := range opts {
		opt(catalog)
	}
	return catalog
}

func inputFor(catalog *models.Catalog, policy models.SlotPolicy) scheduleInput {
	seq := 0
	return scheduleInput{
		Catalog:       catalog,
		ClassID:       catalog.Class.ID,
		AcademicYear:  testYear,
		EffectiveFrom: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Policy:        policy,
		Checker:       ConflictChecker{LectureRoomFallback: true},
		Baseline:      catalog.Baseline,
		NewID: func() string {
			seq++
			return fmt.Sprintf("entry-%d", seq)
		},
	}
}

func entryAt(id, faculty, class, room, slot string) models.TimetableEntry {
	return models.TimetableEntry{
		ID:           id,
		SubjectID:    "subject-x",
		FacultyID:    faculty,
		ClassID:      class,
		ClassroomID:  room,
		TimeSlotID:   slot,
		AcademicYear: testYear,
		IsActive:     true,
	}
}

// placement is an entry without its generated id.
type placement struct {
	Faculty, Subject, Room, Slot string
}

func placements(entries []models.TimetableEntry) []placement {
	out := make([]placement, 0, len(entries))
	for _, e := range entries {
		out = append(out, placement{Faculty: e.FacultyID, Subject: e.SubjectID, Room: e.ClassroomID, Slot: e.TimeSlotID})
	}
	return out
}

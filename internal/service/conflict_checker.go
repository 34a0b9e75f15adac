package service

import (
	"github.com/noah-isme/timetable-api/internal/models"
)

// ConflictChecker evaluates a candidate entry against existing entries. It holds
// no state beyond its policy, so Check is a pure function of its inputs.
type ConflictChecker struct {
	// LectureRoomFallback lets lecture rooms host subjects of any type.
	LectureRoomFallback bool
}

// CheckConflicts runs the default checker, which allows the lecture room fallback.
func CheckConflicts(candidate models.TimetableEntry, existing []models.TimetableEntry, catalog *models.Catalog) models.ConflictReport {
	return ConflictChecker{LectureRoomFallback: true}.Check(candidate, existing, catalog)
}

// Check reports every violation of candidate. Entry conflicts come first, in the
// order of existing, each checked on faculty, room and class. Type and capacity
// violations follow. Data missing from catalog skips the check that needs it.
func (c ConflictChecker) Check(candidate models.TimetableEntry, existing []models.TimetableEntry, catalog *models.Catalog) models.ConflictReport {
	report := models.ConflictReport{Conflicts: []models.Conflict{}}
	slot := slotLabel(catalog, candidate.TimeSlotID)

	for i := range existing {
		other := existing[i]
		if !other.IsActive {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if other.AcademicYear != candidate.AcademicYear || other.TimeSlotID != candidate.TimeSlotID {
			continue
		}
		if other.FacultyID == candidate.FacultyID {
			report.Add(candidate, &other, models.ConflictFacultyDoubleBooked,
				"faculty %s is already teaching at %s (entry %s)", candidate.FacultyID, slot, other.ID)
		}
		if other.ClassroomID == candidate.ClassroomID {
			report.Add(candidate, &other, models.ConflictRoomDoubleBooked,
				"classroom %s is already booked at %s (entry %s)", roomLabel(catalog, candidate.ClassroomID), slot, other.ID)
		}
		if other.ClassID == candidate.ClassID {
			report.Add(candidate, &other, models.ConflictClassDoubleBooked,
				"class %s already has a lesson at %s (entry %s)", candidate.ClassID, slot, other.ID)
		}
	}

	room, hasRoom := catalog.Classroom(candidate.ClassroomID)
	if subject, ok := catalog.Subject(candidate.SubjectID); ok && hasRoom {
		if !room.Hosts(subject.Type, c.LectureRoomFallback) {
			report.Add(candidate, nil, models.ConflictRoomTypeMismatch,
				"classroom %s is a %s room and cannot host %s subject %s", roomLabel(catalog, room.ID), room.Type, subject.Type, subject.Code)
		}
	}
	if size, ok := catalog.ClassSize(candidate.ClassID); ok && hasRoom {
		if room.Capacity < size {
			report.Add(candidate, nil, models.ConflictRoomCapacityExceeded,
				"classroom %s seats %d but class %s has %d students", roomLabel(catalog, room.ID), room.Capacity, candidate.ClassID, size)
		}
	}

	return report
}

func slotLabel(catalog *models.Catalog, id string) string {
	if slot, ok := catalog.TimeSlot(id); ok {
		return slot.Label()
	}
	return "slot " + id
}

func roomLabel(catalog *models.Catalog, id string) string {
	if room, ok := catalog.Classroom(id); ok && room.Name != "" {
		return room.Name
	}
	return id
}

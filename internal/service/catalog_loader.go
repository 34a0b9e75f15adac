package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// Catalog lookups named in load errors.
const (
	LookupClass            = "class"
	LookupDepartment       = "department"
	LookupSubjects         = "subjects"
	LookupFacultySubjects  = "faculty_subjects"
	LookupTimeSlots        = "time_slots"
	LookupClassrooms       = "classrooms"
	LookupTimetableEntries = "timetable_entries"
)

type catalogClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDepartment(ctx context.Context, id string) (*models.Department, error)
}

type catalogSubjectReader interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Subject, error)
}

type catalogAssignmentReader interface {
	ListAssignmentsBySubjects(ctx context.Context, subjectIDs []string) ([]models.FacultyAssignment, error)
}

type catalogSlotReader interface {
	ListActive(ctx context.Context) ([]models.TimeSlot, error)
}

type catalogRoomReader interface {
	ListActive(ctx context.Context) ([]models.Classroom, error)
}

type catalogEntryReader interface {
	ListActiveByYear(ctx context.Context, academicYear string) ([]models.TimetableEntry, error)
}

// CatalogLoader assembles the read-only snapshot a generation run works from.
type CatalogLoader struct {
	classes     catalogClassReader
	subjects    catalogSubjectReader
	assignments catalogAssignmentReader
	slots       catalogSlotReader
	rooms       catalogRoomReader
	entries     catalogEntryReader
}

// NewCatalogLoader wires the catalog readers.
func NewCatalogLoader(classes catalogClassReader, subjects catalogSubjectReader, assignments catalogAssignmentReader, slots catalogSlotReader, rooms catalogRoomReader, entries catalogEntryReader) *CatalogLoader {
	return &CatalogLoader{
		classes:     classes,
		subjects:    subjects,
		assignments: assignments,
		slots:       slots,
		rooms:       rooms,
		entries:     entries,
	}
}

// Load resolves the class and everything needed to schedule it for academicYear.
// Every failure is an ErrCatalogLoad naming the lookup that failed.
func (l *CatalogLoader) Load(ctx context.Context, classID, academicYear string) (*models.Catalog, error) {
	class, err := l.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, loadError(LookupClass, err, "class %s not found", classID)
	}
	department, err := l.classes.FindDepartment(ctx, class.DepartmentID)
	if err != nil {
		return nil, loadError(LookupDepartment, err, "department %s of class %s not found", class.DepartmentID, classID)
	}

	subjects, err := l.subjects.ListByDepartment(ctx, department.ID)
	if err != nil {
		return nil, loadError(LookupSubjects, err, "")
	}
	subjectIDs := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if subject.Credits < 1 {
			return nil, malformed(LookupSubjects, "subject %s has %d credits", subject.ID, subject.Credits)
		}
		if !subject.Type.Valid() {
			return nil, malformed(LookupSubjects, "subject %s has unknown type %q", subject.ID, subject.Type)
		}
		subjectIDs = append(subjectIDs, subject.ID)
	}

	assignments, err := l.assignments.ListAssignmentsBySubjects(ctx, subjectIDs)
	if err != nil {
		return nil, loadError(LookupFacultySubjects, err, "")
	}

	slots, err := l.slots.ListActive(ctx)
	if err != nil {
		return nil, loadError(LookupTimeSlots, err, "")
	}
	for _, slot := range slots {
		if err := validateSlot(slot); err != nil {
			return nil, malformed(LookupTimeSlots, "%v", err)
		}
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })

	rooms, err := l.rooms.ListActive(ctx)
	if err != nil {
		return nil, loadError(LookupClassrooms, err, "")
	}
	for _, room := range rooms {
		if !room.Type.Valid() {
			return nil, malformed(LookupClassrooms, "classroom %s has unknown type %q", room.ID, room.Type)
		}
		if room.Capacity <= 0 {
			return nil, malformed(LookupClassrooms, "classroom %s has capacity %d", room.ID, room.Capacity)
		}
	}

	baseline, err := l.entries.ListActiveByYear(ctx, academicYear)
	if err != nil {
		return nil, loadError(LookupTimetableEntries, err, "")
	}

	return &models.Catalog{
		Class:       *class,
		Department:  *department,
		Subjects:    subjects,
		Assignments: assignments,
		TimeSlots:   slots,
		Classrooms:  rooms,
		Baseline:    baseline,
	}, nil
}

func validateSlot(slot models.TimeSlot) error {
	if !slot.DayOfWeek.Valid() {
		return fmt.Errorf("time slot %s has invalid day %d", slot.ID, slot.DayOfWeek)
	}
	start, err := slot.StartMinutes()
	if err != nil {
		return fmt.Errorf("time slot %s: %w", slot.ID, err)
	}
	end, err := slot.EndMinutes()
	if err != nil {
		return fmt.Errorf("time slot %s: %w", slot.ID, err)
	}
	if end <= start {
		return fmt.Errorf("time slot %s ends before it starts", slot.ID)
	}
	return nil
}

func loadError(lookup string, err error, format string, args ...interface{}) *appErrors.Error {
	message := fmt.Sprintf("failed to load %s", lookup)
	if errors.Is(err, sql.ErrNoRows) && format != "" {
		message = fmt.Sprintf(format, args...)
	}
	return appErrors.WithDetails(appErrors.WrapAs(err, appErrors.ErrCatalogLoad, message), map[string]string{"lookup": lookup})
}

func malformed(lookup, format string, args ...interface{}) *appErrors.Error {
	message := fmt.Sprintf("malformed %s: %s", lookup, fmt.Sprintf(format, args...))
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrCatalogLoad, message), map[string]string{"lookup": lookup})
}

// CatalogLookup extracts the failing lookup name from a catalog load error.
func CatalogLookup(err error) string {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		return ""
	}
	if details, ok := appErr.Details.(map[string]string); ok {
		return details["lookup"]
	}
	return ""
}

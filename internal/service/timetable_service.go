package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableEntryStore interface {
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	FindBySlot(ctx context.Context, academicYear, timeSlotID string) ([]models.TimetableEntry, error)
	ListByClass(ctx context.Context, classID, academicYear string) ([]models.TimetableEntryDetail, error)
	ListByFaculty(ctx context.Context, facultyID, academicYear string) ([]models.TimetableEntryDetail, error)
	ListByClasses(ctx context.Context, classIDs []string, academicYear string) ([]models.TimetableEntryDetail, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	Update(ctx context.Context, entry *models.TimetableEntry) error
	Delete(ctx context.Context, id string) error
}

type entryClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

type entrySubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type entryClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type entrySlotReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

type conflictObserver interface {
	ObserveConflictCheck(conflicted bool)
}

// TimetableServiceConfig holds defaults for timetable operations.
type TimetableServiceConfig struct {
	DefaultAcademicYear string
	LectureRoomFallback bool
}

// TimetableService serves timetable views and guards manual edits with the conflict checker.
type TimetableService struct {
	entries    timetableEntryStore
	classes    entryClassReader
	subjects   entrySubjectReader
	classrooms entryClassroomReader
	slots      entrySlotReader
	metrics    conflictObserver
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableServiceConfig
	checker    ConflictChecker
	now        func() time.Time
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(
	entries timetableEntryStore,
	classes entryClassReader,
	subjects entrySubjectReader,
	classrooms entryClassroomReader,
	slots entrySlotReader,
	metrics conflictObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultAcademicYear == "" {
		cfg.DefaultAcademicYear = "2024-25"
	}
	return &TimetableService{
		entries:    entries,
		classes:    classes,
		subjects:   subjects,
		classrooms: classrooms,
		slots:      slots,
		metrics:    metrics,
		validator:  newValidator(validate),
		logger:     logger,
		cfg:        cfg,
		checker:    ConflictChecker{LectureRoomFallback: cfg.LectureRoomFallback},
		now:        time.Now,
	}
}

// ListByClass returns the active timetable of a class.
func (s *TimetableService) ListByClass(ctx context.Context, classID, academicYear string) ([]models.TimetableEntryDetail, error) {
	year, err := s.year(academicYear)
	if err != nil {
		return nil, err
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	entries, err := s.entries.ListByClass(ctx, classID, year)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list class timetable")
	}
	return entries, nil
}

// ListByFaculty returns the teaching schedule of a faculty member.
func (s *TimetableService) ListByFaculty(ctx context.Context, facultyID, academicYear string) ([]models.TimetableEntryDetail, error) {
	year, err := s.year(academicYear)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByFaculty(ctx, facultyID, year)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list faculty timetable")
	}
	return entries, nil
}

// ListByStudent returns the timetable of every class the student belongs to.
func (s *TimetableService) ListByStudent(ctx context.Context, studentID, academicYear string) ([]models.TimetableEntryDetail, error) {
	year, err := s.year(academicYear)
	if err != nil {
		return nil, err
	}
	classIDs, err := s.classes.ListIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to resolve student classes")
	}
	entries, err := s.entries.ListByClasses(ctx, classIDs, year)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list student timetable")
	}
	return entries, nil
}

// CheckConflicts checks a candidate against persisted entries sharing its slot and year.
func (s *TimetableService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) ([]dto.ConflictRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid conflict check payload")
	}
	year, err := s.year(req.AcademicYear)
	if err != nil {
		return nil, err
	}
	catalog, err := s.resolve(ctx, req.ClassID, req.SubjectID, req.ClassroomID, req.TimeSlotID)
	if err != nil {
		return nil, err
	}
	existing, err := s.entries.FindBySlot(ctx, year, req.TimeSlotID)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load entries for slot")
	}

	candidate := models.TimetableEntry{
		ID:           req.ExcludeEntryID,
		SubjectID:    req.SubjectID,
		FacultyID:    req.FacultyID,
		ClassID:      req.ClassID,
		ClassroomID:  req.ClassroomID,
		TimeSlotID:   req.TimeSlotID,
		AcademicYear: year,
		IsActive:     true,
	}
	report := s.checker.Check(candidate, existing, catalog)
	if s.metrics != nil {
		s.metrics.ObserveConflictCheck(report.HasConflicts())
	}
	return toConflictRecords(report), nil
}

// Create stores a manual entry when it is conflict free.
func (s *TimetableService) Create(ctx context.Context, req dto.CreateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid timetable entry payload")
	}
	year, err := s.year(req.AcademicYear)
	if err != nil {
		return nil, err
	}
	effective, err := effectiveDate(req.EffectiveFrom, s.now())
	if err != nil {
		return nil, err
	}

	records, err := s.CheckConflicts(ctx, dto.ConflictCheckRequest{
		SubjectID:    req.SubjectID,
		FacultyID:    req.FacultyID,
		ClassID:      req.ClassID,
		ClassroomID:  req.ClassroomID,
		TimeSlotID:   req.TimeSlotID,
		AcademicYear: year,
	})
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return nil, conflictError(records)
	}

	entry := &models.TimetableEntry{
		SubjectID:     req.SubjectID,
		FacultyID:     req.FacultyID,
		ClassID:       req.ClassID,
		ClassroomID:   req.ClassroomID,
		TimeSlotID:    req.TimeSlotID,
		AcademicYear:  year,
		EffectiveFrom: effective,
		IsActive:      true,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to create timetable entry")
	}
	s.logger.Info("timetable entry created", zap.String("entry_id", entry.ID), zap.String("class_id", entry.ClassID), zap.String("time_slot_id", entry.TimeSlotID))
	return entry, nil
}

// Update merges req into an entry. The entry never conflicts with itself.
func (s *TimetableService) Update(ctx context.Context, id string, req dto.UpdateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid timetable entry payload")
	}
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "timetable entry not found", "failed to load timetable entry")
	}

	if req.SubjectID != nil {
		entry.SubjectID = *req.SubjectID
	}
	if req.FacultyID != nil {
		entry.FacultyID = *req.FacultyID
	}
	if req.ClassroomID != nil {
		entry.ClassroomID = *req.ClassroomID
	}
	if req.TimeSlotID != nil {
		entry.TimeSlotID = *req.TimeSlotID
	}
	if req.EffectiveFrom != nil {
		effective, err := effectiveDate(*req.EffectiveFrom, s.now())
		if err != nil {
			return nil, err
		}
		entry.EffectiveFrom = effective
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if entry.IsActive {
		records, err := s.CheckConflicts(ctx, dto.ConflictCheckRequest{
			SubjectID:      entry.SubjectID,
			FacultyID:      entry.FacultyID,
			ClassID:        entry.ClassID,
			ClassroomID:    entry.ClassroomID,
			TimeSlotID:     entry.TimeSlotID,
			AcademicYear:   entry.AcademicYear,
			ExcludeEntryID: entry.ID,
		})
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			return nil, conflictError(records)
		}
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update timetable entry")
	}
	return entry, nil
}

// Delete removes an entry.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return notFoundOr(err, "timetable entry not found", "failed to delete timetable entry")
	}
	return nil
}

// resolve builds the minimal catalog a single conflict check needs.
func (s *TimetableService) resolve(ctx context.Context, classID, subjectID, classroomID, slotID string) (*models.Catalog, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}
	room, err := s.classrooms.FindByID(ctx, classroomID)
	if err != nil {
		return nil, notFoundOr(err, "classroom not found", "failed to load classroom")
	}
	if !room.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("classroom %s is inactive", room.ID))
	}
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, notFoundOr(err, "time slot not found", "failed to load time slot")
	}
	if !slot.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time slot %s is inactive", slot.ID))
	}
	return &models.Catalog{
		Class:      *class,
		Subjects:   []models.Subject{*subject},
		Classrooms: []models.Classroom{*room},
		TimeSlots:  []models.TimeSlot{*slot},
	}, nil
}

func (s *TimetableService) year(raw string) (string, error) {
	if raw == "" {
		return s.cfg.DefaultAcademicYear, nil
	}
	if !validAcademicYear(raw) {
		return "", appErrors.Clone(appErrors.ErrValidation, "academicYear must look like 2024-25")
	}
	return raw, nil
}

func conflictError(records []dto.ConflictRecord) error {
	messages := make([]string, 0, len(records))
	for _, record := range records {
		messages = append(messages, record.ConflictMessage)
	}
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, strings.Join(messages, "; ")), records)
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.WrapAs(err, appErrors.ErrInternal, internal)
}

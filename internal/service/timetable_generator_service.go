package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/cache"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// JobTypeGenerate tags queued generation jobs.
const JobTypeGenerate = "timetable.generate"

const dateLayout = "2006-01-02"

type catalogSource interface {
	Load(ctx context.Context, classID, academicYear string) (*models.Catalog, error)
}

type generatedEntryWriter interface {
	FindBySlotWithTx(ctx context.Context, tx *sqlx.Tx, academicYear, timeSlotID string) ([]models.TimetableEntry, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error
	DeactivateClassYearWithTx(ctx context.Context, tx *sqlx.Tx, classID, academicYear string) (int64, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type generationObserver interface {
	ObserveGeneration(outcome string, duration time.Duration, result *models.GenerationResult)
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	Enabled             bool
	Policy              models.SlotPolicy
	LectureRoomFallback bool
	DefaultAcademicYear string
	PreviewTTL          time.Duration
	RunTimeout          time.Duration
}

// TimetableGeneratorService builds timetable previews with the greedy scheduler and persists them.
type TimetableGeneratorService struct {
	catalog   catalogSource
	entries   generatedEntryWriter
	tx        txProvider
	locker    cache.Locker
	queue     jobDispatcher
	metrics   generationObserver
	validator *validator.Validate
	logger    *zap.Logger
	store     *runStore
	cfg       TimetableGeneratorConfig
	checker   ConflictChecker
	now       func() time.Time
}

// NewTimetableGeneratorService wires generator dependencies. A nil locker serialises runs in process.
func NewTimetableGeneratorService(
	catalog catalogSource,
	entries generatedEntryWriter,
	tx txProvider,
	locker cache.Locker,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = cache.NewLocalLocker(0)
	}
	if cfg.Policy != models.SlotPolicyRoom {
		cfg.Policy = models.SlotPolicyGlobal
	}
	if cfg.DefaultAcademicYear == "" {
		cfg.DefaultAcademicYear = "2024-25"
	}
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 30 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Second
	}
	svc := &TimetableGeneratorService{
		catalog:   catalog,
		entries:   entries,
		tx:        tx,
		locker:    locker,
		metrics:   metrics,
		validator: newValidator(validate),
		logger:    logger,
		cfg:       cfg,
		checker:   ConflictChecker{LectureRoomFallback: cfg.LectureRoomFallback},
		now:       time.Now,
	}
	svc.store = newRunStore(cfg.PreviewTTL, func() time.Time { return svc.now() })
	return svc
}

// AttachQueue sets the dispatcher used by GenerateAsync.
func (s *TimetableGeneratorService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// Generate runs the scheduler synchronously and keeps the result as a preview.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*models.GenerationResult, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	req, effective, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	result, err := s.execute(ctx, runID, req, effective)
	if err != nil {
		return nil, err
	}
	s.store.Put(models.GenerationRun{
		RunID:        runID,
		ClassID:      req.ClassID,
		AcademicYear: req.AcademicYear,
		Status:       models.RunStatusCompleted,
		Result:       result,
		RequestedAt:  result.StartedAt,
	})
	return result, nil
}

// GenerateAsync enqueues a run and returns its id immediately.
func (s *TimetableGeneratorService) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.AsyncRunResponse, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}
	req, _, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	run := models.GenerationRun{
		RunID:        uuid.NewString(),
		ClassID:      req.ClassID,
		AcademicYear: req.AcademicYear,
		Status:       models.RunStatusPending,
		RequestedAt:  s.now().UTC(),
	}
	s.store.Put(run)
	if err := s.queue.Enqueue(jobs.Job{ID: run.RunID, Type: JobTypeGenerate, Payload: req}); err != nil {
		s.failRun(run.RunID, err)
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to enqueue generation run")
	}
	s.logger.Info("timetable generation queued", zap.String("run_id", run.RunID), zap.String("class_id", req.ClassID), zap.String("academic_year", req.AcademicYear))
	return &dto.AsyncRunResponse{RunID: run.RunID, Status: run.Status}, nil
}

// HandleJob executes a queued run. Lock contention is retryable; everything else is permanent.
func (s *TimetableGeneratorService) HandleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		err := fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
		s.failRun(job.ID, err)
		return jobs.Permanent(err)
	}
	_, effective, err := s.normalize(req)
	if err != nil {
		s.failRun(job.ID, err)
		return jobs.Permanent(err)
	}

	s.store.Update(job.ID, func(run *models.GenerationRun) { run.Status = models.RunStatusRunning })
	result, err := s.execute(ctx, job.ID, req, effective)
	if err != nil {
		if errors.Is(err, appErrors.ErrLocked) {
			s.store.Update(job.ID, func(run *models.GenerationRun) { run.Status = models.RunStatusPending })
			return err
		}
		s.failRun(job.ID, err)
		return jobs.Permanent(err)
	}

	s.store.Update(job.ID, func(run *models.GenerationRun) {
		run.Status = models.RunStatusCompleted
		run.Result = result
		run.Error = ""
	})
	return nil
}

// OnJobGiveUp marks a run failed once the queue stops retrying it.
func (s *TimetableGeneratorService) OnJobGiveUp(job jobs.Job, err error) {
	s.failRun(job.ID, err)
}

// GetRun returns the stored state of a run.
func (s *TimetableGeneratorService) GetRun(ctx context.Context, runID string) (*models.GenerationRun, error) {
	run, ok := s.store.Get(runID)
	if !ok {
		return nil, errRunNotFound()
	}
	return &run, nil
}

// Save persists a completed run inside one transaction, re-checking every entry
// against persisted rows first. The run is claimed under the class/year lock so
// concurrent saves of one run persist it once.
func (s *TimetableGeneratorService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid save timetable payload")
	}
	run, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, errRunNotFound()
	}
	if err := saveableStatus(run.Status); err != nil {
		return nil, err
	}
	result := run.Result
	if result == nil || (len(result.Entries) == 0 && !result.ReplaceExisting) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "generation run has no entries to save")
	}
	if s.tx == nil || s.entries == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	release, err := s.acquire(ctx, result.ClassID, result.AcademicYear)
	if err != nil {
		return nil, err
	}
	defer release()

	claimed, ok := s.store.Transition(req.RunID, models.RunStatusCompleted, models.RunStatusSaving)
	if !ok {
		if claimed.RunID == "" {
			return nil, errRunNotFound()
		}
		return nil, saveableStatus(claimed.Status)
	}

	deactivated, err := s.persist(ctx, result)
	if err != nil {
		s.store.Transition(req.RunID, models.RunStatusSaving, models.RunStatusCompleted)
		return nil, err
	}
	s.store.Transition(req.RunID, models.RunStatusSaving, models.RunStatusSaved)

	s.logger.Info("timetable saved",
		zap.String("run_id", req.RunID),
		zap.String("class_id", result.ClassID),
		zap.String("academic_year", result.AcademicYear),
		zap.Int("inserted", len(result.Entries)),
		zap.Int64("deactivated", deactivated),
	)
	return &dto.SaveTimetableResponse{RunID: req.RunID, Inserted: len(result.Entries), Deactivated: deactivated}, nil
}

func (s *TimetableGeneratorService) persist(ctx context.Context, result *models.GenerationResult) (deactivated int64, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if result.ReplaceExisting {
		deactivated, err = s.entries.DeactivateClassYearWithTx(ctx, tx, result.ClassID, result.AcademicYear)
		if err != nil {
			return 0, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to deactivate previous entries")
		}
	}

	records, err := s.backstop(ctx, tx, result)
	if err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to re-check entries")
	}
	if len(records) > 0 {
		err = appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "generated entries conflict with persisted timetable"), records)
		return 0, err
	}

	entries := make([]models.TimetableEntry, len(result.Entries))
	copy(entries, result.Entries)
	if err = s.entries.BulkCreateWithTx(ctx, tx, entries); err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to persist timetable entries")
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to commit timetable transaction")
	}
	return deactivated, nil
}

func errRunNotFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, "generation run not found or expired")
}

func saveableStatus(status models.RunStatus) error {
	switch status {
	case models.RunStatusCompleted:
		return nil
	case models.RunStatusSaved:
		return appErrors.Clone(appErrors.ErrConflict, "generation run already saved")
	case models.RunStatusSaving:
		return appErrors.Clone(appErrors.ErrConflict, "generation run is already being saved")
	default:
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("generation run is %s", status))
	}
}

func (s *TimetableGeneratorService) backstop(ctx context.Context, tx *sqlx.Tx, result *models.GenerationResult) ([]dto.ConflictRecord, error) {
	bySlot := make(map[string][]models.TimetableEntry)
	records := make([]dto.ConflictRecord, 0)
	for _, entry := range result.Entries {
		persisted, ok := bySlot[entry.TimeSlotID]
		if !ok {
			var err error
			persisted, err = s.entries.FindBySlotWithTx(ctx, tx, result.AcademicYear, entry.TimeSlotID)
			if err != nil {
				return nil, err
			}
			bySlot[entry.TimeSlotID] = persisted
		}
		// A persisted row with the entry's own id is a prior save of it, not the entry.
		candidate := entry
		candidate.ID = ""
		report := s.checker.Check(candidate, persisted, nil)
		records = append(records, toConflictRecords(report)...)
	}
	return records, nil
}

func (s *TimetableGeneratorService) execute(ctx context.Context, runID string, req dto.GenerateTimetableRequest, effective time.Time) (*models.GenerationResult, error) {
	release, err := s.acquire(ctx, req.ClassID, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	defer release()

	started := s.now().UTC()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("class_id", req.ClassID), zap.String("academic_year", req.AcademicYear))
	logger.Info("timetable generation started", zap.String("policy", string(s.cfg.Policy)))

	catalog, err := s.catalog.Load(ctx, req.ClassID, req.AcademicYear)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveGeneration("catalog_error", time.Since(started), nil)
		}
		logger.Warn("timetable catalog load failed", zap.String("lookup", CatalogLookup(err)), zap.Error(err))
		return nil, err
	}

	baseline := catalog.Baseline
	if req.ReplaceExisting {
		baseline = make([]models.TimetableEntry, 0, len(catalog.Baseline))
		for _, entry := range catalog.Baseline {
			if entry.ClassID != req.ClassID {
				baseline = append(baseline, entry)
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	out := runGreedy(scheduleInput{
		Catalog:       catalog,
		ClassID:       req.ClassID,
		AcademicYear:  req.AcademicYear,
		EffectiveFrom: effective,
		Policy:        s.cfg.Policy,
		Checker:       s.checker,
		Baseline:      baseline,
		Expired:       func() bool { return runCtx.Err() != nil },
		NewID:         uuid.NewString,
	})

	result := &models.GenerationResult{
		RunID:           runID,
		ClassID:         req.ClassID,
		AcademicYear:    req.AcademicYear,
		EffectiveFrom:   effective,
		ReplaceExisting: req.ReplaceExisting,
		Policy:          s.cfg.Policy,
		Entries:         out.Entries,
		Unscheduled:     out.Unscheduled,
		Aborted:         out.Aborted,
		StartedAt:       started,
		FinishedAt:      s.now().UTC(),
	}

	outcome := "complete"
	switch {
	case result.Aborted:
		outcome = "aborted"
	case result.Partial():
		outcome = "partial"
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration(outcome, result.FinishedAt.Sub(started), result)
	}
	logger.Info("timetable generation finished",
		zap.String("outcome", outcome),
		zap.Int("entries", len(result.Entries)),
		zap.Int("unscheduled", len(result.Unscheduled)),
		zap.Duration("duration", result.FinishedAt.Sub(started)),
	)
	return result, nil
}

func (s *TimetableGeneratorService) acquire(ctx context.Context, classID, academicYear string) (cache.ReleaseFunc, error) {
	release, err := s.locker.Acquire(ctx, generationLockKey(classID, academicYear))
	if err != nil {
		if errors.Is(err, cache.ErrLockTimeout) {
			return nil, appErrors.WrapAs(err, appErrors.ErrLocked, fmt.Sprintf("a generation run for class %s (%s) is already in progress", classID, academicYear))
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to acquire generation lock")
	}
	return release, nil
}

func (s *TimetableGeneratorService) normalize(req dto.GenerateTimetableRequest) (dto.GenerateTimetableRequest, time.Time, error) {
	if err := s.validator.Struct(req); err != nil {
		return req, time.Time{}, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid timetable generation payload")
	}
	if req.AcademicYear == "" {
		req.AcademicYear = s.cfg.DefaultAcademicYear
	}
	effective, err := effectiveDate(req.EffectiveFrom, s.now())
	if err != nil {
		return req, time.Time{}, err
	}
	return req, effective, nil
}

func (s *TimetableGeneratorService) ensureEnabled() error {
	if !s.cfg.Enabled {
		return appErrors.Clone(appErrors.ErrDisabled, "timetable generation is disabled")
	}
	return nil
}

func (s *TimetableGeneratorService) failRun(runID string, err error) {
	s.store.Update(runID, func(run *models.GenerationRun) {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	})
}

func generationLockKey(classID, academicYear string) string {
	return fmt.Sprintf("timetable:generate:%s:%s", classID, academicYear)
}

// effectiveDate parses an ISO date, defaulting to the UTC date of now.
func effectiveDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.WrapAs(err, appErrors.ErrValidation, "effectiveFrom must be YYYY-MM-DD")
	}
	return parsed, nil
}

// toConflictRecords renders a report in API form.
func toConflictRecords(report models.ConflictReport) []dto.ConflictRecord {
	records := make([]dto.ConflictRecord, 0, len(report.Conflicts))
	for _, conflict := range report.Conflicts {
		record := dto.ConflictRecord{Reason: conflict.Reason, ConflictMessage: conflict.Message}
		if conflict.Conflicting != nil {
			record.ConflictingEntryID = conflict.Conflicting.ID
		}
		records = append(records, record)
	}
	return records
}

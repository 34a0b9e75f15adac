package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/cache"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type catalogSourceStub struct {
	catalog *models.Catalog
	err     error
	calls   int
}

func (s *catalogSourceStub) Load(ctx context.Context, classID, academicYear string) (*models.Catalog, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.catalog, nil
}

type entryWriterStub struct {
	persisted   map[string][]models.TimetableEntry
	created     []models.TimetableEntry
	deactivated int64
	deactCalls  int
	createErr   error
}

func (s *entryWriterStub) FindBySlotWithTx(ctx context.Context, tx *sqlx.Tx, academicYear, timeSlotID string) ([]models.TimetableEntry, error) {
	return s.persisted[timeSlotID], nil
}

func (s *entryWriterStub) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, entries...)
	return nil
}

func (s *entryWriterStub) DeactivateClassYearWithTx(ctx context.Context, tx *sqlx.Tx, classID, academicYear string) (int64, error) {
	s.deactCalls++
	return s.deactivated, nil
}

type lockerStub struct {
	err      error
	keys     []string
	released int
}

func (l *lockerStub) Acquire(ctx context.Context, key string) (cache.ReleaseFunc, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

type observerStub struct {
	outcomes []string
}

func (o *observerStub) ObserveGeneration(outcome string, duration time.Duration, result *models.GenerationResult) {
	o.outcomes = append(o.outcomes, outcome)
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

type generatorFixture struct {
	svc      *TimetableGeneratorService
	source   *catalogSourceStub
	writer   *entryWriterStub
	locker   *lockerStub
	observer *observerStub
	mock     sqlmock.Sqlmock
}

func simpleCatalog() *models.Catalog {
	return newCatalog(
		[]models.Subject{subjectOf("math", 2, models.RoomTypeLecture)},
		[]models.FacultyAssignment{{FacultyID: "fac-1", SubjectID: "math"}},
		[]models.TimeSlot{slotAt("mon-9", models.Monday, "09:00"), slotAt("mon-10", models.Monday, "10:00")},
		[]models.Classroom{roomOf("hall", models.RoomTypeLecture, 40)},
	)
}

func newGeneratorFixture(t *testing.T, catalog *models.Catalog) *generatorFixture {
	tx, mock := newTxProviderMock(t)
	f := &generatorFixture{
		source:   &catalogSourceStub{catalog: catalog},
		writer:   &entryWriterStub{persisted: map[string][]models.TimetableEntry{}},
		locker:   &lockerStub{},
		observer: &observerStub{},
		mock:     mock,
	}
	f.svc = NewTimetableGeneratorService(f.source, f.writer, tx, f.locker, f.observer, nil, zap.NewNop(), TimetableGeneratorConfig{
		Enabled:             true,
		LectureRoomFallback: true,
		PreviewTTL:          time.Hour,
		RunTimeout:          time.Second,
	})
	return f
}

func TestGeneratorGenerateStoresPreview(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())

	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1", EffectiveFrom: "2024-08-01"})

	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.False(t, result.Partial())
	assert.Equal(t, "2024-25", result.AcademicYear)
	assert.Equal(t, models.SlotPolicyGlobal, result.Policy)
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), result.EffectiveFrom)
	assert.Equal(t, []string{"timetable:generate:class-1:2024-25"}, f.locker.keys)
	assert.Equal(t, 1, f.locker.released)
	assert.Equal(t, []string{"complete"}, f.observer.outcomes)

	run, err := f.svc.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Same(t, result, run.Result)
}

func TestGeneratorGeneratePartialOutcome(t *testing.T) {
	catalog := simpleCatalog()
	catalog.Subjects[0].Credits = 3
	f := newGeneratorFixture(t, catalog)

	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})

	require.NoError(t, err)
	assert.True(t, result.Partial())
	assert.Equal(t, []string{"partial"}, f.observer.outcomes)
}

func TestGeneratorReplaceExistingIgnoresOwnBaseline(t *testing.T) {
	catalog := simpleCatalog()
	catalog.Baseline = []models.TimetableEntry{
		entryAt("old-1", "fac-1", "class-1", "hall", "mon-9"),
		entryAt("old-2", "fac-1", "class-1", "hall", "mon-10"),
	}
	f := newGeneratorFixture(t, catalog)

	kept, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Empty(t, kept.Entries)

	replaced, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1", ReplaceExisting: true})
	require.NoError(t, err)
	assert.Len(t, replaced.Entries, 2)
}

func TestGeneratorRejectsInvalidRequests(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())

	cases := []dto.GenerateTimetableRequest{
		{},
		{ClassID: "class-1", AcademicYear: "2024-26"},
		{ClassID: "class-1", EffectiveFrom: "01/08/2024"},
	}
	for _, req := range cases {
		_, err := f.svc.Generate(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrValidation, "%+v", req)
	}
	assert.Zero(t, f.source.calls)
}

func TestGeneratorDisabled(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	f.svc.cfg.Enabled = false

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})

	assert.ErrorIs(t, err, appErrors.ErrDisabled)
}

func TestGeneratorLockTimeoutIsLocked(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	f.locker.err = cache.ErrLockTimeout

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.source.calls)
}

func TestGeneratorPassesCatalogErrorsThrough(t *testing.T) {
	f := newGeneratorFixture(t, nil)
	f.source.err = malformed(LookupClassrooms, "classroom %s has capacity %d", "r1", 0)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})

	assert.ErrorIs(t, err, appErrors.ErrCatalogLoad)
	assert.Equal(t, LookupClassrooms, CatalogLookup(err))
	assert.Equal(t, []string{"catalog_error"}, f.observer.outcomes)
	assert.Equal(t, 1, f.locker.released)
}

func TestGeneratorGetRunUnknown(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())

	_, err := f.svc.GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGeneratorRunsExpire(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = f.svc.GetRun(context.Background(), result.RunID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGeneratorSavePersistsRun(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Inserted)
	assert.Zero(t, f.writer.deactCalls)
	assert.Equal(t, placements(result.Entries), placements(f.writer.created))
	assert.NoError(t, f.mock.ExpectationsWereMet())

	run, err := f.svc.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSaved, run.Status)

	_, err = f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestGeneratorSaveReplacesExisting(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	f.writer.deactivated = 3
	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1", ReplaceExisting: true})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})

	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Deactivated)
	assert.Equal(t, 1, f.writer.deactCalls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGeneratorSaveBackstopRollsBack(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	// Another writer booked the hall after the preview was built.
	f.writer.persisted["mon-9"] = []models.TimetableEntry{entryAt("late-1", "fac-7", "class-9", "hall", "mon-9")}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err = f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	records, ok := appErr.Details.([]dto.ConflictRecord)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, models.ConflictRoomDoubleBooked, records[0].Reason)
	assert.Equal(t, "late-1", records[0].ConflictingEntryID)
	assert.Empty(t, f.writer.created)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	run, err := f.svc.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
}

func TestGeneratorSaveRejectsEntriesAlreadyPersisted(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	first := result.Entries[0]
	f.writer.persisted[first.TimeSlotID] = []models.TimetableEntry{first}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err = f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	records, ok := appErr.Details.([]dto.ConflictRecord)
	require.True(t, ok)
	require.NotEmpty(t, records)
	assert.Equal(t, first.ID, records[0].ConflictingEntryID)
	assert.Empty(t, f.writer.created)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// slowWriter persists into memory and holds the first insert until released.
type slowWriter struct {
	mu        sync.Mutex
	persisted map[string][]models.TimetableEntry
	inserts   int
	entered   chan struct{}
	proceed   chan struct{}
}

func (w *slowWriter) FindBySlotWithTx(ctx context.Context, tx *sqlx.Tx, academicYear, timeSlotID string) ([]models.TimetableEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.TimetableEntry(nil), w.persisted[timeSlotID]...), nil
}

func (w *slowWriter) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error {
	w.mu.Lock()
	w.inserts++
	first := w.inserts == 1
	w.mu.Unlock()
	if first {
		close(w.entered)
		<-w.proceed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, entry := range entries {
		w.persisted[entry.TimeSlotID] = append(w.persisted[entry.TimeSlotID], entry)
	}
	return nil
}

func (w *slowWriter) DeactivateClassYearWithTx(ctx context.Context, tx *sqlx.Tx, classID, academicYear string) (int64, error) {
	return 0, nil
}

func TestGeneratorConcurrentSavesPersistOnce(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	writer := &slowWriter{
		persisted: map[string][]models.TimetableEntry{},
		entered:   make(chan struct{}),
		proceed:   make(chan struct{}),
	}
	svc := NewTimetableGeneratorService(&catalogSourceStub{catalog: simpleCatalog()}, writer, tx, cache.NewLocalLocker(0), nil, nil, zap.NewNop(), TimetableGeneratorConfig{
		Enabled:             true,
		LectureRoomFallback: true,
		PreviewTTL:          time.Hour,
		RunTimeout:          time.Second,
	})
	result, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	save := func(i int) {
		defer wg.Done()
		_, errs[i] = svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})
	}

	wg.Add(1)
	go save(0)
	<-writer.entered

	wg.Add(1)
	go save(1)
	time.Sleep(50 * time.Millisecond)
	close(writer.proceed)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], appErrors.ErrConflict)
	assert.Equal(t, 1, writer.inserts)
	assert.Len(t, writer.persisted["mon-9"], 1)
	assert.Len(t, writer.persisted["mon-10"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())

	run, err := svc.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSaved, run.Status)
}

func TestGeneratorSaveRollsBackOnInsertFailure(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	f.writer.createErr = errors.New("insert failed")
	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err = f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})

	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGeneratorSaveUnknownRun(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())

	_, err := f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Save(context.Background(), dto.SaveTimetableRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGeneratorSaveEmptyRun(t *testing.T) {
	catalog := simpleCatalog()
	catalog.Classrooms = nil
	f := newGeneratorFixture(t, catalog)
	result, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	_, err = f.svc.Save(context.Background(), dto.SaveTimetableRequest{RunID: result.RunID})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGeneratorAsyncRun(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	queue := &dispatcherStub{}
	f.svc.AttachQueue(queue)

	ack, err := f.svc.GenerateAsync(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, ack.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeGenerate, queue.jobs[0].Type)
	assert.Equal(t, ack.RunID, queue.jobs[0].ID)

	require.NoError(t, f.svc.HandleJob(context.Background(), queue.jobs[0]))

	run, err := f.svc.GetRun(context.Background(), ack.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, ack.RunID, run.Result.RunID)
	assert.Len(t, run.Result.Entries, 2)
}

func TestGeneratorAsyncLockContentionIsRetryable(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	queue := &dispatcherStub{}
	f.svc.AttachQueue(queue)
	ack, err := f.svc.GenerateAsync(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	f.locker.err = cache.ErrLockTimeout
	err = f.svc.HandleJob(context.Background(), queue.jobs[0])

	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))
	run, _ := f.svc.GetRun(context.Background(), ack.RunID)
	assert.Equal(t, models.RunStatusPending, run.Status)

	f.svc.OnJobGiveUp(queue.jobs[0], err)
	run, _ = f.svc.GetRun(context.Background(), ack.RunID)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

func TestGeneratorAsyncCatalogFailureIsPermanent(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())
	queue := &dispatcherStub{}
	f.svc.AttachQueue(queue)
	ack, err := f.svc.GenerateAsync(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})
	require.NoError(t, err)

	f.source.err = loadError(LookupSubjects, errors.New("db down"), "")
	err = f.svc.HandleJob(context.Background(), queue.jobs[0])

	assert.True(t, jobs.IsPermanent(err))
	run, _ := f.svc.GetRun(context.Background(), ack.RunID)
	assert.Equal(t, models.RunStatusFailed, run.Status)
}

func TestGeneratorAsyncWithoutQueue(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())

	_, err := f.svc.GenerateAsync(context.Background(), dto.GenerateTimetableRequest{ClassID: "class-1"})

	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestGeneratorHandleJobRejectsBadPayload(t *testing.T) {
	f := newGeneratorFixture(t, simpleCatalog())

	err := f.svc.HandleJob(context.Background(), jobs.Job{ID: "x", Payload: "nope"})

	assert.True(t, jobs.IsPermanent(err))
}

func TestEffectiveDateDefaultsToToday(t *testing.T) {
	now := time.Date(2024, 9, 3, 22, 15, 0, 0, time.UTC)

	got, err := effectiveDate("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC), got)

	_, err = effectiveDate("2024-13-01", now)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

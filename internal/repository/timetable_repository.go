package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

const entryColumns = `id, subject_id, faculty_id, class_id, classroom_id, time_slot_id, academic_year, effective_from, is_active, created_at, updated_at`

const entryDetailSelect = `
SELECT te.id, te.subject_id, te.faculty_id, te.class_id, te.classroom_id, te.time_slot_id,
       te.academic_year, te.effective_from, te.is_active, te.created_at, te.updated_at,
       s.name AS subject_name, s.code AS subject_code, s.credits,
       COALESCE(up.full_name, '') AS faculty_name,
       c.name AS class_name, c.section AS class_section,
       cr.name AS classroom_name, cr.number AS room_number, cr.location AS room_location,
       ts.day_of_week, ts.start_time::text AS start_time, ts.end_time::text AS end_time
FROM timetable_entries te
JOIN subjects s ON s.id = te.subject_id
JOIN classes c ON c.id = te.class_id
JOIN classrooms cr ON cr.id = te.classroom_id
JOIN time_slots ts ON ts.id = te.time_slot_id
LEFT JOIN user_profiles up ON up.id = te.faculty_id`

const entryDetailOrder = `ORDER BY ts.day_of_week ASC, ts.start_time ASC, te.id ASC`

const insertEntry = `INSERT INTO timetable_entries (id, subject_id, faculty_id, class_id, classroom_id, time_slot_id, academic_year, effective_from, is_active, created_at, updated_at) VALUES (:id, :subject_id, :faculty_id, :class_id, :classroom_id, :time_slot_id, :academic_year, :effective_from, :is_active, :created_at, :updated_at)`

// TimetableRepository persists timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// BeginTxx starts a transaction on the underlying pool.
func (r *TimetableRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// FindByID loads an entry by id. Returns sql.ErrNoRows when absent.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM timetable_entries WHERE id = $1`
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListActiveByYear returns all active entries of an academic year.
func (r *TimetableRepository) ListActiveByYear(ctx context.Context, academicYear string) ([]models.TimetableEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM timetable_entries WHERE academic_year = $1 AND is_active = TRUE ORDER BY created_at ASC, id ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, academicYear); err != nil {
		return nil, fmt.Errorf("list entries by year: %w", err)
	}
	return entries, nil
}

// FindBySlot returns active entries sharing a time slot within an academic year.
func (r *TimetableRepository) FindBySlot(ctx context.Context, academicYear, timeSlotID string) ([]models.TimetableEntry, error) {
	return r.findBySlot(ctx, r.db, academicYear, timeSlotID)
}

// FindBySlotWithTx is FindBySlot scoped to tx.
func (r *TimetableRepository) FindBySlotWithTx(ctx context.Context, tx *sqlx.Tx, academicYear, timeSlotID string) ([]models.TimetableEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction provided")
	}
	return r.findBySlot(ctx, tx, academicYear, timeSlotID)
}

func (r *TimetableRepository) findBySlot(ctx context.Context, q sqlx.QueryerContext, academicYear, timeSlotID string) ([]models.TimetableEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM timetable_entries WHERE academic_year = $1 AND time_slot_id = $2 AND is_active = TRUE ORDER BY created_at ASC, id ASC`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, q, &entries, query, academicYear, timeSlotID); err != nil {
		return nil, fmt.Errorf("find entries by slot: %w", err)
	}
	return entries, nil
}

// ListByClass returns the detailed timetable of a class.
func (r *TimetableRepository) ListByClass(ctx context.Context, classID, academicYear string) ([]models.TimetableEntryDetail, error) {
	query := entryDetailSelect + ` WHERE te.class_id = $1 AND te.academic_year = $2 AND te.is_active = TRUE ` + entryDetailOrder
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, classID, academicYear); err != nil {
		return nil, fmt.Errorf("list entries by class: %w", err)
	}
	return entries, nil
}

// ListByFaculty returns the detailed teaching schedule of a faculty member.
func (r *TimetableRepository) ListByFaculty(ctx context.Context, facultyID, academicYear string) ([]models.TimetableEntryDetail, error) {
	query := entryDetailSelect + ` WHERE te.faculty_id = $1 AND te.academic_year = $2 AND te.is_active = TRUE ` + entryDetailOrder
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, facultyID, academicYear); err != nil {
		return nil, fmt.Errorf("list entries by faculty: %w", err)
	}
	return entries, nil
}

// ListByClasses returns the detailed timetable of several classes.
func (r *TimetableRepository) ListByClasses(ctx context.Context, classIDs []string, academicYear string) ([]models.TimetableEntryDetail, error) {
	if len(classIDs) == 0 {
		return []models.TimetableEntryDetail{}, nil
	}
	query := entryDetailSelect + ` WHERE te.class_id = ANY($1) AND te.academic_year = $2 AND te.is_active = TRUE ` + entryDetailOrder
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, pq.Array(classIDs), academicYear); err != nil {
		return nil, fmt.Errorf("list entries by classes: %w", err)
	}
	return entries, nil
}

// Create stores a new entry.
func (r *TimetableRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	prepareEntry(entry, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertEntry, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts entries using an existing transaction.
func (r *TimetableRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range entries {
		prepareEntry(&entries[i], now)
		if _, err := sqlx.NamedExecContext(ctx, tx, insertEntry, &entries[i]); err != nil {
			return fmt.Errorf("bulk insert timetable entry: %w", err)
		}
	}
	return nil
}

// DeactivateClassYearWithTx retires the active entries of a class for a year.
func (r *TimetableRepository) DeactivateClassYearWithTx(ctx context.Context, tx *sqlx.Tx, classID, academicYear string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("nil transaction provided")
	}
	res, err := tx.ExecContext(ctx, `UPDATE timetable_entries SET is_active = FALSE, updated_at = $3 WHERE class_id = $1 AND academic_year = $2 AND is_active = TRUE`, classID, academicYear, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate class entries: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Update modifies an entry.
func (r *TimetableRepository) Update(ctx context.Context, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET subject_id = :subject_id, faculty_id = :faculty_id, class_id = :class_id, classroom_id = :classroom_id, time_slot_id = :time_slot_id, academic_year = :academic_year, effective_from = :effective_from, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id. Returns sql.ErrNoRows when nothing was deleted.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func prepareEntry(entry *models.TimetableEntry, now time.Time) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.EffectiveFrom.IsZero() {
		entry.EffectiveFrom = now.Truncate(24 * time.Hour)
	}
	entry.UpdatedAt = now
	entry.IsActive = true
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var entryRowColumns = []string{"id", "subject_id", "faculty_id", "class_id", "classroom_id", "time_slot_id", "academic_year", "effective_from", "is_active", "created_at", "updated_at"}

func TestTimetableRepositoryFindBySlot(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(entryRowColumns).
		AddRow("e-1", "math", "fac-1", "class-1", "hall", "mon-9", "2024-25", now, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_entries WHERE academic_year = $1 AND time_slot_id = $2 AND is_active = TRUE")).
		WithArgs("2024-25", "mon-9").
		WillReturnRows(rows)

	entries, err := repo.FindBySlot(context.Background(), "2024-25", "mon-9")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hall", entries[0].ClassroomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindBySlotWithTx(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_entries WHERE academic_year = $1 AND time_slot_id = $2")).
		WithArgs("2024-25", "mon-9").
		WillReturnRows(sqlmock.NewRows(entryRowColumns))
	mock.ExpectRollback()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	entries, err := repo.FindBySlotWithTx(context.Background(), tx, "2024-25", "mon-9")
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, tx.Rollback())

	_, err = repo.FindBySlotWithTx(context.Background(), nil, "2024-25", "mon-9")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByClass(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)
	now := time.Now()

	columns := append(append([]string{}, entryRowColumns...),
		"subject_name", "subject_code", "credits", "faculty_name", "class_name", "class_section",
		"classroom_name", "room_number", "room_location", "day_of_week", "start_time", "end_time")
	rows := sqlmock.NewRows(columns).AddRow(
		"e-1", "math", "fac-1", "class-1", "hall", "mon-9", "2024-25", now, true, now, now,
		"Algebra", "MA101", 3, "Dr. Rao", "CSE", "A", "Hall", "101", nil, 1, "09:00:00", "10:00:00",
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE te.class_id = $1 AND te.academic_year = $2 AND te.is_active = TRUE ORDER BY ts.day_of_week ASC")).
		WithArgs("class-1", "2024-25").
		WillReturnRows(rows)

	entries, err := repo.ListByClass(context.Background(), "class-1", "2024-25")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Algebra", entries[0].SubjectName)
	assert.Equal(t, models.Monday, entries[0].DayOfWeek)
	assert.Nil(t, entries[0].RoomLocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByClassesEmpty(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	entries, err := repo.ListByClasses(context.Background(), nil, "2024-25")

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkCreateWithTx(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs(sqlmock.AnyArg(), "math", "fac-1", "class-1", "hall", "mon-9", "2024-25", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs("keep-id", "math", "fac-1", "class-1", "hall", "mon-10", "2024-25", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entries := []models.TimetableEntry{
		{SubjectID: "math", FacultyID: "fac-1", ClassID: "class-1", ClassroomID: "hall", TimeSlotID: "mon-9", AcademicYear: "2024-25"},
		{ID: "keep-id", SubjectID: "math", FacultyID: "fac-1", ClassID: "class-1", ClassroomID: "hall", TimeSlotID: "mon-10", AcademicYear: "2024-25"},
	}
	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.BulkCreateWithTx(context.Background(), tx, entries))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "keep-id", entries[1].ID)
	assert.True(t, entries[0].IsActive)
	assert.False(t, entries[0].EffectiveFrom.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeactivateClassYearWithTx(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_entries SET is_active = FALSE")).
		WithArgs("class-1", "2024-25", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	affected, err := repo.DeactivateClassYearWithTx(context.Background(), tx, "class-1", "2024-25")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(4), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_entries WHERE id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestClassRepositoryFindByID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, department_id, name, code, section, strength FROM classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "name", "code", "section", "strength"}).
			AddRow("class-1", "dept-1", "CSE", "CSE-A", "A", nil))

	class, err := repo.FindByID(context.Background(), "class-1")

	require.NoError(t, err)
	assert.Equal(t, "dept-1", class.DepartmentID)
	_, known := class.Size()
	assert.False(t, known)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListIDsByStudent(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM student_classes WHERE student_id = $1")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow("class-1").AddRow("class-2"))

	ids, err := repo.ListIDsByStudent(context.Background(), "student-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"class-1", "class-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListByDepartment(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE department_id = $1")).
		WithArgs("dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "credits", "department_id", "type", "created_at"}).
			AddRow("math", "Algebra", "MA101", 3, "dept-1", "lecture", time.Now()))

	subjects, err := repo.ListByDepartment(context.Background(), "dept-1")

	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, models.RoomTypeLecture, subjects[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryListAssignmentsBySubjects(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty_subjects WHERE subject_id = ANY($1) ORDER BY created_at ASC")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id", "subject_id"}).AddRow("fac-1", "math"))

	assignments, err := repo.ListAssignmentsBySubjects(context.Background(), []string{"math"})
	require.NoError(t, err)
	assert.Equal(t, []models.FacultyAssignment{{FacultyID: "fac-1", SubjectID: "math"}}, assignments)

	empty, err := repo.ListAssignmentsBySubjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryListActive(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimeSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("start_time::text AS start_time")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "day_of_week", "start_time", "end_time", "is_active"}).
			AddRow("mon-9", 1, "09:00:00", "10:00:00", true))

	slots, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "Monday 09:00-10:00", slots[0].Label())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryFindByID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassroomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms WHERE id = $1")).
		WithArgs("lab").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "number", "type", "capacity", "location", "is_active"}).
			AddRow("lab", "Chem Lab", "L2", "lab", 30, "", true))

	room, err := repo.FindByID(context.Background(), "lab")

	require.NoError(t, err)
	assert.Equal(t, models.RoomTypeLab, room.Type)
	assert.Equal(t, 30, room.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

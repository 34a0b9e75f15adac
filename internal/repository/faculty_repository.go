package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

// FacultyRepository reads faculty profiles and their subject assignments.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a faculty repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// ListAssignmentsBySubjects returns faculty_subjects rows for the given subjects in
// insertion order.
func (r *FacultyRepository) ListAssignmentsBySubjects(ctx context.Context, subjectIDs []string) ([]models.FacultyAssignment, error) {
	if len(subjectIDs) == 0 {
		return []models.FacultyAssignment{}, nil
	}
	const query = `SELECT faculty_id, subject_id FROM faculty_subjects WHERE subject_id = ANY($1) ORDER BY created_at ASC, faculty_id ASC, subject_id ASC`
	var assignments []models.FacultyAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return assignments, nil
}

// ListFaculty returns active user profiles with the faculty role.
func (r *FacultyRepository) ListFaculty(ctx context.Context) ([]models.FacultyProfile, error) {
	const query = `SELECT id, full_name, email, employee_id, is_active FROM user_profiles WHERE role = 'faculty' AND is_active = TRUE ORDER BY full_name ASC`
	var faculty []models.FacultyProfile
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

package models

import "time"

// RoomType classifies both subjects and classrooms.
type RoomType string

const (
	RoomTypeLecture  RoomType = "lecture"
	RoomTypeLab      RoomType = "lab"
	RoomTypeTutorial RoomType = "tutorial"
)

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeLecture, RoomTypeLab, RoomTypeTutorial:
		return true
	}
	return false
}

// Subject represents a course offered by a department.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	Credits      int       `db:"credits" json:"credits"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Type         RoomType  `db:"type" json:"type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FacultyAssignment declares that a faculty member teaches a subject.
type FacultyAssignment struct {
	FacultyID string `db:"faculty_id" json:"faculty_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

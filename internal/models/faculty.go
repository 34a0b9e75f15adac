package models

// FacultyProfile is a user profile with the faculty role.
type FacultyProfile struct {
	ID         string  `db:"id" json:"id"`
	FullName   string  `db:"full_name" json:"full_name"`
	Email      string  `db:"email" json:"email"`
	EmployeeID *string `db:"employee_id" json:"employee_id,omitempty"`
	IsActive   bool    `db:"is_active" json:"is_active"`
}

package models

// Department owns classes and subjects.
type Department struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

// Class represents a student cohort (section) belonging to a department.
type Class struct {
	ID           string `db:"id" json:"id"`
	DepartmentID string `db:"department_id" json:"department_id"`
	Name         string `db:"name" json:"name"`
	Code         string `db:"code" json:"code"`
	Section      string `db:"section" json:"section"`
	// Strength is the enrolled head count, when known.
	Strength *int `db:"strength" json:"strength,omitempty"`
}

// Size returns the class size and whether it is known.
func (c Class) Size() (int, bool) {
	if c.Strength == nil || *c.Strength <= 0 {
		return 0, false
	}
	return *c.Strength, true
}

package models

// Classroom is a bookable room.
type Classroom struct {
	ID       string   `db:"id" json:"id"`
	Name     string   `db:"name" json:"name"`
	Number   string   `db:"number" json:"number"`
	Type     RoomType `db:"type" json:"type"`
	Capacity int      `db:"capacity" json:"capacity"`
	Location string   `db:"location" json:"location"`
	IsActive bool     `db:"is_active" json:"is_active"`
}

// Hosts reports whether the room can host a subject of the given type. Lecture
// rooms host any subject when lectureFallback is set.
func (c Classroom) Hosts(subjectType RoomType, lectureFallback bool) bool {
	if c.Type == subjectType {
		return true
	}
	return lectureFallback && c.Type == RoomTypeLecture
}

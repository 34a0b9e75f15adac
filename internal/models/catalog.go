package models

import "sync"

// Catalog is the read-only snapshot a generation run or conflict check works from.
// Build it as a struct literal and pass it by pointer; lookups index lazily.
type Catalog struct {
	Class       Class
	Department  Department
	Subjects    []Subject
	Assignments []FacultyAssignment
	TimeSlots   []TimeSlot
	Classrooms  []Classroom
	// Baseline holds active entries already persisted for the academic year.
	Baseline []TimetableEntry

	once       sync.Once
	subjects   map[string]Subject
	classrooms map[string]Classroom
	slots      map[string]TimeSlot
}

func (c *Catalog) index() {
	c.once.Do(func() {
		c.subjects = make(map[string]Subject, len(c.Subjects))
		for _, s := range c.Subjects {
			c.subjects[s.ID] = s
		}
		c.classrooms = make(map[string]Classroom, len(c.Classrooms))
		for _, r := range c.Classrooms {
			c.classrooms[r.ID] = r
		}
		c.slots = make(map[string]TimeSlot, len(c.TimeSlots))
		for _, s := range c.TimeSlots {
			c.slots[s.ID] = s
		}
	})
}

// Subject looks up a subject by id.
func (c *Catalog) Subject(id string) (Subject, bool) {
	if c == nil {
		return Subject{}, false
	}
	c.index()
	s, ok := c.subjects[id]
	return s, ok
}

// Classroom looks up a classroom by id.
func (c *Catalog) Classroom(id string) (Classroom, bool) {
	if c == nil {
		return Classroom{}, false
	}
	c.index()
	r, ok := c.classrooms[id]
	return r, ok
}

// TimeSlot looks up a time slot by id.
func (c *Catalog) TimeSlot(id string) (TimeSlot, bool) {
	if c == nil {
		return TimeSlot{}, false
	}
	c.index()
	s, ok := c.slots[id]
	return s, ok
}

// ClassSize returns the size of classID when it is the catalog's class and known.
func (c *Catalog) ClassSize(classID string) (int, bool) {
	if c == nil || c.Class.ID == "" || c.Class.ID != classID {
		return 0, false
	}
	return c.Class.Size()
}

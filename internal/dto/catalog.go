package dto

import "github.com/noah-isme/timetable-api/internal/models"

// TimeSlotView is a time slot with its display label.
type TimeSlotView struct {
	models.TimeSlot
	Label string `json:"label"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	AcademicYear string `form:"academicYear"`
	Format       string `form:"format"`
}

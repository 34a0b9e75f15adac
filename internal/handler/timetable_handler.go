package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableManager interface {
	ListByClass(ctx context.Context, classID, academicYear string) ([]models.TimetableEntryDetail, error)
	ListByFaculty(ctx context.Context, facultyID, academicYear string) ([]models.TimetableEntryDetail, error)
	ListByStudent(ctx context.Context, studentID, academicYear string) ([]models.TimetableEntryDetail, error)
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) ([]dto.ConflictRecord, error)
	Create(ctx context.Context, req dto.CreateEntryRequest) (*models.TimetableEntry, error)
	Update(ctx context.Context, id string, req dto.UpdateEntryRequest) (*models.TimetableEntry, error)
	Delete(ctx context.Context, id string) error
}

type timetableExporter interface {
	ClassTimetable(ctx context.Context, classID, academicYear, format string) (*service.ExportFile, error)
}

// TimetableHandler exposes timetable views and manual entry management.
type TimetableHandler struct {
	service  timetableManager
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableManager, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// ClassTimetable godoc
// @Summary Get the timetable of a class
// @Tags Timetable
// @Produce json
// @Param id path string true "Class ID"
// @Param academicYear query string false "Academic year, e.g. 2024-25"
// @Success 200 {object} response.Envelope
// @Router /timetable/classes/{id} [get]
func (h *TimetableHandler) ClassTimetable(c *gin.Context) {
	entries, err := h.service.ListByClass(c.Request.Context(), c.Param("id"), academicYearQuery(c))
	respondEntries(c, entries, err)
}

// FacultyTimetable godoc
// @Summary Get the teaching schedule of a faculty member
// @Tags Timetable
// @Produce json
// @Param id path string true "Faculty ID"
// @Param academicYear query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /timetable/faculty/{id} [get]
func (h *TimetableHandler) FacultyTimetable(c *gin.Context) {
	entries, err := h.service.ListByFaculty(c.Request.Context(), c.Param("id"), academicYearQuery(c))
	respondEntries(c, entries, err)
}

// StudentTimetable godoc
// @Summary Get the timetable of a student
// @Tags Timetable
// @Produce json
// @Param id path string true "Student ID"
// @Param academicYear query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /timetable/students/{id} [get]
func (h *TimetableHandler) StudentTimetable(c *gin.Context) {
	entries, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"), academicYearQuery(c))
	respondEntries(c, entries, err)
}

// Export godoc
// @Summary Export a class timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param academicYear query string false "Academic year"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /timetable/classes/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid export query"))
		return
	}
	file, err := h.exporter.ClassTimetable(c.Request.Context(), c.Param("id"), query.AcademicYear, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// CheckConflicts godoc
// @Summary Check a candidate entry for conflicts
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Candidate entry"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/check [post]
func (h *TimetableHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid conflict check payload"))
		return
	}
	records, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ConflictCheckResponse{Clear: len(records) == 0, Conflicts: records})
}

// CreateEntry godoc
// @Summary Create a timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries [post]
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid timetable entry payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Update a timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateEntryRequest true "Entry changes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries/{id} [put]
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid timetable entry payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// DeleteEntry godoc
// @Summary Delete a timetable entry
// @Tags Timetable
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable/entries/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func respondEntries(c *gin.Context, entries []models.TimetableEntryDetail, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []models.TimetableEntryDetail{}
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

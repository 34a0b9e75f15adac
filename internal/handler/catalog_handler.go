package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type catalogReader interface {
	TimeSlots(ctx context.Context) ([]dto.TimeSlotView, error)
	Classrooms(ctx context.Context) ([]models.Classroom, error)
	Subjects(ctx context.Context) ([]models.Subject, error)
	Classes(ctx context.Context) ([]models.Class, error)
	Faculty(ctx context.Context) ([]models.FacultyProfile, error)
	Refresh(ctx context.Context) error
}

// CatalogHandler exposes catalog read views.
type CatalogHandler struct {
	service catalogReader
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogReader) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// TimeSlots godoc
// @Summary List active time slots
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/time-slots [get]
func (h *CatalogHandler) TimeSlots(c *gin.Context) {
	respondList(c, h.service.TimeSlots)
}

// Classrooms godoc
// @Summary List active classrooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/classrooms [get]
func (h *CatalogHandler) Classrooms(c *gin.Context) {
	respondList(c, h.service.Classrooms)
}

// Subjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/subjects [get]
func (h *CatalogHandler) Subjects(c *gin.Context) {
	respondList(c, h.service.Subjects)
}

// Classes godoc
// @Summary List classes
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/classes [get]
func (h *CatalogHandler) Classes(c *gin.Context) {
	respondList(c, h.service.Classes)
}

// Faculty godoc
// @Summary List active faculty
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/faculty [get]
func (h *CatalogHandler) Faculty(c *gin.Context) {
	respondList(c, h.service.Faculty)
}

// Refresh godoc
// @Summary Drop cached catalog views
// @Tags Catalog
// @Success 204
// @Router /catalog/refresh [post]
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func respondList[T any](c *gin.Context, load func(context.Context) ([]T, error)) {
	items, err := load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

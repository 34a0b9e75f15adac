package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*models.GenerationResult, error)
	GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.AsyncRunResponse, error)
	GetRun(ctx context.Context, runID string) (*models.GenerationRun, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
}

// TimetableGeneratorHandler exposes automated generation endpoints.
type TimetableGeneratorHandler struct {
	service timetableGenerator
}

// NewTimetableGeneratorHandler constructs the handler.
func NewTimetableGeneratorHandler(svc timetableGenerator) *TimetableGeneratorHandler {
	return &TimetableGeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable preview for a class
// @Description Runs the greedy scheduler and keeps the result as a preview until saved or expired. Partial results are returned with 200 and list their unscheduled obligations.
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toGenerateResponse(result, models.RunStatusCompleted), map[string]interface{}{
		"mode":        "preview",
		"entries":     len(result.Entries),
		"unscheduled": len(result.Unscheduled),
	})
}

// GenerateAsync godoc
// @Summary Queue a timetable generation run
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Router /timetable/generate/async [post]
func (h *TimetableGeneratorHandler) GenerateAsync(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid generation payload"))
		return
	}
	ack, err := h.service.GenerateAsync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}

// GetRun godoc
// @Summary Get the status and result of a generation run
// @Tags Generator
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs/{id} [get]
func (h *TimetableGeneratorHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}

// Save godoc
// @Summary Persist a previewed generation run
// @Tags Generator
// @Produce json
// @Param id path string true "Run ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/runs/{id}/save [post]
func (h *TimetableGeneratorHandler) Save(c *gin.Context) {
	saved, err := h.service.Save(c.Request.Context(), dto.SaveTimetableRequest{RunID: c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

func toGenerateResponse(result *models.GenerationResult, status models.RunStatus) dto.GenerateTimetableResponse {
	return dto.GenerateTimetableResponse{
		RunID:       result.RunID,
		Status:      status,
		Policy:      result.Policy,
		Entries:     result.Entries,
		Unscheduled: result.Unscheduled,
		Partial:     result.Partial(),
		Aborted:     result.Aborted,
	}
}

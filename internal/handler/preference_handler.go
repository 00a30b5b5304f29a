package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
	"github.com/noah-isme/sma-widget-api/pkg/response"
)

type preferenceService interface {
	SaveTimetable(ctx context.Context, deviceID string, req dto.SaveTimetableRequest) (models.Timetable, error)
	SaveExams(ctx context.Context, deviceID string, req dto.SaveExamsRequest) (models.ExamTimetable, error)
	SetDebugClock(ctx context.Context, deviceID string, req dto.SetDebugClockRequest) (dto.DebugClockResponse, error)
	ClearDebugClock(ctx context.Context, deviceID string) error
	DebugClock(ctx context.Context) (dto.DebugClockResponse, error)
}

// PreferenceHandler receives the documents the mobile app syncs.
type PreferenceHandler struct {
	service preferenceService
}

// NewPreferenceHandler builds a new handler.
func NewPreferenceHandler(service preferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// SaveTimetable godoc
// @Summary Store the weekly timetable
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Timetable document"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /preferences/timetable [put]
func (h *PreferenceHandler) SaveTimetable(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	doc, err := h.service.SaveTimetable(c.Request.Context(), deviceFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// SaveExams godoc
// @Summary Store the exam timetable
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.SaveExamsRequest true "Exam timetable document"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /preferences/exams [put]
func (h *PreferenceHandler) SaveExams(c *gin.Context) {
	var req dto.SaveExamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}
	doc, err := h.service.SaveExams(c.Request.Context(), deviceFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// GetDebugClock godoc
// @Summary Show the debug clock override
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /preferences/debug-clock [get]
func (h *PreferenceHandler) GetDebugClock(c *gin.Context) {
	res, err := h.service.DebugClock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// SetDebugClock godoc
// @Summary Override the effective time
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.SetDebugClockRequest true "Debug clock"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /preferences/debug-clock [put]
func (h *PreferenceHandler) SetDebugClock(c *gin.Context) {
	var req dto.SetDebugClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid debug clock payload"))
		return
	}
	res, err := h.service.SetDebugClock(c.Request.Context(), deviceFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ClearDebugClock godoc
// @Summary Remove the debug clock override
// @Tags Preferences
// @Success 204
// @Router /preferences/debug-clock [delete]
func (h *PreferenceHandler) ClearDebugClock(c *gin.Context) {
	if err := h.service.ClearDebugClock(c.Request.Context(), deviceFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
	"github.com/noah-isme/sma-widget-api/pkg/response"
)

type scheduleService interface {
	Today(ctx context.Context) (*dto.TodaySchedule, error)
	Tomorrow(ctx context.Context) (*dto.DayLessons, error)
	UpcomingExams(ctx context.Context, limit int) (*dto.UpcomingExams, error)
}

// ScheduleHandler serves lesson and exam projections.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs a new schedule handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Today godoc
// @Summary Today's merged schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	res, err := h.service.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Tomorrow godoc
// @Summary Tomorrow's lessons
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/tomorrow [get]
func (h *ScheduleHandler) Tomorrow(c *gin.Context) {
	res, err := h.service.Tomorrow(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// UpcomingExams godoc
// @Summary Upcoming exams with countdowns
// @Tags Exams
// @Produce json
// @Param limit query int false "Maximum number of exams"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams/upcoming [get]
func (h *ScheduleHandler) UpcomingExams(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
		return
	}
	res, err := h.service.UpcomingExams(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

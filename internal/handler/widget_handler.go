package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/middleware"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
	"github.com/noah-isme/sma-widget-api/pkg/response"
)

type widgetRenderer interface {
	Render(ctx context.Context, kind models.WidgetKind, query dto.WidgetSizeQuery) (*dto.WidgetView, bool, error)
}

type updatePlanner interface {
	Plan(ctx context.Context) (models.UpdatePlan, error)
}

type refreshBroadcaster interface {
	Broadcast(ctx context.Context, req dto.BroadcastRequest) (*dto.BroadcastResponse, error)
}

type widgetRegistry interface {
	Register(ctx context.Context, deviceID string, req dto.WidgetInstanceRequest) (*models.WidgetInstance, error)
	Unregister(ctx context.Context, deviceID, id string) error
	List(ctx context.Context, deviceID string) ([]models.WidgetInstance, error)
}

// WidgetHandler serves widget views, the update plan and the widget registry.
type WidgetHandler struct {
	renderer widgetRenderer
	planner  updatePlanner
	refresh  refreshBroadcaster
	registry widgetRegistry
}

// NewWidgetHandler constructs a widget handler.
func NewWidgetHandler(renderer widgetRenderer, planner updatePlanner, refresh refreshBroadcaster, registry widgetRegistry) *WidgetHandler {
	return &WidgetHandler{renderer: renderer, planner: planner, refresh: refresh, registry: registry}
}

// Render godoc
// @Summary Render a widget view
// @Tags Widgets
// @Produce json
// @Param kind path string true "Widget kind"
// @Param width query int false "Widget width in dp"
// @Param height query int false "Widget height in dp"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /widgets/{kind} [get]
func (h *WidgetHandler) Render(c *gin.Context) {
	var query dto.WidgetSizeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid widget size"))
		return
	}
	view, hit, err := h.renderer.Render(c.Request.Context(), models.WidgetKind(c.Param("kind")), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, nil)
}

// Updates godoc
// @Summary Alarm plan for widget refreshes
// @Tags Widgets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /widgets/updates [get]
func (h *WidgetHandler) Updates(c *gin.Context) {
	plan, err := h.planner.Plan(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, map[string]interface{}{"alarm_count": len(plan.Alarms)})
}

// Broadcast godoc
// @Summary Request a widget refresh
// @Tags Widgets
// @Accept json
// @Produce json
// @Param payload body dto.BroadcastRequest true "Refresh action"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /widgets/broadcast [post]
func (h *WidgetHandler) Broadcast(c *gin.Context) {
	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid broadcast payload"))
		return
	}
	res, err := h.refresh.Broadcast(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res, nil)
}

// ListInstances godoc
// @Summary List widgets placed by the device
// @Tags Widgets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /widgets/instances [get]
func (h *WidgetHandler) ListInstances(c *gin.Context) {
	instances, err := h.registry.List(c.Request.Context(), deviceFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instances, nil)
}

// RegisterInstance godoc
// @Summary Register a placed widget
// @Tags Widgets
// @Accept json
// @Produce json
// @Param payload body dto.WidgetInstanceRequest true "Widget instance"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /widgets/instances [post]
func (h *WidgetHandler) RegisterInstance(c *gin.Context) {
	var req dto.WidgetInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid widget payload"))
		return
	}
	instance, err := h.registry.Register(c.Request.Context(), deviceFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instance)
}

// DeleteInstance godoc
// @Summary Remove a placed widget
// @Tags Widgets
// @Param id path string true "Widget instance id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /widgets/instances/{id} [delete]
func (h *WidgetHandler) DeleteInstance(c *gin.Context) {
	if err := h.registry.Unregister(c.Request.Context(), deviceFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

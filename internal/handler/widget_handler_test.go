package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/middleware"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

type widgetRendererMock struct {
	lastKind  models.WidgetKind
	lastQuery dto.WidgetSizeQuery
	hit       bool
	err       error
}

func (m *widgetRendererMock) Render(ctx context.Context, kind models.WidgetKind, query dto.WidgetSizeQuery) (*dto.WidgetView, bool, error) {
	m.lastKind, m.lastQuery = kind, query
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.WidgetView{Kind: string(kind), Title: "Maths"}, m.hit, nil
}

type plannerMock struct {
	plan models.UpdatePlan
}

func (m *plannerMock) Plan(ctx context.Context) (models.UpdatePlan, error) {
	return m.plan, nil
}

type broadcasterMock struct {
	err error
}

func (m *broadcasterMock) Broadcast(ctx context.Context, req dto.BroadcastRequest) (*dto.BroadcastResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.BroadcastResponse{JobID: "job-1", Action: req.Action}, nil
}

type registryMock struct {
	deviceID string
	removed  string
}

func (m *registryMock) Register(ctx context.Context, deviceID string, req dto.WidgetInstanceRequest) (*models.WidgetInstance, error) {
	m.deviceID = deviceID
	return &models.WidgetInstance{ID: "w-1", DeviceID: deviceID, Kind: models.WidgetKind(req.Kind)}, nil
}

func (m *registryMock) Unregister(ctx context.Context, deviceID, id string) error {
	if id != "w-1" {
		return appErrors.Clone(appErrors.ErrNotFound, "widget instance not found")
	}
	m.deviceID, m.removed = deviceID, id
	return nil
}

func (m *registryMock) List(ctx context.Context, deviceID string) ([]models.WidgetInstance, error) {
	return []models.WidgetInstance{}, nil
}

func widgetRouter(h *WidgetHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextDeviceKey, &models.DeviceClaims{DeviceID: "device-1"})
	})
	r.GET("/widgets/updates", h.Updates)
	r.POST("/widgets/broadcast", h.Broadcast)
	r.GET("/widgets/instances", h.ListInstances)
	r.POST("/widgets/instances", h.RegisterInstance)
	r.DELETE("/widgets/instances/:id", h.DeleteInstance)
	r.GET("/widgets/:kind", h.Render)
	return r
}

func TestWidgetHandlerRender(t *testing.T) {
	renderer := &widgetRendererMock{hit: true}
	router := widgetRouter(NewWidgetHandler(renderer, &plannerMock{}, &broadcasterMock{}, &registryMock{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets/today_schedule?width=250&height=110", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.WidgetTodaySchedule, renderer.lastKind)
	assert.Equal(t, dto.WidgetSizeQuery{Width: 250, Height: 110}, renderer.lastQuery)

	var body struct {
		Data dto.WidgetView         `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Maths", body.Data.Title)
	assert.Equal(t, true, body.Meta["cache_hit"])
}

func TestWidgetHandlerRenderErrors(t *testing.T) {
	renderer := &widgetRendererMock{err: appErrors.Clone(appErrors.ErrUnknownWidget, "unknown widget kind")}
	router := widgetRouter(NewWidgetHandler(renderer, &plannerMock{}, &broadcasterMock{}, &registryMock{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets/clock", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets/today_schedule?width=-4", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWidgetHandlerUpdates(t *testing.T) {
	planner := &plannerMock{plan: models.UpdatePlan{ActiveWidgets: 1, Alarms: []models.Alarm{{RequestCode: models.MidnightRequestCode, Action: models.ActionUpdateWidgets}}}}
	router := widgetRouter(NewWidgetHandler(&widgetRendererMock{}, planner, &broadcasterMock{}, &registryMock{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets/updates", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.UpdatePlan      `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Alarms, 1)
	assert.Equal(t, float64(1), body.Meta["alarm_count"])
}

func TestWidgetHandlerBroadcast(t *testing.T) {
	router := widgetRouter(NewWidgetHandler(&widgetRendererMock{}, &plannerMock{}, &broadcasterMock{}, &registryMock{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/widgets/broadcast", bytes.NewReader([]byte(`{"action":"UPDATE_WIDGETS"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/widgets/broadcast", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	full := widgetRouter(NewWidgetHandler(&widgetRendererMock{}, &plannerMock{}, &broadcasterMock{err: appErrors.Clone(appErrors.ErrQueueFull, "refresh queue is full")}, &registryMock{}))
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/widgets/broadcast", bytes.NewReader([]byte(`{"action":"UPDATE_WIDGETS"}`)))
	req.Header.Set("Content-Type", "application/json")
	full.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWidgetHandlerInstances(t *testing.T) {
	registry := &registryMock{}
	router := widgetRouter(NewWidgetHandler(&widgetRendererMock{}, &plannerMock{}, &broadcasterMock{}, registry))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/widgets/instances", bytes.NewReader([]byte(`{"kind":"unified_full"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "device-1", registry.deviceID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets/instances", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/widgets/instances/w-2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/widgets/instances/w-1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "w-1", registry.removed)
}

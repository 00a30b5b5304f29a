package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

type widgetInstanceStore interface {
	Create(ctx context.Context, instance *models.WidgetInstance) error
	Delete(ctx context.Context, id, deviceID string) (bool, error)
	ListByDevice(ctx context.Context, deviceID string) ([]models.WidgetInstance, error)
}

// WidgetRegistryService records which widgets are placed on a device. Every
// change recomputes the update plan so the first widget starts alarms and the
// last one cancels them.
type WidgetRegistryService struct {
	store     widgetInstanceStore
	planner   updatePlanner
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewWidgetRegistryService constructs a WidgetRegistryService. planner may be nil.
func NewWidgetRegistryService(store widgetInstanceStore, planner updatePlanner, validate *validator.Validate, logger *zap.Logger) *WidgetRegistryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetRegistryService{store: store, planner: planner, validator: validate, logger: logger, now: time.Now}
}

// Register records a widget instance for the device.
func (s *WidgetRegistryService) Register(ctx context.Context, deviceID string, req dto.WidgetInstanceRequest) (*models.WidgetInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid widget payload")
	}
	kind := models.WidgetKind(req.Kind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownWidget, fmt.Sprintf("unknown widget kind %q", req.Kind))
	}

	instance := &models.WidgetInstance{
		ID:        req.ID,
		DeviceID:  deviceID,
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	}
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	if err := s.store.Create(ctx, instance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register widget")
	}
	s.replan(ctx)
	return instance, nil
}

// Unregister removes a widget instance of the device.
func (s *WidgetRegistryService) Unregister(ctx context.Context, deviceID, id string) error {
	removed, err := s.store.Delete(ctx, id, deviceID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove widget")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "widget instance not found")
	}
	s.replan(ctx)
	return nil
}

// List returns the widgets placed on the device.
func (s *WidgetRegistryService) List(ctx context.Context, deviceID string) ([]models.WidgetInstance, error) {
	instances, err := s.store.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list widgets")
	}
	if instances == nil {
		instances = []models.WidgetInstance{}
	}
	return instances, nil
}

// replan refreshes the planned-alarm metrics after the set of installed
// widgets changed. The plan itself is served by the updates endpoint.
func (s *WidgetRegistryService) replan(ctx context.Context) {
	if s.planner == nil {
		return
	}
	plan, err := s.planner.Plan(ctx)
	if err != nil {
		s.logger.Warn("failed to recompute update plan", zap.Error(err))
		return
	}
	s.logger.Debug("update plan refreshed", zap.Int("active_widgets", plan.ActiveWidgets), zap.Int("alarms", len(plan.Alarms)))
}

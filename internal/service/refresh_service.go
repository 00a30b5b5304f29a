package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
	"github.com/noah-isme/sma-widget-api/pkg/jobs"
)

// JobTypeWidgetRefresh routes refresh broadcasts on the job queue.
const JobTypeWidgetRefresh = "widget_refresh"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type updatePlanner interface {
	Plan(ctx context.Context) (models.UpdatePlan, error)
}

// RefreshService turns update broadcasts into background refresh jobs.
type RefreshService struct {
	queue   jobEnqueuer
	cache   cacheInvalidator
	planner updatePlanner
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRefreshService constructs a RefreshService.
func NewRefreshService(queue jobEnqueuer, cache cacheInvalidator, planner updatePlanner, metrics *MetricsService, logger *zap.Logger) *RefreshService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshService{queue: queue, cache: cache, planner: planner, metrics: metrics, logger: logger}
}

// Broadcast validates the action and enqueues a refresh job for it.
func (s *RefreshService) Broadcast(ctx context.Context, req dto.BroadcastRequest) (*dto.BroadcastResponse, error) {
	action := models.UpdateAction(req.Action)
	groups := action.Groups()
	if len(groups) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", req.Action))
	}

	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeWidgetRefresh, Payload: action}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrQueueFull, "refresh queue is full")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue refresh")
	}

	names := make([]string, 0, len(groups))
	for _, group := range groups {
		names = append(names, string(group))
	}
	s.logger.Info("widget refresh enqueued", zap.String("job_id", job.ID), zap.String("action", req.Action))
	return &dto.BroadcastResponse{JobID: job.ID, Action: req.Action, Groups: names}, nil
}

// Process is the queue handler: it drops cached views of every group the
// action refreshes and recomputes the alarm plan. The plan is not stored;
// recomputing it refreshes the planned-alarm metrics, and devices fetch the
// plan itself from the updates endpoint.
func (s *RefreshService) Process(ctx context.Context, job jobs.Job) error {
	action, ok := job.Payload.(models.UpdateAction)
	if !ok {
		s.logger.Error("unexpected refresh payload", zap.String("job_id", job.ID))
		return nil
	}

	err := s.refresh(ctx, action)
	s.metrics.RecordRefresh(action, err)
	if err != nil {
		return err
	}
	s.logger.Debug("widget refresh processed", zap.String("job_id", job.ID), zap.String("action", string(action)))
	return nil
}

func (s *RefreshService) refresh(ctx context.Context, action models.UpdateAction) error {
	if s.cache != nil {
		for _, group := range action.Groups() {
			if err := s.cache.Invalidate(ctx, WidgetGroupCachePattern(group)); err != nil {
				return fmt.Errorf("invalidate %s widgets: %w", group, err)
			}
		}
	}
	plan, err := s.planner.Plan(ctx)
	if err != nil {
		return fmt.Errorf("plan updates: %w", err)
	}
	s.logger.Debug("update plan refreshed", zap.Int("alarms", len(plan.Alarms)), zap.Bool("truncated", plan.Truncated))
	return nil
}

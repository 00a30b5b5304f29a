package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-widget-api/internal/models"
)

// WidgetInstanceRepository tracks widgets placed on home screens.
type WidgetInstanceRepository struct {
	db *sqlx.DB
}

// NewWidgetInstanceRepository constructs the repository.
func NewWidgetInstanceRepository(db *sqlx.DB) *WidgetInstanceRepository {
	return &WidgetInstanceRepository{db: db}
}

// Create registers a widget instance, ignoring duplicates.
func (r *WidgetInstanceRepository) Create(ctx context.Context, instance *models.WidgetInstance) error {
	const query = `INSERT INTO widget_instances (id, device_id, kind, created_at)
VALUES (:id, :device_id, :kind, :created_at)
ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, instance); err != nil {
		return fmt.Errorf("create widget instance: %w", err)
	}
	return nil
}

// Delete removes a device's widget instance and reports whether it existed.
func (r *WidgetInstanceRepository) Delete(ctx context.Context, id, deviceID string) (bool, error) {
	const query = `DELETE FROM widget_instances WHERE id = $1 AND device_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, deviceID)
	if err != nil {
		return false, fmt.Errorf("delete widget instance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete widget instance rows: %w", err)
	}
	return affected > 0, nil
}

// ListByDevice returns a device's widgets, oldest first.
func (r *WidgetInstanceRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.WidgetInstance, error) {
	const query = `SELECT id, device_id, kind, created_at FROM widget_instances WHERE device_id = $1 ORDER BY created_at ASC`
	var instances []models.WidgetInstance
	if err := r.db.SelectContext(ctx, &instances, query, deviceID); err != nil {
		return nil, fmt.Errorf("list widget instances: %w", err)
	}
	return instances, nil
}

// CountActive returns how many widgets are installed across all devices.
func (r *WidgetInstanceRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM widget_instances`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count widget instances: %w", err)
	}
	return count, nil
}

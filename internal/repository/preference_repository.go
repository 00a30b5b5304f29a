package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-widget-api/internal/models"
)

const upsertPreferenceQuery = `INSERT INTO preferences (key, value, updated_by, updated_at)
VALUES (:key, :value, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`

// PreferenceRepository persists the key/value documents mirrored from the app.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListByKeys returns stored preferences whose key is in keys.
func (r *PreferenceRepository) ListByKeys(ctx context.Context, keys []string) ([]models.Preference, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT key, value, updated_by, updated_at
FROM preferences WHERE key IN (%s) ORDER BY key ASC`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	var prefs []models.Preference
	if err := r.db.SelectContext(ctx, &prefs, query, args...); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Upsert inserts or replaces a single preference.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, upsertPreferenceQuery, pref); err != nil {
		return fmt.Errorf("upsert preference %s: %w", pref.Key, err)
	}
	return nil
}

// BulkUpsert writes several preferences atomically.
func (r *PreferenceRepository) BulkUpsert(ctx context.Context, prefs []models.Preference) error {
	if len(prefs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preference tx: %w", err)
	}
	for i := range prefs {
		prefs[i].UpdatedAt = time.Now().UTC()
		if _, err := tx.NamedExecContext(ctx, upsertPreferenceQuery, prefs[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk upsert preference %s: %w", prefs[i].Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preference tx: %w", err)
	}
	return nil
}

// DeleteKeys removes the given preferences.
func (r *PreferenceRepository) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM preferences WHERE key IN (%s)`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}

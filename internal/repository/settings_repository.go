package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatmali/trollr/internal/model"
)

// SettingsRepository persists the single process-wide timer
// configuration row. Runtime liveness is never stored here: whatever
// happens before a restart, the timer always comes back idle.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load returns the stored configuration, or defaults when nothing has
// been saved yet. Loaded values are sanitized: non-positive durations
// fall back to the defaults.
func (r *SettingsRepository) Load(ctx context.Context) (model.TimerSettings, error) {
	settings := model.DefaultTimerSettings()

	row := r.db.QueryRowContext(
		ctx,
		`SELECT work_duration_seconds, break_duration_seconds,
		        notifications_enabled, sounds_enabled, linked_task_id, updated_at
		 FROM timer_settings
		 WHERE id = 1`,
	)

	var work, breakSecs int
	var notifications, sounds bool
	var linkedTaskID sql.NullString
	var updatedAt string
	err := row.Scan(&work, &breakSecs, &notifications, &sounds, &linkedTaskID, &updatedAt)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("scan timer settings: %w", err)
	}

	if work > 0 {
		settings.WorkDurationSeconds = work
	}
	if breakSecs > 0 {
		settings.BreakDurationSeconds = breakSecs
	}
	settings.NotificationsEnabled = notifications
	settings.SoundsEnabled = sounds
	if linkedTaskID.Valid {
		settings.LinkedTaskID = linkedTaskID.String
	}
	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return settings, fmt.Errorf("parse timer settings updated_at: %w", err)
	}

	return settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings model.TimerSettings) error {
	var linkedTaskID interface{}
	if settings.LinkedTaskID != "" {
		linkedTaskID = settings.LinkedTaskID
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_settings (
			id, work_duration_seconds, break_duration_seconds,
			notifications_enabled, sounds_enabled, linked_task_id, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			work_duration_seconds = excluded.work_duration_seconds,
			break_duration_seconds = excluded.break_duration_seconds,
			notifications_enabled = excluded.notifications_enabled,
			sounds_enabled = excluded.sounds_enabled,
			linked_task_id = excluded.linked_task_id,
			updated_at = excluded.updated_at`,
		settings.WorkDurationSeconds,
		settings.BreakDurationSeconds,
		settings.NotificationsEnabled,
		settings.SoundsEnabled,
		linkedTaskID,
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save timer settings: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fatmali/trollr/internal/model"
)

// SessionRepository is the durable session ledger: append on start,
// amend on pause and finalization, query in insertion order.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, session *model.PomodoroSession) error {
	var taskID interface{}
	if session.TaskID != "" {
		taskID = session.TaskID
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO pomodoro_sessions (
			id, user_id, task_id, mode, started_at, scheduled_end_at,
			actual_end_at, status, interruptions, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		taskID,
		session.Mode,
		formatTime(session.StartedAt),
		formatTime(session.ScheduledEndAt),
		formatTimePtr(session.ActualEndAt),
		session.Status,
		session.Interruptions,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Finalize moves an in-progress session to a terminal status. Unknown ids
// and already-final rows are silent no-ops.
func (r *SessionRepository) Finalize(ctx context.Context, sessionID, status string, endedAt time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE pomodoro_sessions
		 SET status = ?, actual_end_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		formatTime(endedAt),
		formatTime(endedAt),
		sessionID,
		model.SessionInProgress,
	)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	return nil
}

// SetInterruptions records the pause count for a session.
func (r *SessionRepository) SetInterruptions(ctx context.Context, sessionID string, interruptions int, now time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE pomodoro_sessions SET interruptions = ?, updated_at = ? WHERE id = ?`,
		interruptions,
		formatTime(now),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("set session interruptions: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*model.PomodoroSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, task_id, mode, started_at, scheduled_end_at,
		        actual_end_at, status, interruptions, created_at, updated_at
		 FROM pomodoro_sessions
		 WHERE id = ?`,
		sessionID,
	)
	return scanSession(row)
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]model.PomodoroSession, error) {
	return r.list(
		ctx,
		`SELECT id, user_id, task_id, mode, started_at, scheduled_end_at,
		        actual_end_at, status, interruptions, created_at, updated_at
		 FROM pomodoro_sessions
		 WHERE user_id = ?
		 ORDER BY rowid`,
		userID,
	)
}

func (r *SessionRepository) ListByTask(ctx context.Context, taskID string) ([]model.PomodoroSession, error) {
	return r.list(
		ctx,
		`SELECT id, user_id, task_id, mode, started_at, scheduled_end_at,
		        actual_end_at, status, interruptions, created_at, updated_at
		 FROM pomodoro_sessions
		 WHERE task_id = ?
		 ORDER BY rowid`,
		taskID,
	)
}

func (r *SessionRepository) list(ctx context.Context, query string, arg interface{}) ([]model.PomodoroSession, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.PomodoroSession, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(s scanner) (*model.PomodoroSession, error) {
	session := model.PomodoroSession{}
	var taskID sql.NullString
	var startedAt, scheduledEndAt, createdAt, updatedAt string
	var actualEndAt sql.NullString

	err := s.Scan(
		&session.ID,
		&session.UserID,
		&taskID,
		&session.Mode,
		&startedAt,
		&scheduledEndAt,
		&actualEndAt,
		&session.Status,
		&session.Interruptions,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if taskID.Valid {
		session.TaskID = taskID.String
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if session.ScheduledEndAt, err = parseTime(scheduledEndAt); err != nil {
		return nil, fmt.Errorf("parse session scheduled_end_at: %w", err)
	}
	if actualEndAt.Valid {
		parsed, parseErr := parseTime(actualEndAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session actual_end_at: %w", parseErr)
		}
		session.ActualEndAt = &parsed
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &session, nil
}

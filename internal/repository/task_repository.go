package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatmali/trollr/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Insert(ctx context.Context, task *model.Task) error {
	tags, err := encodeTags(task.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (
			id, user_id, title, description, code_snippet, priority, status,
			tags, deadline, completed_at, pomodoros_completed,
			pomodoros_abandoned, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		nullableString(task.CodeSnippet),
		task.Priority,
		task.Status,
		tags,
		formatTimePtr(task.Deadline),
		formatTimePtr(task.CompletedAt),
		task.Pomodoros.Completed,
		task.Pomodoros.Abandoned,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	tags, err := encodeTags(task.Tags)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks
		 SET title = ?,
		     description = ?,
		     code_snippet = ?,
		     priority = ?,
		     status = ?,
		     tags = ?,
		     deadline = ?,
		     completed_at = ?,
		     pomodoros_completed = ?,
		     pomodoros_abandoned = ?,
		     updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Description,
		nullableString(task.CodeSnippet),
		task.Priority,
		task.Status,
		tags,
		formatTimePtr(task.Deadline),
		formatTimePtr(task.CompletedAt),
		task.Pomodoros.Completed,
		task.Pomodoros.Abandoned,
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// IncrementPomodoros bumps a task's completed or abandoned counter.
// A missing task id is a silent no-op.
func (r *TaskRepository) IncrementPomodoros(ctx context.Context, taskID string, completed bool, now time.Time) error {
	column := "pomodoros_abandoned"
	if completed {
		column = "pomodoros_completed"
	}
	query := fmt.Sprintf(
		`UPDATE tasks SET %s = %s + 1, updated_at = ? WHERE id = ?`,
		column, column,
	)
	if _, err := r.db.ExecContext(ctx, query, formatTime(now), taskID); err != nil {
		return fmt.Errorf("increment task pomodoros: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, title, description, code_snippet, priority, status,
		        tags, deadline, completed_at, pomodoros_completed,
		        pomodoros_abandoned, created_at, updated_at
		 FROM tasks
		 WHERE id = ?`,
		taskID,
	)
	return scanTask(row)
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, title, description, code_snippet, priority, status,
		        tags, deadline, completed_at, pomodoros_completed,
		        pomodoros_abandoned, created_at, updated_at
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(s scanner) (*model.Task, error) {
	task := model.Task{}
	var codeSnippet sql.NullString
	var tags string
	var deadline, completedAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&codeSnippet,
		&task.Priority,
		&task.Status,
		&tags,
		&deadline,
		&completedAt,
		&task.Pomodoros.Completed,
		&task.Pomodoros.Abandoned,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if codeSnippet.Valid {
		task.CodeSnippet = codeSnippet.String
	}
	if task.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if deadline.Valid {
		parsed, parseErr := parseTime(deadline.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse task deadline: %w", parseErr)
		}
		task.Deadline = &parsed
	}
	if completedAt.Valid {
		parsed, parseErr := parseTime(completedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse task completed_at: %w", parseErr)
		}
		task.CompletedAt = &parsed
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}

	return &task, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode task tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode task tags: %w", err)
	}
	return tags, nil
}

func nullableString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

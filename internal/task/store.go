package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fatmali/trollr/internal/model"
	"github.com/fatmali/trollr/internal/repository"
)

// Store owns the task board. The timer core only ever reaches it
// through UpdateTaskPomodoros; everything else serves the surrounding
// application.
type Store struct {
	repo *repository.TaskRepository
	now  func() time.Time
}

// Filter narrows ListFiltered results. UserID is required; empty slices
// and strings match everything.
type Filter struct {
	UserID      string
	Status      []string
	Priority    []string
	Tags        []string
	SearchQuery string
}

// CreateInput carries the fields of a new task.
type CreateInput struct {
	UserID      string
	Title       string
	Description string
	Priority    string
	Deadline    *time.Time
	Tags        []string
	CodeSnippet string
}

func NewStore(repo *repository.TaskRepository) *Store {
	return &Store{repo: repo, now: time.Now}
}

func (s *Store) Create(ctx context.Context, input CreateInput) (*model.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("task title is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}

	now := s.now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Title:       input.Title,
		Description: input.Description,
		CodeSnippet: input.CodeSnippet,
		Priority:    priority,
		Status:      model.TaskNotStarted,
		Tags:        input.Tags,
		Deadline:    input.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}

	if err := s.repo.Insert(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) GetTaskByID(ctx context.Context, taskID string) (*model.Task, error) {
	return s.repo.GetByID(ctx, taskID)
}

func (s *Store) Delete(ctx context.Context, taskID string) error {
	return s.repo.Delete(ctx, taskID)
}

// SetStatus moves a task between board columns. Completing stamps
// completedAt; marking overdue clears it.
func (s *Store) SetStatus(ctx context.Context, taskID, status string) (*model.Task, error) {
	if !model.ValidTaskStatus(status) {
		return nil, fmt.Errorf("invalid task status %q", status)
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task.Status = status
	task.UpdatedAt = now
	switch status {
	case model.TaskCompleted:
		task.CompletedAt = &now
	case model.TaskOverdue:
		task.CompletedAt = nil
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) CompleteTask(ctx context.Context, taskID string) (*model.Task, error) {
	return s.SetStatus(ctx, taskID, model.TaskCompleted)
}

func (s *Store) MarkTaskInProgress(ctx context.Context, taskID string) (*model.Task, error) {
	return s.SetStatus(ctx, taskID, model.TaskInProgress)
}

// UpdateTaskPomodoros bumps the completed or abandoned pomodoro counter
// of a task. The timer calls this once per finalized work session; a
// task that no longer exists is a no-op.
func (s *Store) UpdateTaskPomodoros(ctx context.Context, taskID string, completed bool) error {
	err := s.repo.IncrementPomodoros(ctx, taskID, completed, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// ListFiltered returns the user's tasks matching the filter, in
// creation order.
func (s *Store) ListFiltered(ctx context.Context, filter Filter) ([]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, filter.UserID)
	if err != nil {
		return nil, err
	}

	matched := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !matchesFilter(task, filter) {
			continue
		}
		matched = append(matched, task)
	}
	return matched, nil
}

func matchesFilter(task model.Task, filter Filter) bool {
	if len(filter.Status) > 0 && !contains(filter.Status, task.Status) {
		return false
	}
	if len(filter.Priority) > 0 && !contains(filter.Priority, task.Priority) {
		return false
	}
	if len(filter.Tags) > 0 && !anyTagMatches(task.Tags, filter.Tags) {
		return false
	}
	if filter.SearchQuery != "" {
		query := strings.ToLower(filter.SearchQuery)
		if !strings.Contains(strings.ToLower(task.Title), query) &&
			!strings.Contains(strings.ToLower(task.Description), query) {
			return false
		}
	}
	return true
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}

func anyTagMatches(taskTags, wanted []string) bool {
	for _, tag := range taskTags {
		if contains(wanted, tag) {
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatmali/trollr/internal/model"
)

func newTask(id, userID, title string, createdAt time.Time) *model.Task {
	return &model.Task{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Priority:  model.PriorityMedium,
		Status:    model.TaskNotStarted,
		Tags:      []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestTaskRepositoryInsertAndGet(t *testing.T) {
	database := openTestDB(t)
	repo := NewTaskRepository(database)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	deadline := now.Add(48 * time.Hour)
	task := newTask("t1", "u1", "refactor scheduler", now)
	task.Description = "split the polling loop"
	task.CodeSnippet = "for { select {} }"
	task.Tags = []string{"go", "cleanup"}
	task.Deadline = &deadline

	if err := repo.Insert(ctx, task); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.Description != task.Description || got.CodeSnippet != task.CodeSnippet {
		t.Fatalf("unexpected task: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "cleanup" {
		t.Fatalf("tags round trip failed: %v", got.Tags)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Fatalf("deadline round trip failed: %v", got.Deadline)
	}
	if got.Pomodoros.Completed != 0 || got.Pomodoros.Abandoned != 0 {
		t.Fatalf("expected zero counters, got %+v", got.Pomodoros)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskRepositoryUpdate(t *testing.T) {
	database := openTestDB(t)
	repo := NewTaskRepository(database)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	task := newTask("t1", "u1", "write tests", now)
	if err := repo.Insert(ctx, task); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	completedAt := now.Add(time.Hour)
	task.Status = model.TaskCompleted
	task.CompletedAt = &completedAt
	task.UpdatedAt = completedAt
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != model.TaskCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("unexpected task after update: %+v", got)
	}

	missing := newTask("missing", "u1", "ghost", now)
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskRepositoryIncrementPomodoros(t *testing.T) {
	database := openTestDB(t)
	repo := NewTaskRepository(database)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	if err := repo.Insert(ctx, newTask("t1", "u1", "focus", now)); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	if err := repo.IncrementPomodoros(ctx, "t1", true, now.Add(25*time.Minute)); err != nil {
		t.Fatalf("increment completed: %v", err)
	}
	if err := repo.IncrementPomodoros(ctx, "t1", true, now.Add(55*time.Minute)); err != nil {
		t.Fatalf("increment completed: %v", err)
	}
	if err := repo.IncrementPomodoros(ctx, "t1", false, now.Add(70*time.Minute)); err != nil {
		t.Fatalf("increment abandoned: %v", err)
	}

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Pomodoros.Completed != 2 || got.Pomodoros.Abandoned != 1 {
		t.Fatalf("unexpected counters: %+v", got.Pomodoros)
	}

	// Counting against a deleted task must not error.
	if err := repo.IncrementPomodoros(ctx, "missing", true, now); err != nil {
		t.Fatalf("increment unknown id: %v", err)
	}
}

func TestTaskRepositoryDeleteAndList(t *testing.T) {
	database := openTestDB(t)
	repo := NewTaskRepository(database)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	for _, task := range []*model.Task{
		newTask("t1", "u1", "first", now),
		newTask("t2", "u1", "second", now),
		newTask("t3", "u2", "other user", now),
	} {
		if err := repo.Insert(ctx, task); err != nil {
			t.Fatalf("insert %s: %v", task.ID, err)
		}
	}

	list, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "t1" || list[1].ID != "t2" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting twice is a no-op.
	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("re-delete: %v", err)
	}
}

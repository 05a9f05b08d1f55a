package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatmali/trollr/internal/model"
)

func newSession(id, userID, taskID string, startedAt time.Time) *model.PomodoroSession {
	return &model.PomodoroSession{
		ID:             id,
		UserID:         userID,
		TaskID:         taskID,
		Mode:           model.ModeWork,
		StartedAt:      startedAt,
		ScheduledEndAt: startedAt.Add(25 * time.Minute),
		Status:         model.SessionInProgress,
		CreatedAt:      startedAt,
		UpdatedAt:      startedAt,
	}
}

func TestSessionRepositoryInsertAndGet(t *testing.T) {
	database := openTestDB(t)
	repo := NewSessionRepository(database)
	ctx := context.Background()

	startedAt := time.Date(2026, 8, 28, 9, 0, 0, 123456789, time.UTC)
	session := newSession("s1", "u1", "task-1", startedAt)
	if err := repo.Insert(ctx, session); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != "u1" || got.TaskID != "task-1" || got.Mode != model.ModeWork {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Status != model.SessionInProgress || got.ActualEndAt != nil {
		t.Fatalf("expected open session, got status=%s end=%v", got.Status, got.ActualEndAt)
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Fatalf("started_at round trip lost precision: %v != %v", got.StartedAt, startedAt)
	}
	if !got.ScheduledEndAt.Equal(startedAt.Add(25 * time.Minute)) {
		t.Fatalf("unexpected scheduled end: %v", got.ScheduledEndAt)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepositoryFinalizeIdempotent(t *testing.T) {
	database := openTestDB(t)
	repo := NewSessionRepository(database)
	ctx := context.Background()

	startedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := repo.Insert(ctx, newSession("s1", "u1", "", startedAt)); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	endedAt := startedAt.Add(25 * time.Minute)
	if err := repo.Finalize(ctx, "s1", model.SessionCompleted, endedAt); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != model.SessionCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.ActualEndAt == nil || !got.ActualEndAt.Equal(endedAt) {
		t.Fatalf("unexpected actual end: %v", got.ActualEndAt)
	}

	// A second finalization must not rewrite the terminal status.
	if err := repo.Finalize(ctx, "s1", model.SessionAbandoned, endedAt.Add(time.Hour)); err != nil {
		t.Fatalf("re-finalize: %v", err)
	}
	got, err = repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != model.SessionCompleted || !got.ActualEndAt.Equal(endedAt) {
		t.Fatalf("finalize must be idempotent, got status=%s end=%v", got.Status, got.ActualEndAt)
	}

	// Unknown ids are silent no-ops.
	if err := repo.Finalize(ctx, "missing", model.SessionAbandoned, endedAt); err != nil {
		t.Fatalf("finalize unknown id: %v", err)
	}
}

func TestSessionRepositorySetInterruptions(t *testing.T) {
	database := openTestDB(t)
	repo := NewSessionRepository(database)
	ctx := context.Background()

	startedAt := time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC)
	if err := repo.Insert(ctx, newSession("s1", "u1", "", startedAt)); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	if err := repo.SetInterruptions(ctx, "s1", 3, startedAt.Add(time.Minute)); err != nil {
		t.Fatalf("set interruptions: %v", err)
	}
	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Interruptions != 3 {
		t.Fatalf("expected 3 interruptions, got %d", got.Interruptions)
	}
}

func TestSessionRepositoryListOrder(t *testing.T) {
	database := openTestDB(t)
	repo := NewSessionRepository(database)
	ctx := context.Background()

	// Insertion order defines history order even when timestamps are
	// out of order.
	late := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	early := late.Add(-time.Hour)
	if err := repo.Insert(ctx, newSession("s1", "u1", "task-1", late)); err != nil {
		t.Fatalf("insert s1: %v", err)
	}
	if err := repo.Insert(ctx, newSession("s2", "u1", "", early)); err != nil {
		t.Fatalf("insert s2: %v", err)
	}
	if err := repo.Insert(ctx, newSession("s3", "u2", "task-1", late)); err != nil {
		t.Fatalf("insert s3: %v", err)
	}

	byUser, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 || byUser[0].ID != "s1" || byUser[1].ID != "s2" {
		t.Fatalf("unexpected user history: %+v", byUser)
	}

	byTask, err := repo.ListByTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("list by task: %v", err)
	}
	if len(byTask) != 2 || byTask[0].ID != "s1" || byTask[1].ID != "s3" {
		t.Fatalf("unexpected task history: %+v", byTask)
	}

	empty, err := repo.ListByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty history, got %+v", empty)
	}
}

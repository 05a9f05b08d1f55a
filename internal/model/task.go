package model

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	TaskNotStarted = "not_started"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskOverdue    = "overdue"
)

type PomodoroCounts struct {
	Completed int `json:"completed"`
	Abandoned int `json:"abandoned"`
}

type Task struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CodeSnippet string         `json:"codeSnippet,omitempty"`
	Priority    string         `json:"priority"`
	Status      string         `json:"status"`
	Tags        []string       `json:"tags"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Pomodoros   PomodoroCounts `json:"pomodoros"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func ValidPriority(priority string) bool {
	return priority == PriorityLow || priority == PriorityMedium || priority == PriorityHigh
}

func ValidTaskStatus(status string) bool {
	switch status {
	case TaskNotStarted, TaskInProgress, TaskCompleted, TaskOverdue:
		return true
	}
	return false
}

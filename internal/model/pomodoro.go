package model

import "time"

const (
	ModeWork  = "work"
	ModeBreak = "break"
)

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionAbandoned  = "abandoned"
)

const (
	DefaultWorkDurationSeconds  = 25 * 60
	DefaultBreakDurationSeconds = 5 * 60
)

// PomodoroSession is one timed interval, work or break. Break sessions
// never carry a task id.
type PomodoroSession struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	TaskID         string     `json:"taskId,omitempty"`
	Mode           string     `json:"mode"`
	StartedAt      time.Time  `json:"startedAt"`
	ScheduledEndAt time.Time  `json:"scheduledEndAt"`
	ActualEndAt    *time.Time `json:"actualEndAt,omitempty"`
	Status         string     `json:"status"`
	Interruptions  int        `json:"interruptions"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TimerSettings is the persisted, process-wide timer configuration.
// Runtime liveness (active/paused) is intentionally not part of it.
type TimerSettings struct {
	WorkDurationSeconds  int       `json:"workDurationSeconds"`
	BreakDurationSeconds int       `json:"breakDurationSeconds"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	SoundsEnabled        bool      `json:"soundsEnabled"`
	LinkedTaskID         string    `json:"linkedTaskId,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		WorkDurationSeconds:  DefaultWorkDurationSeconds,
		BreakDurationSeconds: DefaultBreakDurationSeconds,
		NotificationsEnabled: true,
		SoundsEnabled:        true,
	}
}

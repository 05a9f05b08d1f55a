package timer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fatmali/trollr/internal/model"
)

// SessionStore is the durable session ledger consumed by the machine.
type SessionStore interface {
	Insert(ctx context.Context, session *model.PomodoroSession) error
	Finalize(ctx context.Context, sessionID, status string, endedAt time.Time) error
	SetInterruptions(ctx context.Context, sessionID string, interruptions int, now time.Time) error
	ListByUser(ctx context.Context, userID string) ([]model.PomodoroSession, error)
	ListByTask(ctx context.Context, taskID string) ([]model.PomodoroSession, error)
}

// SettingsStore persists timer configuration on every change.
type SettingsStore interface {
	Save(ctx context.Context, settings model.TimerSettings) error
}

// TaskLink is the machine's only contact with the externally owned task
// store. Implementations must tolerate unknown task ids.
type TaskLink interface {
	UpdateTaskPomodoros(ctx context.Context, taskID string, completed bool) error
}

// Deps are the machine's collaborators. Notifier, Sounds and Tasks may
// be nil; Now defaults to time.Now.
type Deps struct {
	Sessions SessionStore
	Settings SettingsStore
	Tasks    TaskLink
	Notifier Notifier
	Sounds   SoundPlayer
	Now      func() time.Time
}

// StartOptions carries the optional arguments of StartSession. Supplied
// durations become the new configured defaults.
type StartOptions struct {
	TaskID       string
	WorkMinutes  int
	BreakMinutes int
}

// Snapshot is a read-only view of the machine's runtime state.
type Snapshot struct {
	Active               bool
	Paused               bool
	Mode                 string
	TimeRemaining        int
	WorkDuration         int
	BreakDuration        int
	LinkedTaskID         string
	NotificationsEnabled bool
	SoundsEnabled        bool
	CurrentSession       *model.PomodoroSession
}

// Machine is the work/break countdown state machine. It owns the single
// in-progress session and is the only writer to the session ledger. It
// always starts idle: runtime liveness never survives a restart.
type Machine struct {
	mu        sync.Mutex
	settings  model.TimerSettings
	active    bool
	paused    bool
	mode      string
	remaining int
	current   *model.PomodoroSession

	sessions      SessionStore
	settingsStore SettingsStore
	tasks         TaskLink
	notifier      Notifier
	sounds        SoundPlayer
	now           func() time.Time

	onStateChange func()
}

func NewMachine(settings model.TimerSettings, deps Deps) *Machine {
	if settings.WorkDurationSeconds <= 0 {
		settings.WorkDurationSeconds = model.DefaultWorkDurationSeconds
	}
	if settings.BreakDurationSeconds <= 0 {
		settings.BreakDurationSeconds = model.DefaultBreakDurationSeconds
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Machine{
		settings:      settings,
		mode:          model.ModeWork,
		remaining:     settings.WorkDurationSeconds,
		sessions:      deps.Sessions,
		settingsStore: deps.Settings,
		tasks:         deps.Tasks,
		notifier:      deps.Notifier,
		sounds:        deps.Sounds,
		now:           now,
	}
}

// OnStateChange registers the callback invoked after any transition that
// may change Runnable. Must be set before the machine is driven.
func (m *Machine) OnStateChange(fn func()) {
	m.mu.Lock()
	m.onStateChange = fn
	m.mu.Unlock()
}

// Runnable reports whether the countdown should be ticking.
func (m *Machine) Runnable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && !m.paused
}

// StartSession begins a new work session. Any session still in progress
// is finalized as abandoned in the ledger first; its task counters are
// left untouched.
func (m *Machine) StartSession(ctx context.Context, userID string, opts StartOptions) model.PomodoroSession {
	m.mu.Lock()

	if m.current != nil {
		m.finalizeLedgerLocked(ctx, model.SessionAbandoned)
		m.current = nil
	}

	dirty := false
	if opts.WorkMinutes > 0 {
		m.settings.WorkDurationSeconds = opts.WorkMinutes * 60
		dirty = true
	}
	if opts.BreakMinutes > 0 {
		m.settings.BreakDurationSeconds = opts.BreakMinutes * 60
		dirty = true
	}

	taskID := opts.TaskID
	if taskID == "" {
		taskID = m.settings.LinkedTaskID
	}

	work := m.settings.WorkDurationSeconds
	now := m.now()
	session := model.PomodoroSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		TaskID:         taskID,
		Mode:           model.ModeWork,
		StartedAt:      now,
		ScheduledEndAt: now.Add(time.Duration(work) * time.Second),
		Status:         model.SessionInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.current = &session
	m.active = true
	m.paused = false
	m.mode = model.ModeWork
	m.remaining = work

	m.recordLedgerLocked(ctx, &session)
	if dirty {
		m.saveSettingsLocked(ctx)
	}

	m.mu.Unlock()
	m.notifyStateChange()
	return session
}

// PauseSession suspends a running countdown and counts the interruption.
// A no-op when idle or already paused.
func (m *Machine) PauseSession(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.paused {
		m.mu.Unlock()
		return
	}
	m.paused = true
	if m.current != nil {
		m.current.Interruptions++
		m.current.UpdatedAt = m.now()
		if m.sessions != nil {
			if err := m.sessions.SetInterruptions(ctx, m.current.ID, m.current.Interruptions, m.current.UpdatedAt); err != nil {
				log.Printf("record interruption: %v", err)
			}
		}
	}
	m.mu.Unlock()
	m.notifyStateChange()
}

// ResumeSession lifts a pause. A no-op when idle or not paused.
func (m *Machine) ResumeSession() {
	m.mu.Lock()
	if !m.active || !m.paused {
		m.mu.Unlock()
		return
	}
	m.paused = false
	m.mu.Unlock()
	m.notifyStateChange()
}

// StopSession ends the current session. Completing a work session
// auto-starts the break countdown; completing a break returns to idle.
// Abandoning returns to idle either way. A no-op without a session.
func (m *Machine) StopSession(ctx context.Context, completed bool) {
	m.mu.Lock()
	changed, effect := m.stopLocked(ctx, completed)
	m.mu.Unlock()
	m.fire(effect)
	if changed {
		m.notifyStateChange()
	}
}

// ResetTimer forces the machine back to an idle work countdown. Any
// in-progress session is finalized as abandoned in the ledger; task
// counters are not touched, since reset is the path the UI takes when
// the linked task itself is going away.
func (m *Machine) ResetTimer(ctx context.Context) {
	m.mu.Lock()
	if m.current != nil {
		m.finalizeLedgerLocked(ctx, model.SessionAbandoned)
		m.current = nil
	}
	m.toIdleLocked()
	m.mu.Unlock()
	m.notifyStateChange()
}

// Tick advances the countdown by one second. Reaching zero is natural
// completion and follows the same path as StopSession(true). A no-op
// when idle, paused, or already at zero.
func (m *Machine) Tick(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.paused || m.remaining <= 0 {
		m.mu.Unlock()
		return
	}
	if m.remaining > 1 {
		m.remaining--
		m.mu.Unlock()
		return
	}
	m.remaining = 0
	changed, effect := m.stopLocked(ctx, true)
	m.mu.Unlock()
	m.fire(effect)
	if changed {
		m.notifyStateChange()
	}
}

// SetWorkDuration updates the configured work duration. The live
// countdown is only preserved while a work session is actively running.
func (m *Machine) SetWorkDuration(ctx context.Context, minutes int) {
	if minutes <= 0 {
		return
	}
	m.mu.Lock()
	seconds := minutes * 60
	m.settings.WorkDurationSeconds = seconds
	if !m.active || m.mode != model.ModeWork {
		m.remaining = seconds
	}
	m.saveSettingsLocked(ctx)
	m.mu.Unlock()
}

// SetBreakDuration updates the configured break duration for future
// breaks. The live countdown is never touched: an idle timer displays
// the work target, and a live break keeps its original length.
func (m *Machine) SetBreakDuration(ctx context.Context, minutes int) {
	if minutes <= 0 {
		return
	}
	m.mu.Lock()
	m.settings.BreakDurationSeconds = minutes * 60
	m.saveSettingsLocked(ctx)
	m.mu.Unlock()
}

// SetLinkedTask points the timer at a task for attribution of upcoming
// sessions. An empty id unlinks. Safe to call at any time; the running
// countdown is unaffected.
func (m *Machine) SetLinkedTask(ctx context.Context, taskID string) {
	m.mu.Lock()
	m.settings.LinkedTaskID = taskID
	m.saveSettingsLocked(ctx)
	m.mu.Unlock()
}

// ToggleNotifications flips the notification preference. Enabling asks
// the platform for permission; a refusal is logged and ignored.
func (m *Machine) ToggleNotifications(ctx context.Context) {
	m.mu.Lock()
	enabling := !m.settings.NotificationsEnabled
	m.settings.NotificationsEnabled = enabling
	m.saveSettingsLocked(ctx)
	m.mu.Unlock()

	if enabling && m.notifier != nil {
		if err := m.notifier.RequestPermission(); err != nil {
			log.Printf("notification permission: %v", err)
		}
	}
}

func (m *Machine) ToggleSounds(ctx context.Context) {
	m.mu.Lock()
	m.settings.SoundsEnabled = !m.settings.SoundsEnabled
	m.saveSettingsLocked(ctx)
	m.mu.Unlock()
}

func (m *Machine) SessionsByUser(ctx context.Context, userID string) ([]model.PomodoroSession, error) {
	if m.sessions == nil {
		return nil, nil
	}
	return m.sessions.ListByUser(ctx, userID)
}

func (m *Machine) SessionsByTask(ctx context.Context, taskID string) ([]model.PomodoroSession, error) {
	if m.sessions == nil {
		return nil, nil
	}
	return m.sessions.ListByTask(ctx, taskID)
}

// Snapshot returns a copy of the current runtime state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Active:               m.active,
		Paused:               m.paused,
		Mode:                 m.mode,
		TimeRemaining:        m.remaining,
		WorkDuration:         m.settings.WorkDurationSeconds,
		BreakDuration:        m.settings.BreakDurationSeconds,
		LinkedTaskID:         m.settings.LinkedTaskID,
		NotificationsEnabled: m.settings.NotificationsEnabled,
		SoundsEnabled:        m.settings.SoundsEnabled,
	}
	if m.current != nil {
		session := *m.current
		snap.CurrentSession = &session
	}
	return snap
}

// FormattedTimeRemaining renders the countdown as zero-padded MM:SS.
func (m *Machine) FormattedTimeRemaining() string {
	m.mu.Lock()
	remaining := m.remaining
	m.mu.Unlock()
	return fmt.Sprintf("%02d:%02d", remaining/60, remaining%60)
}

// Progress reports elapsed progress through the current mode's
// configured duration, as a percentage.
func (m *Machine) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.settings.WorkDurationSeconds
	if m.mode == model.ModeBreak {
		total = m.settings.BreakDurationSeconds
	}
	if total <= 0 {
		return 0
	}
	return float64(total-m.remaining) / float64(total) * 100
}

type completionEffect struct {
	title         string
	body          string
	sound         string
	notifications bool
	sounds        bool
}

// stopLocked finalizes the current session and performs the mode
// transition. Returns whether state changed and the effect to fire
// after the lock is released; effects fire at most once per completion
// regardless of whether it was explicit or tick-driven.
func (m *Machine) stopLocked(ctx context.Context, completed bool) (bool, *completionEffect) {
	if m.current == nil {
		return false, nil
	}

	status := model.SessionAbandoned
	if completed {
		status = model.SessionCompleted
	}
	m.finalizeLedgerLocked(ctx, status)

	finished := m.current
	mode := m.mode
	m.current = nil

	if finished.TaskID != "" && m.tasks != nil {
		if err := m.tasks.UpdateTaskPomodoros(ctx, finished.TaskID, completed); err != nil {
			log.Printf("update task pomodoros: %v", err)
		}
	}

	switch {
	case completed && mode == model.ModeWork:
		m.beginBreakLocked(ctx, finished.UserID)
		return true, m.effectLocked(
			"Pomodoro Completed",
			"Great job! Time for a break.",
			SoundWorkEnd,
		)
	case completed && mode == model.ModeBreak:
		m.toIdleLocked()
		return true, m.effectLocked(
			"Break Completed",
			"Break time is over. Ready for another focus session?",
			SoundBreakEnd,
		)
	default:
		m.toIdleLocked()
		return true, nil
	}
}

// beginBreakLocked starts the break countdown that follows a completed
// work session. Break sessions are ledgered but never task-linked.
func (m *Machine) beginBreakLocked(ctx context.Context, userID string) {
	duration := m.settings.BreakDurationSeconds
	now := m.now()
	session := model.PomodoroSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		Mode:           model.ModeBreak,
		StartedAt:      now,
		ScheduledEndAt: now.Add(time.Duration(duration) * time.Second),
		Status:         model.SessionInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.current = &session
	m.active = true
	m.paused = false
	m.mode = model.ModeBreak
	m.remaining = duration

	m.recordLedgerLocked(ctx, &session)
}

func (m *Machine) toIdleLocked() {
	m.active = false
	m.paused = false
	m.mode = model.ModeWork
	m.remaining = m.settings.WorkDurationSeconds
}

func (m *Machine) effectLocked(title, body, sound string) *completionEffect {
	return &completionEffect{
		title:         title,
		body:          body,
		sound:         sound,
		notifications: m.settings.NotificationsEnabled,
		sounds:        m.settings.SoundsEnabled,
	}
}

// fire performs the notification and sound side effects. Failures are
// logged and swallowed; they never block a state transition.
func (m *Machine) fire(effect *completionEffect) {
	if effect == nil {
		return
	}
	if effect.notifications && m.notifier != nil {
		if err := m.notifier.Notify(effect.title, effect.body); err != nil {
			log.Printf("notification: %v", err)
		}
	}
	if effect.sounds && m.sounds != nil {
		if err := m.sounds.Play(effect.sound); err != nil {
			log.Printf("sound playback: %v", err)
		}
	}
}

func (m *Machine) recordLedgerLocked(ctx context.Context, session *model.PomodoroSession) {
	if m.sessions == nil {
		return
	}
	if err := m.sessions.Insert(ctx, session); err != nil {
		log.Printf("record session: %v", err)
	}
}

func (m *Machine) finalizeLedgerLocked(ctx context.Context, status string) {
	if m.current == nil {
		return
	}
	now := m.now()
	m.current.Status = status
	m.current.ActualEndAt = &now
	m.current.UpdatedAt = now
	if m.sessions == nil {
		return
	}
	if err := m.sessions.Finalize(ctx, m.current.ID, status, now); err != nil {
		log.Printf("finalize session: %v", err)
	}
}

func (m *Machine) saveSettingsLocked(ctx context.Context) {
	m.settings.UpdatedAt = m.now()
	if m.settingsStore == nil {
		return
	}
	if err := m.settingsStore.Save(ctx, m.settings); err != nil {
		log.Printf("save timer settings: %v", err)
	}
}

func (m *Machine) notifyStateChange() {
	m.mu.Lock()
	fn := m.onStateChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

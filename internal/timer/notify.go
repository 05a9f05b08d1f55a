package timer

import "log"

// Sound names handed to the player when an interval ends.
const (
	SoundWorkEnd  = "timer-end"
	SoundBreakEnd = "break-end"
)

// Notifier raises platform notifications. Implementations are
// best-effort: a denied permission must not break the timer.
type Notifier interface {
	Notify(title, body string) error
	RequestPermission() error
}

// SoundPlayer plays a named completion sound.
type SoundPlayer interface {
	Play(name string) error
}

// LogNotifier writes notifications to the process log. It stands in for
// a platform notifier on installations without one.
type LogNotifier struct{}

func (LogNotifier) Notify(title, body string) error {
	log.Printf("notify: %s: %s", title, body)
	return nil
}

func (LogNotifier) RequestPermission() error { return nil }

// LogSoundPlayer logs the sound that would have been played.
type LogSoundPlayer struct{}

func (LogSoundPlayer) Play(name string) error {
	log.Printf("play sound: %s", name)
	return nil
}

package timer

import (
	"context"
	"sync"
	"time"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultTickPeriod   = time.Second
	defaultGuardWindow  = 50 * time.Millisecond
)

// Coordinator delivers at most one logical tick per elapsed real second
// to the machine, no matter how many UI observers are mounted. A single
// polling goroutine exists only while at least one observer is
// registered and the machine is running-and-unpaused; it polls well
// below one second and gates delivery on elapsed wall-clock time, so a
// throttled scheduler neither skips nor double-delivers ticks.
type Coordinator struct {
	mu           sync.Mutex
	machine      *Machine
	now          func() time.Time
	pollInterval time.Duration
	tickPeriod   time.Duration
	guardWindow  time.Duration

	observers int
	running   bool
	stopCh    chan struct{}
	lastTick  time.Time
	pending   bool
}

func NewCoordinator(machine *Machine) *Coordinator {
	c := &Coordinator{
		machine:      machine,
		now:          time.Now,
		pollInterval: defaultPollInterval,
		tickPeriod:   defaultTickPeriod,
		guardWindow:  defaultGuardWindow,
	}
	machine.OnStateChange(c.StateChanged)
	return c
}

// Register adds an observer. The first observer starts the scheduler if
// the machine is already running.
func (c *Coordinator) Register() {
	c.mu.Lock()
	c.observers++
	c.syncLocked()
	c.mu.Unlock()
}

// Deregister removes an observer. The scheduler is torn down with the
// last one.
func (c *Coordinator) Deregister() {
	c.mu.Lock()
	if c.observers > 0 {
		c.observers--
	}
	c.syncLocked()
	c.mu.Unlock()
}

// StateChanged re-evaluates whether the scheduler should exist. The
// machine calls this after every transition.
func (c *Coordinator) StateChanged() {
	c.mu.Lock()
	c.syncLocked()
	c.mu.Unlock()
}

func (c *Coordinator) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observers
}

func (c *Coordinator) scheduling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Coordinator) syncLocked() {
	want := c.observers > 0 && c.machine.Runnable()
	if want && !c.running {
		c.running = true
		c.stopCh = make(chan struct{})
		c.lastTick = c.now()
		c.pending = false
		go c.loop(c.stopCh)
	} else if !want && c.running {
		close(c.stopCh)
		c.running = false
	}
}

func (c *Coordinator) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.poll(c.now())
		}
	}
}

// poll delivers one logical tick when a full second has elapsed since
// the last delivery and none is pending, then arms the guard window
// that blocks re-entrant delivery.
func (c *Coordinator) poll(now time.Time) {
	c.mu.Lock()
	if c.pending || now.Sub(c.lastTick) < c.tickPeriod {
		c.mu.Unlock()
		return
	}
	c.pending = true
	c.lastTick = now
	c.mu.Unlock()

	c.machine.Tick(context.Background())

	time.AfterFunc(c.guardWindow, func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	})
}

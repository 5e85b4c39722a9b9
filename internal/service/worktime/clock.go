package worktime

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/worktime"
	"github.com/cmlabs-hris/timeclock/internal/pkg/cron"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultResyncInterval = 60 * time.Second
	DefaultTickInterval   = time.Second
)

// Source re-reads the user's current record. *attendance.Machine satisfies it.
type Source interface {
	Refresh(ctx context.Context) attendance.Current
}

// Clock is the live elapsed-time display for one user. A slow resync
// recomputes elapsed seconds from the stored clock-in; between resyncs a fast
// tick advances the display by one second. Both timers run only while a
// record is open.
type Clock struct {
	src    Source
	clock  clockwork.Clock
	resync time.Duration
	tick   time.Duration

	mu       sync.Mutex
	epoch    uint64
	sched    *cron.Scheduler
	reading  attendance.ElapsedResponse
	readings chan attendance.ElapsedResponse
	closed   bool
}

func NewClock(src Source, clock clockwork.Clock, resync, tick time.Duration) *Clock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if resync <= 0 {
		resync = DefaultResyncInterval
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Clock{
		src:      src,
		clock:    clock,
		resync:   resync,
		tick:     tick,
		reading:  attendance.NewElapsedResponse(false, 0),
		readings: make(chan attendance.ElapsedResponse, 1),
	}
}

// Readings delivers the display after every change. Only the latest unread
// reading is kept. The channel is closed by Close.
func (c *Clock) Readings() <-chan attendance.ElapsedResponse {
	return c.readings
}

// Reading returns the current display.
func (c *Clock) Reading() attendance.ElapsedResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading
}

// Running reports whether the timers are armed.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched != nil
}

// Resync re-reads the store and recomputes the display. It arms the timers
// when a record is open and cancels them otherwise.
func (c *Clock) Resync(ctx context.Context) attendance.ElapsedResponse {
	cur := c.src.Refresh(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.reading
	}

	if cur.Kind != attendance.KindOpen {
		c.disarm()
		c.set(attendance.NewElapsedResponse(false, 0))
		return c.reading
	}

	c.set(attendance.NewElapsedResponse(true, worktime.ElapsedSeconds(cur.Record.ClockIn, c.clock.Now())))
	if c.sched == nil {
		c.arm()
	}
	return c.reading
}

// Close stops the timers and closes Readings.
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.disarm()
	c.closed = true
	close(c.readings)
}

// arm starts both timers under a new epoch. Callers hold c.mu.
func (c *Clock) arm() {
	c.epoch++
	epoch := c.epoch

	sched := cron.NewScheduler(cron.WithClock(c.clock), cron.Quiet())
	sched.AddDeferredJob("elapsed_resync", c.resync, func(ctx context.Context) error {
		if c.current(epoch) {
			c.Resync(ctx)
		}
		return nil
	})
	sched.AddDeferredJob("elapsed_tick", c.tick, func(ctx context.Context) error {
		c.advance(epoch)
		return nil
	})
	sched.Start()
	c.sched = sched
}

// disarm cancels the timers. Jobs still in flight see a stale epoch. Callers hold c.mu.
func (c *Clock) disarm() {
	if c.sched == nil {
		return
	}
	c.sched.Cancel()
	c.sched = nil
	c.epoch++
}

func (c *Clock) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.epoch == epoch
}

func (c *Clock) advance(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.epoch != epoch || !c.reading.Running {
		return
	}
	c.set(attendance.NewElapsedResponse(true, c.reading.Seconds+1))
}

// set publishes a reading. Callers hold c.mu.
func (c *Clock) set(r attendance.ElapsedResponse) {
	c.reading = r
	select {
	case <-c.readings:
	default:
	}
	c.readings <- r
}

package notification

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/notification"
)

// Tracker keeps one live count subscription bound to the current session.
// Binding a different session replaces the subscription; binding the same
// one again does nothing.
type Tracker struct {
	svc     notification.Service
	updates chan notification.CountResponse

	mu      sync.Mutex
	session *auth.Session
	stop    func()
	closed  bool
}

func NewTracker(svc notification.Service) *Tracker {
	return &Tracker{
		svc:     svc,
		updates: make(chan notification.CountResponse, 1),
	}
}

// Updates carries counts from whichever session is bound. Only the latest
// unread count is kept.
func (t *Tracker) Updates() <-chan notification.CountResponse {
	return t.updates
}

// Bind subscribes for the session. A nil session only tears down.
func (t *Tracker) Bind(ctx context.Context, session *auth.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if sameSession(t.session, session) {
		return
	}

	t.unbind()
	if session == nil {
		return
	}

	counts, stop := t.svc.Watch(ctx, *session)
	bound := *session
	t.session = &bound

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for c := range counts {
			select {
			case <-t.updates:
			default:
			}
			t.updates <- c
		}
	}()
	t.stop = func() {
		stop()
		wg.Wait()
	}
}

// Close releases the subscription and closes Updates.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.unbind()
	t.closed = true
	close(t.updates)
}

func (t *Tracker) unbind() {
	if t.stop != nil {
		t.stop()
	}
	t.stop = nil
	t.session = nil
}

func sameSession(a, b *auth.Session) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

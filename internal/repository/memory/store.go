package memory

import (
	"fmt"
	"sync"

	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Store keeps time entries and leave requests in process memory. It assigns
// timestamps from its clock the way the database assigns now(), and publishes
// change events the way the database triggers do.
type Store struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	hub     *feed.Hub
	entries map[string]*entry
	leaves  map[string]*leaveRow
	seq     int64
	failErr error
}

func NewStore(clock clockwork.Clock, hub *feed.Hub) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:   clock,
		hub:     hub,
		entries: make(map[string]*entry),
		leaves:  make(map[string]*leaveRow),
	}
}

// FailWith makes every following call return err until called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *Store) failure() error {
	return s.failErr
}

func (s *Store) newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// next orders rows that share a timestamp by insertion.
func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func (s *Store) publish(topic, op, id, userID string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(feed.Event{Topic: topic, Op: op, ID: id, UserID: userID})
}

func wrap(sentinel error, op string, err error) error {
	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}

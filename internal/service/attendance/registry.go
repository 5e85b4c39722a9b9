package attendance

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
)

// Registry keeps one Machine per user so that API calls and live streams of
// the same user share a cached state.
type Registry struct {
	mu       sync.Mutex
	repo     attendance.Repository
	machines map[string]*Machine
}

func NewRegistry(repo attendance.Repository) *Registry {
	return &Registry{
		repo:     repo,
		machines: make(map[string]*Machine),
	}
}

// Machine returns the user's machine, activating it on first use.
func (r *Registry) Machine(ctx context.Context, userID string) (*Machine, error) {
	r.mu.Lock()
	m, ok := r.machines[userID]
	if !ok {
		m = NewMachine(r.repo, userID)
		r.machines[userID] = m
	}
	r.mu.Unlock()

	if !ok {
		if _, err := m.Activate(ctx); err != nil {
			r.Forget(userID)
			return nil, err
		}
	}
	return m, nil
}

// Forget drops the user's cached machine, e.g. on sign-out.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, userID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.machines)
}

package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"golang.org/x/sync/singleflight"
)

// countTimeout bounds a shared count query, which runs detached from the
// callers waiting on it.
const countTimeout = 10 * time.Second

type service struct {
	hub       *feed.Hub
	leaveRepo leave.Repository
	group     singleflight.Group

	mu     sync.Mutex
	epochs map[string]uint64
}

// NewNotificationService counts leave requests for the notification badge.
// Counts for the same scope that arrive before a query starts share it; a
// count never joins a query that was already running when it arrived.
func NewNotificationService(hub *feed.Hub, leaveRepo leave.Repository) notification.Service {
	return &service{
		hub:       hub,
		leaveRepo: leaveRepo,
		epochs:    make(map[string]uint64),
	}
}

func flightKey(session auth.Session) string {
	if session.IsAdmin() {
		return "admin"
	}
	return "user:" + session.UserID
}

// watchKey selects the change events that can move the session's count.
func watchKey(session auth.Session) string {
	if session.IsAdmin() {
		return feed.AllUsers
	}
	return session.UserID
}

func (s *service) epoch(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[key]
}

// begin moves later callers of key onto the next flight.
func (s *service) begin(key string, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epochs[key] <= epoch {
		s.epochs[key] = epoch + 1
	}
}

// Count implements notification.Service.
func (s *service) Count(ctx context.Context, session auth.Session) (notification.CountResponse, error) {
	scope, filter := notification.FilterFor(session)
	key := flightKey(session)
	epoch := s.epoch(key)

	ch := s.group.DoChan(fmt.Sprintf("%s#%d", key, epoch), func() (interface{}, error) {
		s.begin(key, epoch)

		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), countTimeout)
		defer cancel()
		return s.leaveRepo.Count(qctx, filter)
	})

	select {
	case <-ctx.Done():
		return notification.CountResponse{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return notification.CountResponse{}, res.Err
		}
		return notification.CountResponse{Scope: scope, Count: res.Val.(int)}, nil
	}
}

// Watch implements notification.Service. The first value is sent as soon as
// it is computed; each later one is a full recount. A reader that falls
// behind only sees the latest count.
func (s *service) Watch(ctx context.Context, session auth.Session) (<-chan notification.CountResponse, func()) {
	ctx, cancel := context.WithCancel(ctx)
	events, unsubscribe := s.hub.Subscribe(feed.TopicLeaveRequests, watchKey(session))
	out := make(chan notification.CountResponse, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer unsubscribe()

		s.recount(ctx, session, out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				s.recount(ctx, session, out)
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
	}
	return out, stop
}

func (s *service) recount(ctx context.Context, session auth.Session, out chan notification.CountResponse) {
	count, err := s.Count(ctx, session)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Notification recount failed",
				"user_id", session.UserID,
				"role", string(session.Role),
				"error", err,
			)
		}
		return
	}

	select {
	case <-out:
	default:
	}
	out <- count
}

package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
)

type leaveRow struct {
	request leave.Request
	seq     int64
}

type leaveRepository struct {
	s *Store
}

func NewLeaveRepository(s *Store) leave.Repository {
	return &leaveRepository{s: s}
}

// Create implements leave.Repository.
func (l *leaveRepository) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if err := l.s.failure(); err != nil {
		return leave.Request{}, wrap(leave.ErrPersistence, "create leave request", err)
	}

	req.ID = l.s.newID()
	req.CreatedAt = l.s.clock.Now()
	if req.Status == "" {
		req.Status = leave.StatusPending
	}
	l.s.leaves[req.ID] = &leaveRow{request: req, seq: l.s.next()}
	l.s.publish(feed.TopicLeaveRequests, feed.OpInsert, req.ID, req.UserID)
	return req, nil
}

// GetByID implements leave.Repository.
func (l *leaveRepository) GetByID(ctx context.Context, id string) (leave.Request, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	if err := l.s.failure(); err != nil {
		return leave.Request{}, wrap(leave.ErrPersistence, "get leave request", err)
	}

	row, ok := l.s.leaves[id]
	if !ok {
		return leave.Request{}, leave.ErrLeaveRequestNotFound
	}
	return row.request, nil
}

// Decide implements leave.Repository.
func (l *leaveRepository) Decide(ctx context.Context, id string, status leave.Status) (leave.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if err := l.s.failure(); err != nil {
		return leave.Request{}, wrap(leave.ErrPersistence, "decide leave request", err)
	}

	row, ok := l.s.leaves[id]
	if !ok {
		return leave.Request{}, leave.ErrLeaveRequestNotFound
	}
	if row.request.Status != leave.StatusPending {
		return leave.Request{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	row.request.Status = status
	l.s.publish(feed.TopicLeaveRequests, feed.OpUpdate, id, row.request.UserID)
	return row.request, nil
}

// ListByUser implements leave.Repository.
func (l *leaveRepository) ListByUser(ctx context.Context, userID string) ([]leave.Request, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	if err := l.s.failure(); err != nil {
		return nil, wrap(leave.ErrPersistence, "list leave requests", err)
	}

	var rows []*leaveRow
	for _, row := range l.s.leaves {
		if row.request.UserID == userID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].request.CreatedAt.Equal(rows[j].request.CreatedAt) {
			return rows[i].request.CreatedAt.After(rows[j].request.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	requests := make([]leave.Request, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.request)
	}
	return requests, nil
}

// Count implements leave.Repository.
func (l *leaveRepository) Count(ctx context.Context, filter leave.Filter) (int, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	if err := l.s.failure(); err != nil {
		return 0, wrap(leave.ErrPersistence, "count leave requests", err)
	}

	n := 0
	for _, row := range l.s.leaves {
		if filter.Matches(row.request) {
			n++
		}
	}
	return n, nil
}

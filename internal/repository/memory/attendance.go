package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/location"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
)

type entry struct {
	record attendance.Record
	seq    int64
}

type attendanceRepository struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.Repository {
	return &attendanceRepository{s: s}
}

// InsertRecord stores a record as given, clock-in included. Used for imports
// and fixtures.
func (s *Store) InsertRecord(r attendance.Record) attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.newID()
	}
	s.entries[r.ID] = &entry{record: copyRecord(r), seq: s.next()}
	s.publish(feed.TopicTimeEntries, feed.OpInsert, r.ID, r.UserID)
	return copyRecord(r)
}

// newestFirst sorts by clock-in descending, then by insertion descending.
func newestFirst(rows []*entry) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].record.ClockIn.Equal(rows[j].record.ClockIn) {
			return rows[i].record.ClockIn.After(rows[j].record.ClockIn)
		}
		return rows[i].seq > rows[j].seq
	})
}

func (a *attendanceRepository) userRows(userID string, keep func(attendance.Record) bool) []*entry {
	var rows []*entry
	for _, e := range a.s.entries {
		if e.record.UserID == userID && keep(e.record) {
			rows = append(rows, e)
		}
	}
	newestFirst(rows)
	return rows
}

// FindOpen implements attendance.Repository.
func (a *attendanceRepository) FindOpen(ctx context.Context, userID string) (*attendance.Record, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	if err := a.s.failure(); err != nil {
		return nil, wrap(attendance.ErrPersistence, "find open time entry", err)
	}

	rows := a.userRows(userID, attendance.Record.IsOpen)
	if len(rows) == 0 {
		return nil, nil
	}
	r := copyRecord(rows[0].record)
	return &r, nil
}

// FindLatest implements attendance.Repository.
func (a *attendanceRepository) FindLatest(ctx context.Context, userID string) (*attendance.Record, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	if err := a.s.failure(); err != nil {
		return nil, wrap(attendance.ErrPersistence, "find latest time entry", err)
	}

	rows := a.userRows(userID, func(attendance.Record) bool { return true })
	if len(rows) == 0 {
		return nil, nil
	}
	r := copyRecord(rows[0].record)
	return &r, nil
}

// Create implements attendance.Repository.
func (a *attendanceRepository) Create(ctx context.Context, userID string, at *location.Coordinates) (attendance.Record, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if err := a.s.failure(); err != nil {
		return attendance.Record{}, wrap(attendance.ErrPersistence, "create time entry", err)
	}

	r := attendance.Record{
		ID:         a.s.newID(),
		UserID:     userID,
		ClockIn:    a.s.clock.Now(),
		LocationIn: copyCoords(at),
	}
	a.s.entries[r.ID] = &entry{record: r, seq: a.s.next()}
	a.s.publish(feed.TopicTimeEntries, feed.OpInsert, r.ID, userID)
	return copyRecord(r), nil
}

// CloseOpen implements attendance.Repository.
func (a *attendanceRepository) CloseOpen(ctx context.Context, recordID string, at *location.Coordinates) (attendance.Record, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if err := a.s.failure(); err != nil {
		return attendance.Record{}, wrap(attendance.ErrPersistence, "close time entry", err)
	}

	e, ok := a.s.entries[recordID]
	if !ok || !e.record.IsOpen() {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}

	now := a.s.clock.Now()
	e.record.ClockOut = &now
	e.record.LocationOut = copyCoords(at)
	a.s.publish(feed.TopicTimeEntries, feed.OpUpdate, e.record.ID, e.record.UserID)
	return copyRecord(e.record), nil
}

// SetReport implements attendance.Repository.
func (a *attendanceRepository) SetReport(ctx context.Context, recordID string, report string) (attendance.Record, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if err := a.s.failure(); err != nil {
		return attendance.Record{}, wrap(attendance.ErrPersistence, "set daily report", err)
	}

	e, ok := a.s.entries[recordID]
	if !ok || !e.record.AwaitingReport() {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}

	text := report
	e.record.DailyReport = &text
	a.s.publish(feed.TopicTimeEntries, feed.OpUpdate, e.record.ID, e.record.UserID)
	return copyRecord(e.record), nil
}

// ListByUserBetween implements attendance.Repository.
func (a *attendanceRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]attendance.Record, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	if err := a.s.failure(); err != nil {
		return nil, wrap(attendance.ErrPersistence, "list time entries", err)
	}

	rows := a.userRows(userID, func(r attendance.Record) bool {
		return !r.ClockIn.Before(from) && !r.ClockIn.After(to)
	})
	records := make([]attendance.Record, 0, len(rows))
	for _, e := range rows {
		records = append(records, copyRecord(e.record))
	}
	return records, nil
}

// FindUsersWithMultipleOpen implements attendance.Repository.
func (a *attendanceRepository) FindUsersWithMultipleOpen(ctx context.Context) ([]attendance.OpenCount, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	if err := a.s.failure(); err != nil {
		return nil, wrap(attendance.ErrPersistence, "count open time entries", err)
	}

	open := make(map[string]int)
	for _, e := range a.s.entries {
		if e.record.IsOpen() {
			open[e.record.UserID]++
		}
	}

	var counts []attendance.OpenCount
	for userID, n := range open {
		if n > 1 {
			counts = append(counts, attendance.OpenCount{UserID: userID, Open: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].UserID < counts[j].UserID })
	return counts, nil
}

func copyRecord(r attendance.Record) attendance.Record {
	out := r
	if r.ClockOut != nil {
		t := *r.ClockOut
		out.ClockOut = &t
	}
	if r.DailyReport != nil {
		s := *r.DailyReport
		out.DailyReport = &s
	}
	out.LocationIn = copyCoords(r.LocationIn)
	out.LocationOut = copyCoords(r.LocationOut)
	return out
}

func copyCoords(c *location.Coordinates) *location.Coordinates {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

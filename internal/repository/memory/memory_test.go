package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/domain/location"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestStore() (*Store, *clockwork.FakeClock, *feed.Hub) {
	clock := clockwork.NewFakeClockAt(t0)
	hub := feed.NewHub()
	return NewStore(clock, hub), clock, hub
}

func TestAttendanceLifecycle(t *testing.T) {
	ctx := context.Background()
	store, clock, hub := newTestStore()
	repo := NewAttendanceRepository(store)

	events, cleanup := hub.Subscribe(feed.TopicTimeEntries, feed.AllUsers)
	defer cleanup()

	open, err := repo.FindOpen(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, open)

	created, err := repo.Create(ctx, "u-1", &location.Coordinates{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	assert.Equal(t, t0, created.ClockIn)
	assert.Nil(t, created.ClockOut)
	assert.Equal(t, feed.OpInsert, (<-events).Op)

	open, err = repo.FindOpen(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, created.ID, open.ID)

	clock.Advance(8 * time.Hour)
	closed, err := repo.CloseOpen(ctx, created.ID, &location.Coordinates{Latitude: 1, Longitude: 3})
	require.NoError(t, err)
	require.NotNil(t, closed.ClockOut)
	assert.Equal(t, t0.Add(8*time.Hour), *closed.ClockOut)
	assert.True(t, closed.AwaitingReport())
	ev := <-events
	assert.Equal(t, feed.OpUpdate, ev.Op)
	assert.Equal(t, "u-1", ev.UserID)

	_, err = repo.CloseOpen(ctx, created.ID, nil)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound, "already closed")

	reported, err := repo.SetReport(ctx, created.ID, "  wrote tests  ")
	require.NoError(t, err)
	require.NotNil(t, reported.DailyReport)
	assert.Equal(t, "  wrote tests  ", *reported.DailyReport)

	_, err = repo.SetReport(ctx, created.ID, "again")
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	latest, err := repo.FindLatest(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, created.ID, latest.ID)
	assert.False(t, latest.AwaitingReport())
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore()
	repo := NewAttendanceRepository(store)

	created, err := repo.Create(ctx, "u-1", &location.Coordinates{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	created.LocationIn.Latitude = 50

	open, err := repo.FindOpen(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, open.LocationIn.Latitude)
}

func TestListByUserBetween(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore()
	repo := NewAttendanceRepository(store)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC)

	store.InsertRecord(attendance.Record{UserID: "u-1", ClockIn: from})
	store.InsertRecord(attendance.Record{UserID: "u-1", ClockIn: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)})
	store.InsertRecord(attendance.Record{UserID: "u-1", ClockIn: to})
	store.InsertRecord(attendance.Record{UserID: "u-1", ClockIn: to.Add(time.Nanosecond)})
	store.InsertRecord(attendance.Record{UserID: "u-2", ClockIn: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)})

	records, err := repo.ListByUserBetween(ctx, "u-1", from, to)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, to, records[0].ClockIn)
	assert.Equal(t, from, records[2].ClockIn)
}

func TestFindUsersWithMultipleOpen(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore()
	repo := NewAttendanceRepository(store)

	_, _ = repo.Create(ctx, "u-1", nil)
	_, _ = repo.Create(ctx, "u-1", nil)
	_, _ = repo.Create(ctx, "u-2", nil)

	counts, err := repo.FindUsersWithMultipleOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []attendance.OpenCount{{UserID: "u-1", Open: 2}}, counts)
}

func TestFailWith(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore()
	repo := NewAttendanceRepository(store)
	leaves := NewLeaveRepository(store)

	store.FailWith(errors.New("disk on fire"))

	_, err := repo.Create(ctx, "u-1", nil)
	assert.ErrorIs(t, err, attendance.ErrPersistence)
	_, err = leaves.Count(ctx, leave.Filter{})
	assert.ErrorIs(t, err, leave.ErrPersistence)

	store.FailWith(nil)
	_, err = repo.Create(ctx, "u-1", nil)
	assert.NoError(t, err)
}

func TestLeaveRepository(t *testing.T) {
	ctx := context.Background()
	store, clock, hub := newTestStore()
	repo := NewLeaveRepository(store)

	events, cleanup := hub.Subscribe(feed.TopicLeaveRequests, feed.AllUsers)
	defer cleanup()

	first, err := repo.Create(ctx, leave.Request{UserID: "u-1", LeaveType: leave.TypeSick, Reason: "flu"})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, first.Status)
	assert.Equal(t, t0, first.CreatedAt)
	assert.Equal(t, "u-1", (<-events).UserID)

	clock.Advance(time.Minute)
	second, err := repo.Create(ctx, leave.Request{UserID: "u-1", LeaveType: leave.TypePersonal, Reason: "moving"})
	require.NoError(t, err)
	<-events

	decided, err := repo.Decide(ctx, first.ID, leave.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, decided.Status)
	assert.Equal(t, feed.OpUpdate, (<-events).Op)

	_, err = repo.Decide(ctx, first.ID, leave.StatusRejected)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)
	_, err = repo.Decide(ctx, "missing", leave.StatusRejected)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	mine, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)

	pending, err := repo.Count(ctx, leave.Filter{Statuses: []leave.Status{leave.StatusPending}})
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

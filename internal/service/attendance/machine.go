package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/location"
)

// DefaultWriteTimeout bounds a store write once it has started.
const DefaultWriteTimeout = 10 * time.Second

// Machine drives one user's clock-in/clock-out lifecycle. It caches the
// user's current record but re-reads the store before every transition.
//
// The existence check and the write of a transition are separate store
// calls, so two devices clocking in at once can both succeed.
type Machine struct {
	mu           sync.Mutex
	userID       string
	repo         attendance.Repository
	current      attendance.Current
	activated    bool
	writeTimeout time.Duration
}

func NewMachine(repo attendance.Repository, userID string) *Machine {
	return &Machine{
		userID:       userID,
		repo:         repo,
		current:      attendance.NoRecord(),
		writeTimeout: DefaultWriteTimeout,
	}
}

func (m *Machine) UserID() string {
	return m.userID
}

// Activate resolves the initial state from the store.
func (m *Machine) Activate(ctx context.Context) (attendance.Current, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.resolve(ctx)
	if err != nil {
		return attendance.NoRecord(), err
	}
	m.current = cur
	m.activated = true
	return cur, nil
}

// Current returns the cached current record.
func (m *Machine) Current() attendance.Current {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Machine) State() attendance.State {
	return m.Current().State()
}

// Refresh re-reads the store for a passive status check. A failed read is
// logged and treated as clocked out.
func (m *Machine) Refresh(ctx context.Context) attendance.Current {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.resolve(ctx)
	if err != nil {
		slog.Warn("Attendance status check failed, assuming clocked out",
			"user_id", m.userID,
			"error", err,
		)
		cur = attendance.NoRecord()
	}
	m.current = cur
	m.activated = true
	return cur
}

// ClockIn opens a new record at the store's current time.
func (m *Machine) ClockIn(ctx context.Context, locator location.Provider) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.resolve(ctx)
	if err != nil {
		return attendance.Record{}, err
	}
	m.current = cur
	m.activated = true

	switch cur.Kind {
	case attendance.KindOpen:
		return attendance.Record{}, attendance.ErrAlreadyClockedIn
	case attendance.KindReportPending:
		return attendance.Record{}, attendance.ErrReportPending
	}

	coords, err := locator.Locate(ctx)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("clock in: %w", err)
	}

	writeCtx, cancel := m.writeContext(ctx)
	defer cancel()

	record, err := m.repo.Create(writeCtx, m.userID, &coords)
	if err != nil {
		return attendance.Record{}, err
	}

	m.current = attendance.OpenRecord(record)
	slog.Info("Clocked in", "user_id", m.userID, "record_id", record.ID)
	return record, nil
}

// ClockOut closes the open record at the store's current time.
func (m *Machine) ClockOut(ctx context.Context, locator location.Provider) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, wasActivated := m.current, m.activated

	cur, err := m.resolve(ctx)
	if err != nil {
		return attendance.Record{}, err
	}
	m.current = cur
	m.activated = true

	if cur.Kind != attendance.KindOpen {
		if wasActivated && cached.Kind == attendance.KindOpen {
			return attendance.Record{}, attendance.ErrStaleState
		}
		return attendance.Record{}, attendance.ErrNotClockedIn
	}

	coords, err := locator.Locate(ctx)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("clock out: %w", err)
	}

	writeCtx, cancel := m.writeContext(ctx)
	defer cancel()

	record, err := m.repo.CloseOpen(writeCtx, cur.Record.ID, &coords)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			m.refreshAfterConflict(writeCtx)
			return attendance.Record{}, attendance.ErrStaleState
		}
		return attendance.Record{}, err
	}

	m.current = attendance.PendingReport(record)
	slog.Info("Clocked out", "user_id", m.userID, "record_id", record.ID, "worked", record.Worked().String())
	return record, nil
}

// SubmitReport stores the daily report on the record awaiting one. The text
// is stored as given; it only has to be non-blank.
func (m *Machine) SubmitReport(ctx context.Context, text string) (attendance.Record, error) {
	req := attendance.SubmitReportRequest{DailyReport: text}
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cached, wasActivated := m.current, m.activated

	cur, err := m.resolve(ctx)
	if err != nil {
		return attendance.Record{}, err
	}
	m.current = cur
	m.activated = true

	if cur.Kind != attendance.KindReportPending {
		if wasActivated && cached.Kind == attendance.KindReportPending {
			return attendance.Record{}, attendance.ErrStaleState
		}
		return attendance.Record{}, attendance.ErrNoReportPending
	}

	writeCtx, cancel := m.writeContext(ctx)
	defer cancel()

	record, err := m.repo.SetReport(writeCtx, cur.Record.ID, text)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			m.refreshAfterConflict(writeCtx)
			return attendance.Record{}, attendance.ErrStaleState
		}
		return attendance.Record{}, err
	}

	m.current = attendance.NoRecord()
	slog.Info("Daily report submitted", "user_id", m.userID, "record_id", record.ID)
	return record, nil
}

// resolve reads the user's current record from the store. Callers hold m.mu.
func (m *Machine) resolve(ctx context.Context) (attendance.Current, error) {
	open, err := m.repo.FindOpen(ctx, m.userID)
	if err != nil {
		return attendance.NoRecord(), err
	}
	if open != nil {
		return attendance.OpenRecord(*open), nil
	}

	latest, err := m.repo.FindLatest(ctx, m.userID)
	if err != nil {
		return attendance.NoRecord(), err
	}
	return attendance.Resolve(nil, latest), nil
}

func (m *Machine) refreshAfterConflict(ctx context.Context) {
	cur, err := m.resolve(ctx)
	if err != nil {
		slog.Warn("Attendance refresh after conflict failed", "user_id", m.userID, "error", err)
		return
	}
	m.current = cur
}

// writeContext keeps a started write running if the caller goes away.
func (m *Machine) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
}

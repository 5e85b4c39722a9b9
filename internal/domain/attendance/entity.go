package attendance

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/location"
)

// Record is one clock-in/clock-out pair. Only the store assigns ClockIn
// and ClockOut.
type Record struct {
	ID          string
	UserID      string
	ClockIn     time.Time
	ClockOut    *time.Time
	LocationIn  *location.Coordinates
	LocationOut *location.Coordinates
	DailyReport *string
}

// IsOpen reports whether the record is still waiting for a clock-out.
func (r Record) IsOpen() bool {
	return r.ClockOut == nil
}

// AwaitingReport reports whether the record is closed but has no daily report.
func (r Record) AwaitingReport() bool {
	return r.ClockOut != nil && r.DailyReport == nil
}

// Worked is the time between clock-in and clock-out, zero while open.
func (r Record) Worked() time.Duration {
	if r.ClockOut == nil {
		return 0
	}
	return r.ClockOut.Sub(r.ClockIn)
}

type State string

const (
	StateClockedOut    State = "clocked_out"
	StateClockedIn     State = "clocked_in"
	StateReportPending State = "report_pending"
)

type Kind int

const (
	KindNoRecord Kind = iota
	KindOpen
	KindReportPending
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindReportPending:
		return "report_pending"
	default:
		return "none"
	}
}

// Current is the user's current record as seen by the state machine.
// Record is set only for KindOpen and KindReportPending.
type Current struct {
	Kind   Kind
	Record *Record
}

func NoRecord() Current {
	return Current{Kind: KindNoRecord}
}

func OpenRecord(r Record) Current {
	return Current{Kind: KindOpen, Record: &r}
}

func PendingReport(r Record) Current {
	return Current{Kind: KindReportPending, Record: &r}
}

// Resolve derives the current record from the user's open record (if any)
// and most recent record (if any).
func Resolve(open *Record, latest *Record) Current {
	if open != nil {
		return OpenRecord(*open)
	}
	if latest != nil && latest.AwaitingReport() {
		return PendingReport(*latest)
	}
	return NoRecord()
}

func (c Current) State() State {
	switch c.Kind {
	case KindOpen:
		return StateClockedIn
	case KindReportPending:
		return StateReportPending
	default:
		return StateClockedOut
	}
}

// SameRecord reports whether both values point at the same record in the same kind.
func (c Current) SameRecord(other Current) bool {
	if c.Kind != other.Kind {
		return false
	}
	if c.Record == nil || other.Record == nil {
		return c.Record == nil && other.Record == nil
	}
	return c.Record.ID == other.Record.ID
}

// OpenCount is the number of open records held by one user.
type OpenCount struct {
	UserID string
	Open   int
}

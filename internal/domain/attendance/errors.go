package attendance

import "errors"

// Attendance domain errors
var (
	// Lifecycle errors
	ErrAlreadyClockedIn = errors.New("you are already clocked in")
	ErrNotClockedIn     = errors.New("you are not clocked in")
	ErrReportPending    = errors.New("submit the daily report for your last shift before clocking in")
	ErrNoReportPending  = errors.New("no shift is waiting for a daily report")
	ErrStaleState       = errors.New("attendance changed elsewhere, state has been refreshed")

	// Store errors
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrPersistence    = errors.New("attendance store unavailable")
)

package worktime

import (
	"fmt"
	"time"
)

// StandardShift is the working time after which a shift counts as overtime.
const StandardShift = 8 * time.Hour

// NoDuration is shown in place of a worked duration for records without a clock-out.
const NoDuration = "—"

type Status string

const (
	StatusUnder Status = "under"
	StatusOver  Status = "over"
)

// FormatElapsed renders seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Classify reports whether elapsed seconds reached the standard shift.
func Classify(seconds int64) Status {
	if seconds < int64(StandardShift/time.Second) {
		return StatusUnder
	}
	return StatusOver
}

// FormatWorked renders the time between clock-in and clock-out as H:MM,
// truncating seconds.
func FormatWorked(clockIn time.Time, clockOut *time.Time) string {
	if clockOut == nil {
		return NoDuration
	}
	hours, minutes := Split(clockOut.Sub(clockIn))
	return fmt.Sprintf("%d:%02d", hours, minutes)
}

// Split breaks a duration into whole hours and the remaining whole minutes.
func Split(d time.Duration) (hours int, minutes int) {
	if d < 0 {
		return 0, 0
	}
	total := int(d / time.Minute)
	return total / 60, total % 60
}

// ElapsedSeconds is the whole number of seconds from start to now.
func ElapsedSeconds(start, now time.Time) int64 {
	secs := int64(now.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

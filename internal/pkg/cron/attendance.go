package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
)

// AttendanceJobs holds server-side maintenance over time entries.
type AttendanceJobs struct {
	attendanceRepo attendance.Repository
}

func NewAttendanceJobs(attendanceRepo attendance.Repository) *AttendanceJobs {
	return &AttendanceJobs{attendanceRepo: attendanceRepo}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("audit_open_records", interval, j.AuditOpenRecords)
}

// AuditOpenRecords reports users holding more than one open record. Clock-in
// checks and writes are separate store calls, so concurrent clock-ins from two
// devices can both land. Nothing is closed automatically.
func (j *AttendanceJobs) AuditOpenRecords(ctx context.Context) error {
	counts, err := j.attendanceRepo.FindUsersWithMultipleOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to audit open records: %w", err)
	}

	for _, c := range counts {
		slog.Warn("Cron: user has multiple open attendance records",
			"user_id", c.UserID,
			"open_records", c.Open,
		)
	}

	slog.Info("Cron: open record audit completed", "users_flagged", len(counts))
	return nil
}

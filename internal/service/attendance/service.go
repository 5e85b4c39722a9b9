package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/location"
	"github.com/cmlabs-hris/timeclock/internal/domain/worktime"
	"github.com/jonboulle/clockwork"
)

type AttendanceServiceImpl struct {
	registry      *Registry
	clock         clockwork.Clock
	locateTimeout time.Duration
}

func NewAttendanceService(registry *Registry, clock clockwork.Clock, locateTimeout time.Duration) attendance.Service {
	return &AttendanceServiceImpl{
		registry:      registry,
		clock:         clock,
		locateTimeout: locateTimeout,
	}
}

func (s *AttendanceServiceImpl) locator(req attendance.ClockRequest) location.Provider {
	p := location.FromReport(req.ClientReport)
	if s.locateTimeout > 0 {
		p = location.WithTimeout(p, s.locateTimeout)
	}
	return p
}

// Current implements attendance.Service.
func (s *AttendanceServiceImpl) Current(ctx context.Context, session auth.Session) (attendance.CurrentResponse, error) {
	m, err := s.registry.Machine(ctx, session.UserID)
	if err != nil {
		return attendance.CurrentResponse{}, err
	}

	cur, err := m.Activate(ctx)
	if err != nil {
		return attendance.CurrentResponse{}, err
	}

	resp := attendance.CurrentResponse{
		State:   cur.State(),
		Elapsed: attendance.NewElapsedResponse(false, 0),
	}
	if cur.Record != nil {
		rec := attendance.NewRecordResponse(*cur.Record)
		resp.Record = &rec
	}
	if cur.Kind == attendance.KindOpen {
		resp.Elapsed = attendance.NewElapsedResponse(true, worktime.ElapsedSeconds(cur.Record.ClockIn, s.clock.Now()))
	}
	return resp, nil
}

// ClockIn implements attendance.Service.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, session auth.Session, req attendance.ClockRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	m, err := s.registry.Machine(ctx, session.UserID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	record, err := m.ClockIn(ctx, s.locator(req))
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return attendance.NewRecordResponse(record), nil
}

// ClockOut implements attendance.Service.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, session auth.Session, req attendance.ClockRequest) (attendance.ClockOutResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ClockOutResponse{}, err
	}

	m, err := s.registry.Machine(ctx, session.UserID)
	if err != nil {
		return attendance.ClockOutResponse{}, err
	}

	record, err := m.ClockOut(ctx, s.locator(req))
	if err != nil {
		return attendance.ClockOutResponse{}, err
	}

	hours, minutes := worktime.Split(record.Worked())
	resp := attendance.ClockOutResponse{
		Record:        attendance.NewRecordResponse(record),
		Worked:        worktime.FormatWorked(record.ClockIn, record.ClockOut),
		WorkedHours:   hours,
		WorkedMinutes: minutes,
	}
	if record.LocationIn != nil && record.LocationOut != nil {
		d := location.Distance(*record.LocationIn, *record.LocationOut)
		resp.DistanceMeters = &d
	}
	return resp, nil
}

// SubmitReport implements attendance.Service.
func (s *AttendanceServiceImpl) SubmitReport(ctx context.Context, session auth.Session, req attendance.SubmitReportRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	m, err := s.registry.Machine(ctx, session.UserID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	record, err := m.SubmitReport(ctx, req.DailyReport)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return attendance.NewRecordResponse(record), nil
}

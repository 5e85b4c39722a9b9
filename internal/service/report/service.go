package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/cmlabs-hris/timeclock/internal/domain/worktime"
	"github.com/jonboulle/clockwork"
)

const (
	dateLayout  = "2006-01-02"
	timeLayout  = "15:04:05"
	monthLabel  = "January 2006"
	monthsShown = 12
)

var _ report.Service = (*ReportServiceImpl)(nil)

type ReportServiceImpl struct {
	attendanceRepo attendance.Repository
	loc            *time.Location
	clock          clockwork.Clock
}

func NewReportService(attendanceRepo attendance.Repository, loc *time.Location, clock clockwork.Clock) *ReportServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &ReportServiceImpl{
		attendanceRepo: attendanceRepo,
		loc:            loc,
		clock:          clock,
	}
}

// Load fetches the user's records whose clock-in falls in the month, newest first.
func (s *ReportServiceImpl) Load(ctx context.Context, userID string, month report.Month) ([]attendance.Record, error) {
	from, to := month.Bounds(s.loc)

	records, err := s.attendanceRepo.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		slog.Error("Failed to load monthly records",
			"user_id", userID,
			"month", month.String(),
			"error", err,
		)
		return nil, err
	}
	return records, nil
}

// Monthly implements report.Service.
func (s *ReportServiceImpl) Monthly(ctx context.Context, session auth.Session, req report.MonthlyReportRequest) (report.MonthlyReportResponse, error) {
	month, err := req.Validate()
	if err != nil {
		return report.MonthlyReportResponse{}, err
	}

	records, err := s.Load(ctx, session.UserID, month)
	if err != nil {
		return report.MonthlyReportResponse{}, err
	}

	return s.page(month, records, req.Page), nil
}

// Months implements report.Service. It lists the current month and the
// eleven before it, newest first.
func (s *ReportServiceImpl) Months() []report.MonthOption {
	m := report.MonthOf(s.clock.Now().In(s.loc))

	options := make([]report.MonthOption, 0, monthsShown)
	for i := 0; i < monthsShown; i++ {
		first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, s.loc)
		options = append(options, report.MonthOption{
			Value: m.String(),
			Label: first.Format(monthLabel),
		})
		m = m.Previous()
	}
	return options
}

func (s *ReportServiceImpl) page(month report.Month, records []attendance.Record, page int) report.MonthlyReportResponse {
	total := len(records)
	start, end := report.PageBounds(total, page, report.PageSize)

	rows := make([]report.Row, 0, end-start)
	for _, r := range records[start:end] {
		rows = append(rows, s.row(r))
	}

	return report.MonthlyReportResponse{
		Month:      month.String(),
		Rows:       rows,
		Page:       page,
		PageSize:   report.PageSize,
		TotalItems: total,
		TotalPages: report.TotalPages(total, report.PageSize),
		Showing:    report.Showing(start, end, total),
	}
}

func (s *ReportServiceImpl) row(r attendance.Record) report.Row {
	in := r.ClockIn.In(s.loc)

	row := report.Row{
		ID:          r.ID,
		Date:        in.Format(dateLayout),
		ClockIn:     in.Format(timeLayout),
		ClockOut:    worktime.NoDuration,
		Worked:      worktime.FormatWorked(r.ClockIn, r.ClockOut),
		DailyReport: worktime.NoDuration,
	}
	if r.ClockOut != nil {
		row.ClockOut = r.ClockOut.In(s.loc).Format(timeLayout)
	}
	if r.DailyReport != nil {
		row.DailyReport = *r.DailyReport
	}
	return row
}

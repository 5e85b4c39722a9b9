package report

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/report"
)

// View is one user's browsing position in the monthly report. Selecting a
// month reloads the records and returns to page 1; paging is served from
// the loaded records.
type View struct {
	mu      sync.Mutex
	svc     *ReportServiceImpl
	userID  string
	month   report.Month
	loaded  bool
	records []attendance.Record
	page    int
}

func (s *ReportServiceImpl) NewView(userID string) *View {
	return &View{svc: s, userID: userID, page: 1}
}

// SelectMonth loads the month. On failure the previous selection is kept.
func (v *View) SelectMonth(ctx context.Context, month report.Month) (report.MonthlyReportResponse, error) {
	records, err := v.svc.Load(ctx, v.userID, month)
	if err != nil {
		return report.MonthlyReportResponse{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.month = month
	v.records = records
	v.loaded = true
	v.page = 1
	return v.svc.page(v.month, v.records, v.page), nil
}

// SetPage moves to a 1-indexed page. Pages past the last one are empty.
func (v *View) SetPage(page int) (report.MonthlyReportResponse, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.loaded {
		return report.MonthlyReportResponse{}, report.ErrMonthNotLoaded
	}
	if page < 1 {
		page = 1
	}
	v.page = page
	return v.svc.page(v.month, v.records, v.page), nil
}

// Next advances one page unless already on the last.
func (v *View) Next() (report.MonthlyReportResponse, error) {
	v.mu.Lock()
	page := v.page
	if last := report.TotalPages(len(v.records), report.PageSize); page < last {
		page++
	}
	v.mu.Unlock()
	return v.SetPage(page)
}

// Prev goes back one page, stopping at page 1.
func (v *View) Prev() (report.MonthlyReportResponse, error) {
	v.mu.Lock()
	page := v.page - 1
	v.mu.Unlock()
	return v.SetPage(page)
}

// Page returns the current page.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// PageSize is the number of rows on one report page.
const PageSize = 10

// Month selects a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Bounds returns the first and last instant of the month in loc, both inclusive.
func (m Month) Bounds(loc *time.Location) (from, to time.Time) {
	from = time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	to = from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}

// Previous returns the month before m.
func (m Month) Previous() Month {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return MonthOf(first)
}

type MonthlyReportRequest struct {
	Month string `json:"month"`
	Page  int    `json:"page"`
}

// Validate checks the request and returns the parsed month.
func (r *MonthlyReportRequest) Validate() (Month, error) {
	var errs validator.ValidationErrors

	year, month, ok := validator.IsValidMonth(r.Month)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	}

	if r.Page < 1 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive integer",
		})
	}

	if len(errs) > 0 {
		return Month{}, errs
	}
	return Month{Year: year, Month: month}, nil
}

type Row struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	ClockIn     string `json:"clock_in"`
	ClockOut    string `json:"clock_out"`
	Worked      string `json:"worked"`
	DailyReport string `json:"daily_report"`
}

type MonthlyReportResponse struct {
	Month      string `json:"month"`
	Rows       []Row  `json:"rows"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
	Showing    string `json:"showing"`
}

type MonthOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TotalPages is ceil(total/size).
func TotalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PageBounds returns the half-open offset range [start, end) of a 1-indexed page,
// clipped to total. Pages past the end are empty.
func PageBounds(total, page, size int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || page-1 >= TotalPages(total, size) {
		return total, total
	}
	start = (page - 1) * size
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}

// Showing renders the "a-b of n" caption for a page.
func Showing(start, end, total int) string {
	if total == 0 || start >= end {
		return fmt.Sprintf("0 of %d", total)
	}
	return fmt.Sprintf("%d-%d of %d", start+1, end, total)
}

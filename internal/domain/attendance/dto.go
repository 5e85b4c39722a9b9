package attendance

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/location"
	"github.com/cmlabs-hris/timeclock/internal/domain/worktime"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

// ClockRequest carries the client's location query outcome for a clock action.
type ClockRequest struct {
	location.ClientReport
}

func (r *ClockRequest) Validate() error {
	return r.ClientReport.Validate()
}

type SubmitReportRequest struct {
	DailyReport string `json:"daily_report"`
}

func (r *SubmitReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DailyReport) {
		errs = append(errs, validator.ValidationError{
			Field:   "daily_report",
			Message: "daily_report is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID          string                `json:"id"`
	ClockIn     time.Time             `json:"clock_in"`
	ClockOut    *time.Time            `json:"clock_out"`
	LocationIn  *location.Coordinates `json:"location_in"`
	LocationOut *location.Coordinates `json:"location_out"`
	DailyReport *string               `json:"daily_report"`
}

func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID,
		ClockIn:     r.ClockIn,
		ClockOut:    r.ClockOut,
		LocationIn:  r.LocationIn,
		LocationOut: r.LocationOut,
		DailyReport: r.DailyReport,
	}
}

// ElapsedResponse is a reading of the live working-time display.
type ElapsedResponse struct {
	Running bool            `json:"running"`
	Seconds int64           `json:"seconds"`
	Display string          `json:"display"`
	Status  worktime.Status `json:"status"`
}

func NewElapsedResponse(running bool, seconds int64) ElapsedResponse {
	return ElapsedResponse{
		Running: running,
		Seconds: seconds,
		Display: worktime.FormatElapsed(seconds),
		Status:  worktime.Classify(seconds),
	}
}

type CurrentResponse struct {
	State   State           `json:"state"`
	Record  *RecordResponse `json:"record"`
	Elapsed ElapsedResponse `json:"elapsed"`
}

type ClockOutResponse struct {
	Record         RecordResponse `json:"record"`
	Worked         string         `json:"worked"`
	WorkedHours    int            `json:"worked_hours"`
	WorkedMinutes  int            `json:"worked_minutes"`
	DistanceMeters *float64       `json:"distance_meters,omitempty"`
}

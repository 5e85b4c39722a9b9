package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/domain/location"
	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token revoked")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrMissingUserID):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, auth.ErrAdminRequired):
		Forbidden(w, "Admin access required")

	// Location capability errors
	case errors.Is(err, location.ErrCapabilityDenied):
		UnprocessableEntity(w, "LOCATION_DENIED", "Location permission denied")
	case errors.Is(err, location.ErrCapabilityUnavailable):
		UnprocessableEntity(w, "LOCATION_UNAVAILABLE", "Location unavailable")

	// Attendance lifecycle errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "ALREADY_CLOCKED_IN", err.Error())
	case errors.Is(err, attendance.ErrNotClockedIn):
		Conflict(w, "NOT_CLOCKED_IN", err.Error())
	case errors.Is(err, attendance.ErrReportPending):
		Conflict(w, "REPORT_PENDING", err.Error())
	case errors.Is(err, attendance.ErrNoReportPending):
		Conflict(w, "NO_REPORT_PENDING", err.Error())
	case errors.Is(err, attendance.ErrStaleState):
		Conflict(w, "STALE_STATE", err.Error())
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "ALREADY_PROCESSED", "Leave request already processed")

	// Report errors
	case errors.Is(err, report.ErrMonthNotLoaded):
		BadRequest(w, err.Error(), nil)

	// Store errors
	case errors.Is(err, attendance.ErrPersistence),
		errors.Is(err, leave.ErrPersistence),
		errors.Is(err, auth.ErrRevocationFailed):
		slog.Error("Store unavailable", "error", err)
		ServiceUnavailable(w, "Service temporarily unavailable, try again")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

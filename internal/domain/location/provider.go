package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// Provider performs a single location query. Implementations do not retry
// or cache; every clock action asks again.
type Provider interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Coordinates, error)

func (f ProviderFunc) Locate(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// Error codes a client may report instead of coordinates.
const (
	ReportDenied      = "denied"
	ReportUnavailable = "unavailable"
	ReportTimeout     = "timeout"
)

// ClientReport is the outcome of the device query as sent by the client.
type ClientReport struct {
	Location *Coordinates `json:"location"`
	Error    string       `json:"location_error,omitempty"`
}

func (r ClientReport) Validate() error {
	var errs validator.ValidationErrors

	code := strings.ToLower(strings.TrimSpace(r.Error))
	if code != "" && !validator.IsInSlice(code, []string{ReportDenied, ReportUnavailable, ReportTimeout}) {
		errs = append(errs, validator.ValidationError{
			Field:   "location_error",
			Message: "location_error must be one of: denied, unavailable, timeout",
		})
	}

	if code == "" && r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			errs = append(errs, err.(validator.ValidationErrors)...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FromReport answers with whatever the client observed. A missing report
// counts as an unavailable capability.
func FromReport(report ClientReport) Provider {
	return ProviderFunc(func(ctx context.Context) (Coordinates, error) {
		switch strings.ToLower(strings.TrimSpace(report.Error)) {
		case ReportDenied:
			return Coordinates{}, ErrCapabilityDenied
		case ReportUnavailable, ReportTimeout:
			return Coordinates{}, ErrCapabilityUnavailable
		}
		if report.Location == nil {
			return Coordinates{}, ErrCapabilityUnavailable
		}
		return *report.Location, nil
	})
}

// WithTimeout bounds a query. A query still running at the deadline is
// reported as unavailable.
func WithTimeout(next Provider, timeout time.Duration) Provider {
	return ProviderFunc(func(ctx context.Context) (Coordinates, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type result struct {
			coords Coordinates
			err    error
		}
		done := make(chan result, 1)
		go func() {
			c, err := next.Locate(ctx)
			done <- result{c, err}
		}()

		select {
		case r := <-done:
			if r.err != nil && ctx.Err() != nil {
				return Coordinates{}, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, ctx.Err())
			}
			return r.coords, r.err
		case <-ctx.Done():
			return Coordinates{}, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, ctx.Err())
		}
	})
}

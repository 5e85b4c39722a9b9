package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/location"
)

// Repository is the time entry store. Failures of the store itself are
// wrapped with ErrPersistence.
type Repository interface {
	// FindOpen returns the user's newest record without clock-out, or nil.
	FindOpen(ctx context.Context, userID string) (*Record, error)

	// FindLatest returns the user's newest record by clock-in, or nil.
	FindLatest(ctx context.Context, userID string) (*Record, error)

	// Create inserts an open record. The store assigns the clock-in time.
	Create(ctx context.Context, userID string, at *location.Coordinates) (Record, error)

	// CloseOpen sets clock-out to the store's time on a record that is still open.
	// Returns ErrRecordNotFound when no such open record exists.
	CloseOpen(ctx context.Context, recordID string, at *location.Coordinates) (Record, error)

	// SetReport stores the daily report on a closed record that has none.
	// Returns ErrRecordNotFound when no such record exists.
	SetReport(ctx context.Context, recordID string, report string) (Record, error)

	// ListByUserBetween returns records with from <= clock-in <= to, newest first.
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]Record, error)

	// FindUsersWithMultipleOpen lists users holding more than one open record.
	FindUsersWithMultipleOpen(ctx context.Context) ([]OpenCount, error)
}

package notification

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
)

type Service interface {
	// Count returns the point-in-time notification count for the session.
	Count(ctx context.Context, session auth.Session) (CountResponse, error)

	// Watch streams a fresh count each time a relevant leave request changes.
	// The returned stop function releases the subscription.
	Watch(ctx context.Context, session auth.Session) (<-chan CountResponse, func())
}

package leave

import "context"

type Repository interface {
	// Create stores a new request. The store assigns ID and CreatedAt.
	Create(ctx context.Context, req Request) (Request, error)

	GetByID(ctx context.Context, id string) (Request, error)

	// Decide moves a pending request to approved or rejected.
	// Returns ErrLeaveRequestAlreadyProcessed when the request is not pending.
	Decide(ctx context.Context, id string, status Status) (Request, error)

	// ListByUser returns the user's requests, newest first.
	ListByUser(ctx context.Context, userID string) ([]Request, error)

	// Count returns how many requests match the filter right now.
	Count(ctx context.Context, filter Filter) (int, error)
}

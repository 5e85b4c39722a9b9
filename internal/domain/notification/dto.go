package notification

import (
	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
)

type Scope string

const (
	// ScopePendingRequests counts requests waiting for any admin.
	ScopePendingRequests Scope = "pending_requests"
	// ScopeDecidedRequests counts the user's own approved or rejected requests.
	ScopeDecidedRequests Scope = "decided_requests"
)

type CountResponse struct {
	Scope Scope `json:"scope"`
	Count int   `json:"count"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// FilterFor is the leave request filter whose size is shown to the session.
func FilterFor(session auth.Session) (Scope, leave.Filter) {
	if session.IsAdmin() {
		return ScopePendingRequests, leave.Filter{
			Statuses: []leave.Status{leave.StatusPending},
		}
	}
	userID := session.UserID
	return ScopeDecidedRequests, leave.Filter{
		UserID:   &userID,
		Statuses: []leave.Status{leave.StatusApproved, leave.StatusRejected},
	}
}

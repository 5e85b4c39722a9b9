package leave

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Decided reports whether an admin has approved or rejected the request.
func (s Status) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	TypePersonal = "personal"
	TypeSick     = "sick"
)

// Request is a leave request as stored. Only admins change its status.
type Request struct {
	ID        string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	LeaveType string
	Reason    string
	Status    Status
	CreatedAt time.Time
}

// Filter selects requests for counting. A nil UserID matches every user and
// an empty Statuses matches every status.
type Filter struct {
	UserID   *string
	Statuses []Status
}

// Matches reports whether r satisfies the filter.
func (f Filter) Matches(r Request) bool {
	if f.UserID != nil && r.UserID != *f.UserID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

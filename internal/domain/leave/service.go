package leave

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
)

type Service interface {
	Submit(ctx context.Context, session auth.Session, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	Decide(ctx context.Context, session auth.Session, id string, req DecideLeaveRequestRequest) (LeaveRequestResponse, error)
	ListMine(ctx context.Context, session auth.Session) ([]LeaveRequestResponse, error)
}

package attendance

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
)

type Service interface {
	Current(ctx context.Context, session auth.Session) (CurrentResponse, error)
	ClockIn(ctx context.Context, session auth.Session, req ClockRequest) (RecordResponse, error)
	ClockOut(ctx context.Context, session auth.Session, req ClockRequest) (ClockOutResponse, error)
	SubmitReport(ctx context.Context, session auth.Session, req SubmitReportRequest) (RecordResponse, error)
}

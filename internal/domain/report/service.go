package report

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
)

type Service interface {
	Monthly(ctx context.Context, session auth.Session, req MonthlyReportRequest) (MonthlyReportResponse, error)
	Months() []MonthOption
}

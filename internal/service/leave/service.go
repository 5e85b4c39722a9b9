package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	leaveRepo leave.Repository
}

func NewLeaveService(leaveRepo leave.Repository) leave.Service {
	return &LeaveServiceImpl{leaveRepo: leaveRepo}
}

// Submit implements leave.Service. New requests start pending.
func (s *LeaveServiceImpl) Submit(ctx context.Context, session auth.Session, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, err := validator.ParseDate(req.StartDate)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to parse start date: %w", err)
	}
	end, err := validator.ParseDate(req.EndDate)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to parse end date: %w", err)
	}

	created, err := s.leaveRepo.Create(ctx, leave.Request{
		UserID:    session.UserID,
		StartDate: time.Time(start),
		EndDate:   time.Time(end),
		LeaveType: req.LeaveType,
		Reason:    req.Reason,
		Status:    leave.StatusPending,
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request submitted", "user_id", session.UserID, "request_id", created.ID)
	return leave.NewLeaveRequestResponse(created), nil
}

// Decide implements leave.Service. Only admins may decide.
func (s *LeaveServiceImpl) Decide(ctx context.Context, session auth.Session, id string, req leave.DecideLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if !session.IsAdmin() {
		return leave.LeaveRequestResponse{}, auth.ErrAdminRequired
	}

	var errs validator.ValidationErrors
	if !validator.IsValidUUID(id) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id must be a valid UUID"})
	}
	if err := req.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	if len(errs) > 0 {
		return leave.LeaveRequestResponse{}, errs
	}

	decided, err := s.leaveRepo.Decide(ctx, id, leave.Status(req.Status))
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request decided",
		"request_id", decided.ID,
		"status", string(decided.Status),
		"decided_by", session.UserID,
	)
	return leave.NewLeaveRequestResponse(decided), nil
}

// ListMine implements leave.Service.
func (s *LeaveServiceImpl) ListMine(ctx context.Context, session auth.Session) ([]leave.LeaveRequestResponse, error) {
	requests, err := s.leaveRepo.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		resp = append(resp, leave.NewLeaveRequestResponse(r))
	}
	return resp, nil
}

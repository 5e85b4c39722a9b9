package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

const leaveRequestColumns = `
	id, user_id, start_date, end_date, leave_type, reason, status::text, created_at`

func scanLeaveRequest(row pgx.Row) (leave.Request, error) {
	var (
		lr     leave.Request
		status string
	)
	err := row.Scan(
		&lr.ID,
		&lr.UserID,
		&lr.StartDate,
		&lr.EndDate,
		&lr.LeaveType,
		&lr.Reason,
		&status,
		&lr.CreatedAt,
	)
	if err != nil {
		return leave.Request{}, err
	}
	lr.Status = leave.Status(status)
	return lr, nil
}

func leavePersistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", leave.ErrPersistence, op, err)
}

// Create implements leave.Repository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	status := req.Status
	if status == "" {
		status = leave.StatusPending
	}

	query := `
		INSERT INTO leave_requests (user_id, start_date, end_date, leave_type, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::leave_status, now())
		RETURNING` + leaveRequestColumns

	created, err := scanLeaveRequest(q.QueryRow(ctx, query,
		req.UserID,
		req.StartDate,
		req.EndDate,
		req.LeaveType,
		req.Reason,
		string(status),
	))
	if err != nil {
		return leave.Request{}, leavePersistenceError("create leave request", err)
	}
	return created, nil
}

// GetByID implements leave.Repository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveRequestColumns + ` FROM leave_requests WHERE id = $1`

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, leavePersistenceError("get leave request", err)
	}
	return lr, nil
}

// Decide implements leave.Repository.
func (r *leaveRequestRepositoryImpl) Decide(ctx context.Context, id string, status leave.Status) (leave.Request, error) {
	var decided leave.Request

	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		var current string
		err := q.QueryRow(ctx, `SELECT status::text FROM leave_requests WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return leave.ErrLeaveRequestNotFound
			}
			return leavePersistenceError("lock leave request", err)
		}
		if leave.Status(current) != leave.StatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		query := `
			UPDATE leave_requests
			SET status = $2::leave_status
			WHERE id = $1
			RETURNING` + leaveRequestColumns

		decided, err = scanLeaveRequest(q.QueryRow(ctx, query, id, string(status)))
		if err != nil {
			return leavePersistenceError("decide leave request", err)
		}
		return nil
	})
	if err != nil {
		return leave.Request{}, err
	}
	return decided, nil
}

// ListByUser implements leave.Repository.
func (r *leaveRequestRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveRequestColumns + `
		FROM leave_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, leavePersistenceError("list leave requests", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, leavePersistenceError("scan leave request", err)
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, leavePersistenceError("list leave requests", err)
	}

	return requests, nil
}

// Count implements leave.Repository.
func (r *leaveRequestRepositoryImpl) Count(ctx context.Context, filter leave.Filter) (int, error) {
	q := GetQuerier(ctx, r.db)

	var (
		where []string
		args  []interface{}
	)
	argIdx := 1

	if filter.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *filter.UserID)
		argIdx++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		where = append(where, fmt.Sprintf("status::text = ANY($%d)", argIdx))
		args = append(args, statuses)
		argIdx++
	}

	query := "SELECT COUNT(*) FROM leave_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, leavePersistenceError("count leave requests", err)
	}
	return total, nil
}

func NewLeaveRequestRepository(db *database.DB) leave.Repository {
	return &leaveRequestRepositoryImpl{db: db}
}

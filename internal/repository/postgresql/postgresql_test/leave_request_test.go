package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	"github.com/cmlabs-hris/timeclock/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLeave(t *testing.T, repo leave.Repository, userID string) leave.Request {
	t.Helper()
	lr, err := repo.Create(context.Background(), leave.Request{
		UserID:    userID,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		LeaveType: leave.TypeSick,
		Reason:    "flu",
	})
	require.NoError(t, err)
	return lr
}

func TestLeaveRequestRepository_CountByRole(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveRequestRepository(setup.DB)

	// Three pending requests across users.
	createLeave(t, repo, "alice")
	createLeave(t, repo, "bob")
	createLeave(t, repo, "carol")

	// Alice has two decided requests.
	a1 := createLeave(t, repo, "alice")
	a2 := createLeave(t, repo, "alice")
	_, err := repo.Decide(ctx, a1.ID, leave.StatusApproved)
	require.NoError(t, err)
	_, err = repo.Decide(ctx, a2.ID, leave.StatusRejected)
	require.NoError(t, err)

	pending, err := repo.Count(ctx, leave.Filter{Statuses: []leave.Status{leave.StatusPending}})
	require.NoError(t, err)
	assert.Equal(t, 3, pending)

	alice := "alice"
	decided, err := repo.Count(ctx, leave.Filter{UserID: &alice, Statuses: []leave.Status{leave.StatusApproved, leave.StatusRejected}})
	require.NoError(t, err)
	assert.Equal(t, 2, decided)

	all, err := repo.Count(ctx, leave.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 5, all)
}

func TestLeaveRequestRepository_Decide(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveRequestRepository(setup.DB)

	lr := createLeave(t, repo, "alice")
	assert.Equal(t, leave.StatusPending, lr.Status)

	decided, err := repo.Decide(ctx, lr.ID, leave.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, decided.Status)

	_, err = repo.Decide(ctx, lr.ID, leave.StatusRejected)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)

	_, err = repo.Decide(ctx, "00000000-0000-0000-0000-000000000000", leave.StatusRejected)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	mine, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "2024-03-01", mine[0].StartDate.Format("2006-01-02"))
}

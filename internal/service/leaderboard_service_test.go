package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zohouse/questbot/internal/models"
)

type fakeRankedUsers struct {
	users []models.User
}

func (f *fakeRankedUsers) Top(ctx context.Context, limit int) ([]models.User, error) {
	if limit > 0 && len(f.users) > limit {
		return f.users[:limit], nil
	}
	return f.users, nil
}

type fakeCompletionCounter struct {
	counts map[int64]int
}

func (f *fakeCompletionCounter) ApprovedCountsByUser(ctx context.Context) (map[int64]int, error) {
	return f.counts, nil
}

func TestLeaderboardAnnotatesCompletions(t *testing.T) {
	svc := NewLeaderboardService(
		&fakeRankedUsers{users: []models.User{
			{ID: 1, Username: "ada", TotalPoints: 420},
			{ID: 2, Username: "bo", TotalPoints: 111},
		}},
		&fakeCompletionCounter{counts: map[int64]int{1: 3, 2: 1}},
	)

	top, err := svc.Top(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "ada", top[0].User.Username)
	require.Equal(t, 3, top[0].QuestsCompleted)
	require.Equal(t, 1, top[1].QuestsCompleted)
}

func TestLeaderboardMissingCountsDefaultToZero(t *testing.T) {
	svc := NewLeaderboardService(
		&fakeRankedUsers{users: []models.User{{ID: 5, Username: "cy", TotalPoints: 210}}},
		&fakeCompletionCounter{counts: map[int64]int{}},
	)

	top, err := svc.Top(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Zero(t, top[0].QuestsCompleted)
}

package service

import (
	"context"
	"fmt"

	"github.com/zohouse/questbot/internal/models"
)

const LeaderboardSize = 10

type rankedUsers interface {
	Top(ctx context.Context, limit int) ([]models.User, error)
}

type completionCounter interface {
	ApprovedCountsByUser(ctx context.Context) (map[int64]int, error)
}

// LeaderboardEntry is one row of the leaderboard: the user plus how many
// quests they have completed.
type LeaderboardEntry struct {
	User            models.User
	QuestsCompleted int
}

type LeaderboardService struct {
	users       rankedUsers
	completions completionCounter
}

func NewLeaderboardService(users rankedUsers, completions completionCounter) *LeaderboardService {
	return &LeaderboardService{users: users, completions: completions}
}

// Top returns the highest scorers, at most LeaderboardSize of them, each
// annotated with their approved-quest count.
func (s *LeaderboardService) Top(ctx context.Context) ([]LeaderboardEntry, error) {
	users, err := s.users.Top(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	counts, err := s.completions.ApprovedCountsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("load completion counts: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, LeaderboardEntry{User: u, QuestsCompleted: counts[u.ID]})
	}
	return entries, nil
}

package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"github.com/zohouse/questbot/internal/models"
)

type SubmissionRepository struct {
	client *supabase.Client
}

func NewSubmissionRepository(client *supabase.Client) *SubmissionRepository {
	return &SubmissionRepository{client: client}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	var results []models.Submission
	if err := r.client.DB.From("submissions").Insert(sub).Execute(&results); err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("insert submission: empty response")
	}
	return &results[0], nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	var results []models.Submission
	err := r.client.DB.From("submissions").Select("*").Eq("id", id).Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select submission: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// FindForUserQuest returns the user's submissions for a quest, newest status
// checks first need no ordering here; callers inspect every row.
func (r *SubmissionRepository) FindForUserQuest(ctx context.Context, userID int64, questID string) ([]models.Submission, error) {
	var results []models.Submission
	err := r.client.DB.From("submissions").Select("*").
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Eq("quest_id", questID).
		Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select user submissions: %w", err)
	}
	return results, nil
}

func (r *SubmissionRepository) SetAdminMessageID(ctx context.Context, id string, messageID int) error {
	patch := map[string]interface{}{"admin_message_id": messageID}
	err := r.client.DB.From("submissions").Update(patch).Eq("id", id).Execute(nil)
	if err != nil {
		return fmt.Errorf("set admin message id: %w", err)
	}
	return nil
}

// Decide flips a pending submission to the given status. The status filter
// makes the update conditional: when another reviewer already decided, the
// row no longer matches and PostgREST returns nothing, which we report as
// decided=false.
func (r *SubmissionRepository) Decide(ctx context.Context, id string, status models.SubmissionStatus, reviewerID int64, at time.Time) (bool, error) {
	patch := map[string]interface{}{
		"status":      string(status),
		"reviewed_by": reviewerID,
		"reviewed_at": at.UTC().Format(time.RFC3339),
	}
	var results []models.Submission
	err := r.client.DB.From("submissions").Update(patch).
		Eq("id", id).
		Eq("status", string(models.StatusPending)).
		Execute(&results)
	if err != nil {
		return false, fmt.Errorf("decide submission: %w", err)
	}
	return len(results) > 0, nil
}

// CountsForUser reports how many quests the user has attempted and how many
// of those attempts were approved.
func (r *SubmissionRepository) CountsForUser(ctx context.Context, userID int64) (attempts, completed int, err error) {
	var results []models.Submission
	err = r.client.DB.From("submissions").Select("status").
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute(&results)
	if err != nil {
		return 0, 0, fmt.Errorf("count user submissions: %w", err)
	}
	for _, sub := range results {
		attempts++
		if sub.Status == models.StatusApproved {
			completed++
		}
	}
	return attempts, completed, nil
}

// ApprovedCountsByUser returns how many submissions each user has had
// approved, for annotating leaderboard rows.
func (r *SubmissionRepository) ApprovedCountsByUser(ctx context.Context) (map[int64]int, error) {
	var results []models.Submission
	err := r.client.DB.From("submissions").Select("user_id").
		Eq("status", string(models.StatusApproved)).
		Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("count approvals by user: %w", err)
	}
	counts := make(map[int64]int, len(results))
	for _, sub := range results {
		counts[sub.UserID]++
	}
	return counts, nil
}

func (r *SubmissionRepository) CountApprovedForQuest(ctx context.Context, questID string) (int, error) {
	var results []models.Submission
	err := r.client.DB.From("submissions").Select("id").
		Eq("quest_id", questID).
		Eq("status", string(models.StatusApproved)).
		Execute(&results)
	if err != nil {
		return 0, fmt.Errorf("count approved: %w", err)
	}
	return len(results), nil
}

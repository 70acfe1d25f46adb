package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zohouse/questbot/internal/models"
)

var ErrAlreadyDecided = errors.New("submission already decided")

// submissionDecider is the slice of the submission store the reviewer needs.
type submissionDecider interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Decide(ctx context.Context, id string, status models.SubmissionStatus, reviewerID int64, at time.Time) (bool, error)
}

type pointLedger interface {
	AddPoints(ctx context.Context, id int64, delta int) (int, error)
}

type questFinder interface {
	FindByID(ctx context.Context, id string) (*models.Quest, error)
}

type ReviewService struct {
	submissions submissionDecider
	users       pointLedger
	quests      questFinder
	now         func() time.Time
}

func NewReviewService(submissions submissionDecider, users pointLedger, quests questFinder) *ReviewService {
	return &ReviewService{
		submissions: submissions,
		users:       users,
		quests:      quests,
		now:         time.Now,
	}
}

// Outcome describes a settled review for the confirmation messages.
type Outcome struct {
	Submission *models.Submission
	Quest      *models.Quest
	// NewTotal is the user's balance after an approval; zero on rejection.
	NewTotal int
}

// Approve flips the submission to approved and awards the quest's points.
// The conditional update makes a second decision on the same submission a
// no-op: only the reviewer whose update landed increments points, so a
// double tap or two admins racing award at most once.
func (s *ReviewService) Approve(ctx context.Context, submissionID string, reviewerID int64) (*Outcome, error) {
	sub, quest, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	decided, err := s.submissions.Decide(ctx, submissionID, models.StatusApproved, reviewerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("approve submission: %w", err)
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}

	total, err := s.users.AddPoints(ctx, sub.UserID, quest.Points)
	if err != nil {
		return nil, fmt.Errorf("award points: %w", err)
	}
	return &Outcome{Submission: sub, Quest: quest, NewTotal: total}, nil
}

// Reject flips the submission to rejected; no points move.
func (s *ReviewService) Reject(ctx context.Context, submissionID string, reviewerID int64) (*Outcome, error) {
	sub, quest, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	decided, err := s.submissions.Decide(ctx, submissionID, models.StatusRejected, reviewerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("reject submission: %w", err)
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}
	return &Outcome{Submission: sub, Quest: quest}, nil
}

func (s *ReviewService) load(ctx context.Context, submissionID string) (*models.Submission, *models.Quest, error) {
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load submission: %w", err)
	}
	if sub == nil {
		return nil, nil, fmt.Errorf("submission %s not found", submissionID)
	}
	quest, err := s.quests.FindByID(ctx, sub.QuestID)
	if err != nil {
		return nil, nil, fmt.Errorf("load quest: %w", err)
	}
	if quest == nil {
		return nil, nil, fmt.Errorf("quest %s not found", sub.QuestID)
	}
	return sub, quest, nil
}

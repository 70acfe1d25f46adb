package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zohouse/questbot/internal/models"
)

type fakeSubmissionStore struct {
	mu   sync.Mutex
	subs map[string]*models.Submission
}

func newFakeSubmissionStore(subs ...*models.Submission) *fakeSubmissionStore {
	m := make(map[string]*models.Submission, len(subs))
	for _, s := range subs {
		m[s.ID] = s
	}
	return &fakeSubmissionStore{subs: m}
}

func (f *fakeSubmissionStore) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

// Decide mimics the conditional update: it only lands while the row is
// still pending.
func (f *fakeSubmissionStore) Decide(ctx context.Context, id string, status models.SubmissionStatus, reviewerID int64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok || sub.Status != models.StatusPending {
		return false, nil
	}
	sub.Status = status
	sub.ReviewedBy = reviewerID
	sub.ReviewedAt = at.UTC().Format(time.RFC3339)
	return true, nil
}

type fakeLedger struct {
	mu     sync.Mutex
	totals map[int64]int
	calls  int
}

func (f *fakeLedger) AddPoints(ctx context.Context, id int64, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totals == nil {
		f.totals = make(map[int64]int)
	}
	f.totals[id] += delta
	f.calls++
	return f.totals[id], nil
}

type fakeQuestStore struct {
	quests map[string]*models.Quest
}

func (f *fakeQuestStore) FindByID(ctx context.Context, id string) (*models.Quest, error) {
	return f.quests[id], nil
}

func newReviewFixture(t *testing.T) (*ReviewService, *fakeSubmissionStore, *fakeLedger) {
	t.Helper()
	subs := newFakeSubmissionStore(&models.Submission{
		ID:      "sub-1",
		UserID:  42,
		QuestID: "quest-1",
		Status:  models.StatusPending,
	})
	ledger := &fakeLedger{}
	quests := &fakeQuestStore{quests: map[string]*models.Quest{
		"quest-1": {ID: "quest-1", Title: "Daily Check-in", Points: 111},
	}}
	return NewReviewService(subs, ledger, quests), subs, ledger
}

func TestApproveAwardsPointsOnce(t *testing.T) {
	svc, subs, ledger := newReviewFixture(t)

	outcome, err := svc.Approve(context.Background(), "sub-1", 7)
	require.NoError(t, err)
	require.Equal(t, 111, outcome.NewTotal)
	require.Equal(t, "Daily Check-in", outcome.Quest.Title)

	stored, err := subs.FindByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, stored.Status)
	require.Equal(t, int64(7), stored.ReviewedBy)

	// Second tap on the same button.
	_, err = svc.Approve(context.Background(), "sub-1", 7)
	require.ErrorIs(t, err, ErrAlreadyDecided)
	require.Equal(t, 1, ledger.calls)
}

func TestRejectDoesNotTouchPoints(t *testing.T) {
	svc, subs, ledger := newReviewFixture(t)

	outcome, err := svc.Reject(context.Background(), "sub-1", 9)
	require.NoError(t, err)
	require.Zero(t, outcome.NewTotal)

	stored, err := subs.FindByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, stored.Status)
	require.Zero(t, ledger.calls)
}

func TestApproveThenRejectIsNoOp(t *testing.T) {
	svc, subs, _ := newReviewFixture(t)

	_, err := svc.Approve(context.Background(), "sub-1", 1)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), "sub-1", 2)
	require.ErrorIs(t, err, ErrAlreadyDecided)

	stored, err := subs.FindByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, stored.Status)
}

func TestConcurrentApprovesAwardExactlyOnce(t *testing.T) {
	svc, _, ledger := newReviewFixture(t)

	const reviewers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(reviewer int64) {
			defer wg.Done()
			if _, err := svc.Approve(context.Background(), "sub-1", reviewer); err == nil {
				successes <- struct{}{}
			}
		}(int64(i + 1))
	}
	wg.Wait()
	close(successes)

	var won int
	for range successes {
		won++
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, ledger.calls)
	require.Equal(t, 111, ledger.totals[42])
}

func TestApproveUnknownSubmission(t *testing.T) {
	svc, _, _ := newReviewFixture(t)
	_, err := svc.Approve(context.Background(), "missing", 1)
	require.Error(t, err)
}

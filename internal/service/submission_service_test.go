package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zohouse/questbot/internal/models"
)

type fakeSubmissionRepo struct {
	subs   []models.Submission
	nextID int
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	f.nextID++
	stored := *sub
	stored.ID = fmt.Sprintf("sub-%d", f.nextID)
	f.subs = append(f.subs, stored)
	return &stored, nil
}

func (f *fakeSubmissionRepo) FindForUserQuest(ctx context.Context, userID int64, questID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range f.subs {
		if s.UserID == userID && s.QuestID == questID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) SetAdminMessageID(ctx context.Context, id string, messageID int) error {
	for i := range f.subs {
		if f.subs[i].ID == id {
			f.subs[i].AdminMessageID = messageID
		}
	}
	return nil
}

func (f *fakeSubmissionRepo) CountApprovedForQuest(ctx context.Context, questID string) (int, error) {
	count := 0
	for _, s := range f.subs {
		if s.QuestID == questID && s.Status == models.StatusApproved {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) CountsForUser(ctx context.Context, userID int64) (int, int, error) {
	attempts, completed := 0, 0
	for _, s := range f.subs {
		if s.UserID != userID {
			continue
		}
		attempts++
		if s.Status == models.StatusApproved {
			completed++
		}
	}
	return attempts, completed, nil
}

type fakeQuestCatalog struct {
	quests []models.Quest
}

func (f *fakeQuestCatalog) FindByKeyword(ctx context.Context, keyword string) (*models.Quest, error) {
	for i := range f.quests {
		if f.quests[i].Active && strings.EqualFold(f.quests[i].Keyword, keyword) {
			return &f.quests[i], nil
		}
	}
	return nil, nil
}

func (f *fakeQuestCatalog) ListActive(ctx context.Context, now time.Time) ([]models.Quest, error) {
	today := now.Format("2006-01-02")
	var out []models.Quest
	for _, q := range f.quests {
		if q.Active && !q.Expired(today) {
			out = append(out, q)
		}
	}
	return out, nil
}

func newSubmissionFixture(quests ...models.Quest) (*SubmissionService, *fakeSubmissionRepo) {
	subs := &fakeSubmissionRepo{}
	svc := NewSubmissionService(subs, &fakeQuestCatalog{quests: quests}, 20*1024*1024)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return svc, subs
}

func photoQuest(id, keyword, deadline string) models.Quest {
	return models.Quest{
		ID:             id,
		Title:          "Quest " + id,
		Keyword:        keyword,
		ValidationType: models.ValidationPhoto,
		Points:         111,
		Deadline:       deadline,
		Active:         true,
	}
}

func TestSubmitCreatesPendingSubmission(t *testing.T) {
	svc, repo := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))

	sub, quest, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		FileID:    "file-1",
		Caption:   "done! zozozo123",
	})
	require.NoError(t, err)
	require.Equal(t, "q1", quest.ID)
	require.Equal(t, models.StatusPending, sub.Status)
	require.NotEmpty(t, sub.ID)
	require.Len(t, repo.subs, 1)
}

func TestSubmitMatchesCustomKeyword(t *testing.T) {
	// Keywords that don't follow the derived zozozo form still match when
	// they appear as a word in the caption.
	svc, _ := newSubmissionFixture(photoQuest("q1", "dxb42", models.DeadlineEveryday))

	sub, quest, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		FileID:    "file-1",
		Caption:   "dxb42",
	})
	require.NoError(t, err)
	require.Equal(t, "q1", quest.ID)
	require.Equal(t, models.StatusPending, sub.Status)
}

func TestSubmitCustomKeywordCaseInsensitive(t *testing.T) {
	svc, _ := newSubmissionFixture(photoQuest("q1", "dxb42", models.DeadlineEveryday))

	_, quest, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		FileID:    "file-1",
		Caption:   "Here you go: DXB42!",
	})
	require.NoError(t, err)
	require.Equal(t, "q1", quest.ID)
}

func TestSubmitRejectsCaptionWithoutKeyword(t *testing.T) {
	svc, repo := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))

	_, _, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		Caption:   "look at my photo",
	})
	require.ErrorIs(t, err, ErrNoKeyword)
	require.Empty(t, repo.subs)
}

func TestSubmitRejectsUnknownKeyword(t *testing.T) {
	svc, _ := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))

	_, _, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		Caption:   "zozozo999",
	})
	require.ErrorIs(t, err, ErrNoMatchingQuest)
}

func TestSubmitRejectsExpiredQuest(t *testing.T) {
	svc, _ := newSubmissionFixture(photoQuest("q1", "zozozo123", "2026-08-28"))

	_, quest, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		Caption:   "zozozo123",
	})
	require.ErrorIs(t, err, ErrQuestClosed)
	require.Equal(t, "q1", quest.ID)
}

func TestSubmitAcceptsDeadlineDay(t *testing.T) {
	// The deadline date itself is still open.
	svc, _ := newSubmissionFixture(photoQuest("q1", "zozozo123", "2026-08-29"))

	_, _, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaPhoto,
		Caption:   "zozozo123",
	})
	require.NoError(t, err)
}

func TestSubmitRejectsWrongMediaType(t *testing.T) {
	svc, _ := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))

	_, _, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaVideo,
		FileSize:  1024,
		Caption:   "zozozo123",
	})
	require.ErrorIs(t, err, ErrWrongMediaType)
}

func TestSubmitRejectsOversizedVideo(t *testing.T) {
	quest := photoQuest("q1", "zozozo123", models.DeadlineEveryday)
	quest.ValidationType = models.ValidationVideo
	svc, _ := newSubmissionFixture(quest)

	_, _, err := svc.Submit(context.Background(), MediaInput{
		UserID:    42,
		MediaType: models.MediaVideo,
		FileSize:  21 * 1024 * 1024,
		Caption:   "zozozo123",
	})
	require.ErrorIs(t, err, ErrVideoTooLarge)
}

func TestSubmitDuplicatePolicy(t *testing.T) {
	submit := func(svc *SubmissionService) error {
		_, _, err := svc.Submit(context.Background(), MediaInput{
			UserID:    42,
			MediaType: models.MediaPhoto,
			FileID:    "file-2",
			Caption:   "zozozo123",
		})
		return err
	}

	t.Run("pending blocks resubmission", func(t *testing.T) {
		svc, repo := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))
		repo.subs = append(repo.subs, models.Submission{
			ID: "sub-0", UserID: 42, QuestID: "q1", Status: models.StatusPending,
		})
		require.ErrorIs(t, submit(svc), ErrPendingReview)
	})

	t.Run("approved blocks forever", func(t *testing.T) {
		svc, repo := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))
		repo.subs = append(repo.subs, models.Submission{
			ID: "sub-0", UserID: 42, QuestID: "q1", Status: models.StatusApproved,
		})
		require.ErrorIs(t, submit(svc), ErrAlreadyApproved)
	})

	t.Run("rejected allows retry", func(t *testing.T) {
		svc, repo := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))
		repo.subs = append(repo.subs, models.Submission{
			ID: "sub-0", UserID: 42, QuestID: "q1", Status: models.StatusRejected,
		})
		require.NoError(t, submit(svc))
		require.Len(t, repo.subs, 2)
	})

	t.Run("other users are unaffected", func(t *testing.T) {
		svc, repo := newSubmissionFixture(photoQuest("q1", "zozozo123", models.DeadlineEveryday))
		repo.subs = append(repo.subs, models.Submission{
			ID: "sub-0", UserID: 7, QuestID: "q1", Status: models.StatusPending,
		})
		require.NoError(t, submit(svc))
	})
}

func TestUserStats(t *testing.T) {
	svc, repo := newSubmissionFixture()
	repo.subs = []models.Submission{
		{ID: "s1", UserID: 42, QuestID: "q1", Status: models.StatusApproved},
		{ID: "s2", UserID: 42, QuestID: "q2", Status: models.StatusRejected},
		{ID: "s3", UserID: 42, QuestID: "q3", Status: models.StatusPending},
		{ID: "s4", UserID: 7, QuestID: "q1", Status: models.StatusApproved},
	}

	attempts, completed, err := svc.UserStats(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, 1, completed)
}

func TestExtractKeyword(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    string
		ok      bool
	}{
		{"plain", "zozozo123 done!", "zozozo123", true},
		{"mixed case", "Finished it! ZoZoZo123", "zozozo123", true},
		{"dash separator", "here you go zozozo-042", "zozozo042", true},
		{"spaced zo", "zo zo zo 777 complete", "zozozo777", true},
		{"embedded", "my entry for zozozo001, hope it counts", "zozozo001", true},
		{"no digits", "zozozo is the vibe", "", false},
		{"missing keyword", "look at my photo", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractKeyword(tc.caption)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractKeywordPrefixDoesNotOvermatch(t *testing.T) {
	// "zozozo12" is a valid shorter keyword on its own; the match is
	// greedy over digits so it never truncates a longer one.
	got, ok := ExtractKeyword("zozozo1234")
	require.True(t, ok)
	require.Equal(t, "zozozo1234", got)
}

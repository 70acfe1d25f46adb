package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zohouse/questbot/internal/models"
)

var (
	ErrNoKeyword       = errors.New("submission caption has no quest keyword")
	ErrNoMatchingQuest = errors.New("no active quest matches the keyword")
	ErrQuestClosed     = errors.New("quest deadline has passed")
	ErrWrongMediaType  = errors.New("media type does not match the quest")
	ErrAlreadyApproved = errors.New("submission already approved for this quest")
	ErrPendingReview   = errors.New("a submission for this quest is awaiting review")
	ErrVideoTooLarge   = errors.New("video exceeds the size limit")
)

// Keyword patterns tried in order; separators inside the keyword are
// tolerated and stripped before lookup.
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`zozozo\d+`),
	regexp.MustCompile(`zozozo[\s_-]?\d+`),
	regexp.MustCompile(`zo[\s_-]?zo[\s_-]?zo[\s_-]?\d+`),
}

type submissionStore interface {
	Create(ctx context.Context, sub *models.Submission) (*models.Submission, error)
	FindForUserQuest(ctx context.Context, userID int64, questID string) ([]models.Submission, error)
	SetAdminMessageID(ctx context.Context, id string, messageID int) error
	CountApprovedForQuest(ctx context.Context, questID string) (int, error)
	CountsForUser(ctx context.Context, userID int64) (attempts, completed int, err error)
}

type questCatalog interface {
	FindByKeyword(ctx context.Context, keyword string) (*models.Quest, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Quest, error)
}

type SubmissionService struct {
	submissions submissionStore
	quests      questCatalog
	maxVideo    int64
	now         func() time.Time
}

func NewSubmissionService(submissions submissionStore, quests questCatalog, maxVideoBytes int64) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		quests:      quests,
		maxVideo:    maxVideoBytes,
		now:         time.Now,
	}
}

// MediaInput is one photo or video message forwarded from the dispatcher.
type MediaInput struct {
	UserID    int64
	MediaType models.MediaType
	FileID    string
	FileSize  int64
	Caption   string
}

// Submit matches the caption keyword to a quest, enforces the duplicate
// policy, and stores a pending submission. The matched quest is returned for
// the admin notification.
func (s *SubmissionService) Submit(ctx context.Context, in MediaInput) (*models.Submission, *models.Quest, error) {
	quest, err := s.matchQuest(ctx, in.Caption)
	if err != nil {
		return nil, nil, err
	}
	if quest.Expired(s.now().UTC().Format("2006-01-02")) {
		return nil, quest, ErrQuestClosed
	}

	if err := s.checkMedia(quest, in); err != nil {
		return nil, quest, err
	}

	prior, err := s.submissions.FindForUserQuest(ctx, in.UserID, quest.ID)
	if err != nil {
		return nil, quest, fmt.Errorf("check prior submissions: %w", err)
	}
	for _, p := range prior {
		switch p.Status {
		case models.StatusApproved:
			return nil, quest, ErrAlreadyApproved
		case models.StatusPending:
			return nil, quest, ErrPendingReview
		}
	}

	sub := &models.Submission{
		UserID:      in.UserID,
		QuestID:     quest.ID,
		MediaType:   in.MediaType,
		MediaFileID: in.FileID,
		Caption:     in.Caption,
		Status:      models.StatusPending,
	}
	created, err := s.submissions.Create(ctx, sub)
	if err != nil {
		return nil, quest, fmt.Errorf("store submission: %w", err)
	}
	return created, quest, nil
}

// matchQuest resolves the caption to a quest: the derived zozozo form first,
// then a token scan against active quest keywords so custom keywords match
// too.
func (s *SubmissionService) matchQuest(ctx context.Context, caption string) (*models.Quest, error) {
	hadKeyword := false
	if keyword, ok := ExtractKeyword(caption); ok {
		hadKeyword = true
		quest, err := s.quests.FindByKeyword(ctx, keyword)
		if err != nil {
			return nil, fmt.Errorf("find quest: %w", err)
		}
		if quest != nil {
			return quest, nil
		}
	}

	open, err := s.quests.ListActive(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	if quest := MatchKeywordToken(open, caption); quest != nil {
		return quest, nil
	}
	if hadKeyword {
		return nil, ErrNoMatchingQuest
	}
	return nil, ErrNoKeyword
}

func (s *SubmissionService) SetAdminMessageID(ctx context.Context, submissionID string, messageID int) error {
	return s.submissions.SetAdminMessageID(ctx, submissionID, messageID)
}

// ApprovedCount reports how many submissions a quest has had approved.
func (s *SubmissionService) ApprovedCount(ctx context.Context, questID string) (int, error) {
	return s.submissions.CountApprovedForQuest(ctx, questID)
}

// UserStats reports a user's total attempts and approved completions.
func (s *SubmissionService) UserStats(ctx context.Context, userID int64) (attempts, completed int, err error) {
	return s.submissions.CountsForUser(ctx, userID)
}

func (s *SubmissionService) checkMedia(quest *models.Quest, in MediaInput) error {
	switch quest.ValidationType {
	case models.ValidationPhoto:
		if in.MediaType != models.MediaPhoto {
			return ErrWrongMediaType
		}
	case models.ValidationVideo:
		if in.MediaType != models.MediaVideo {
			return ErrWrongMediaType
		}
	}
	if in.MediaType == models.MediaVideo && s.maxVideo > 0 && in.FileSize > s.maxVideo {
		return ErrVideoTooLarge
	}
	return nil
}

// ExtractKeyword pulls the quest keyword out of a caption, tolerating
// spaces, dashes, and underscores inside it.
func ExtractKeyword(caption string) (string, bool) {
	lower := strings.ToLower(caption)
	for _, pattern := range keywordPatterns {
		if match := pattern.FindString(lower); match != "" {
			cleaned := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(match)
			return cleaned, true
		}
	}
	return "", false
}

// MatchKeywordToken finds the quest whose keyword appears as a standalone
// word in the caption, case-insensitively.
func MatchKeywordToken(quests []models.Quest, caption string) *models.Quest {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(caption)) {
		tok = strings.Trim(tok, `.,!?:;'"()[]#`)
		if tok != "" {
			tokens[tok] = true
		}
	}
	for i := range quests {
		keyword := strings.ToLower(quests[i].Keyword)
		if keyword != "" && tokens[keyword] {
			return &quests[i]
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/repository"
)

var (
	ErrKeywordTaken   = errors.New("quest keyword already in use")
	ErrDeadlineFormat = errors.New("deadline must be YYYY-MM-DD")
	ErrDeadlineInPast = errors.New("deadline is in the past")
)

// PointValues are the preset award amounts offered during quest creation.
var PointValues = []int{111, 210, 300, 420, 690, 766}

// PartyNames are the communities a quest can belong to.
var PartyNames = []string{"Zo Trip", "FIFA", "Poker", "Founders Connect"}

// CategoryTypes maps each party to its quest categories.
var CategoryTypes = map[string][]string{
	"Zo Trip":          {"Zo 🌌✨ Zo 🌠 | The Initiate Path", "Daily Check-in ✅", "Event-Specific 🎭"},
	"FIFA":             {"FIFA Champion 🏆", "FIFA Achievements 🎮", "First Timer 🆕"},
	"Poker":            {"Poker Pro 🃏", "Poker Achievements 🎲", "First Timer 🆕"},
	"Founders Connect": {"Networking 🤝", "Special Events 🎉", "Activities 🏄‍♂️"},
}

const (
	QuestsPerPage = 3
	ItemsPerPage  = 4
)

type QuestService struct {
	quests *repository.QuestRepository
}

func NewQuestService(quests *repository.QuestRepository) *QuestService {
	return &QuestService{quests: quests}
}

// Create derives the keyword from the title and stores the quest. Keyword
// collisions surface as ErrKeywordTaken so the admin can retitle.
func (s *QuestService) Create(ctx context.Context, quest *models.Quest) (*models.Quest, error) {
	quest.Keyword = DeriveKeyword(quest.Title)
	quest.Active = true
	existing, err := s.quests.FindByKeyword(ctx, quest.Keyword)
	if err != nil {
		return nil, fmt.Errorf("check keyword: %w", err)
	}
	if existing != nil {
		return nil, ErrKeywordTaken
	}
	created, err := s.quests.Create(ctx, quest)
	if err != nil {
		return nil, fmt.Errorf("create quest: %w", err)
	}
	return created, nil
}

// FindByKeyword returns the active quest behind a keyword, or nil.
func (s *QuestService) FindByKeyword(ctx context.Context, keyword string) (*models.Quest, error) {
	return s.quests.FindByKeyword(ctx, keyword)
}

func (s *QuestService) ListOpen(ctx context.Context, now time.Time) ([]models.Quest, error) {
	return s.quests.ListActive(ctx, now)
}

// Page returns one page of quests plus whether more pages follow.
func (s *QuestService) Page(ctx context.Context, now time.Time, page int) ([]models.Quest, bool, error) {
	open, err := s.quests.ListActive(ctx, now)
	if err != nil {
		return nil, false, err
	}
	items, hasMore := Paginate(open, page, QuestsPerPage)
	return items, hasMore, nil
}

func (s *QuestService) Deactivate(ctx context.Context, id string) error {
	return s.quests.SetActive(ctx, id, false)
}

// NormalizeDeadline validates a wizard-entered deadline: the everyday
// marker passes through, a dated deadline must parse as YYYY-MM-DD and fall
// on or after today.
func NormalizeDeadline(text string, today time.Time) (string, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == models.DeadlineEveryday {
		return models.DeadlineEveryday, nil
	}
	parsed, err := time.Parse("2006-01-02", text)
	if err != nil {
		return "", ErrDeadlineFormat
	}
	if parsed.Format("2006-01-02") < today.Format("2006-01-02") {
		return "", ErrDeadlineInPast
	}
	return parsed.Format("2006-01-02"), nil
}

// DeriveKeyword maps a quest title to its stable submission keyword:
// "zozozo" followed by three digits computed from the lowercased,
// underscore-joined title.
func DeriveKeyword(title string) string {
	base := strings.ReplaceAll(strings.ToLower(title), " ", "_")
	hash := 0
	for _, r := range base {
		hash = (hash*31 + int(r)) % 1000
	}
	return fmt.Sprintf("zozozo%03d", hash)
}

// Paginate slices a page out of items (page is zero-based) and reports
// whether later pages exist.
func Paginate[T any](items []T, page, perPage int) ([]T, bool) {
	if page < 0 {
		page = 0
	}
	start := page * perPage
	if start >= len(items) {
		return nil, false
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], end < len(items)
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"github.com/zohouse/questbot/internal/models"
)

type QuestRepository struct {
	client *supabase.Client
}

func NewQuestRepository(client *supabase.Client) *QuestRepository {
	return &QuestRepository{client: client}
}

func (r *QuestRepository) Create(ctx context.Context, quest *models.Quest) (*models.Quest, error) {
	// id and created_at come from column defaults.
	row := map[string]interface{}{
		"title":           quest.Title,
		"description":     quest.Description,
		"validation_type": quest.ValidationType,
		"keyword":         quest.Keyword,
		"points":          quest.Points,
		"deadline":        quest.Deadline,
		"party_name":      quest.PartyName,
		"category_type":   quest.CategoryType,
		"active":          quest.Active,
		"created_by":      quest.CreatedBy,
	}
	if quest.ImageURL != "" {
		row["image_url"] = quest.ImageURL
	}
	var results []models.Quest
	if err := r.client.DB.From("quests").Insert(row).Execute(&results); err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("insert quest: empty response")
	}
	return &results[0], nil
}

func (r *QuestRepository) FindByID(ctx context.Context, id string) (*models.Quest, error) {
	var results []models.Quest
	err := r.client.DB.From("quests").Select("*").Eq("id", id).Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select quest: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (r *QuestRepository) FindByKeyword(ctx context.Context, keyword string) (*models.Quest, error) {
	var results []models.Quest
	err := r.client.DB.From("quests").Select("*").
		Eq("keyword", strings.ToLower(keyword)).
		Eq("active", "true").
		Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select quest by keyword: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// ListActive returns active quests that have not passed their deadline,
// dated quests first by soonest deadline, everyday quests after.
func (r *QuestRepository) ListActive(ctx context.Context, now time.Time) ([]models.Quest, error) {
	var results []models.Quest
	err := r.client.DB.From("quests").Select("*").Eq("active", "true").Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select active quests: %w", err)
	}
	return OrderQuests(results, now), nil
}

func (r *QuestRepository) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	err := r.client.DB.From("quests").Update(patch).Eq("id", id).Execute(nil)
	if err != nil {
		return fmt.Errorf("update quest: %w", err)
	}
	return nil
}

func (r *QuestRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.Update(ctx, id, map[string]interface{}{"active": active})
}

// OrderQuests filters out expired quests and sorts the rest: dated quests by
// deadline ascending, then everyday quests in stored order.
func OrderQuests(quests []models.Quest, now time.Time) []models.Quest {
	today := now.Format("2006-01-02")
	var dated, everyday []models.Quest
	for _, q := range quests {
		if q.Expired(today) {
			continue
		}
		if q.Deadline == models.DeadlineEveryday || q.Deadline == "" {
			everyday = append(everyday, q)
		} else {
			dated = append(dated, q)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Deadline < dated[j].Deadline
	})
	return append(dated, everyday...)
}

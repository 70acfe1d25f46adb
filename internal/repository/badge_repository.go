package repository

import (
	"context"
	"fmt"

	supabase "github.com/nedpals/supabase-go"

	"github.com/zohouse/questbot/internal/models"
)

type BadgeRepository struct {
	client *supabase.Client
}

func NewBadgeRepository(client *supabase.Client) *BadgeRepository {
	return &BadgeRepository{client: client}
}

func (r *BadgeRepository) Save(ctx context.Context, badge *models.BadgeImage) error {
	var existing []models.BadgeImage
	err := r.client.DB.From("badge_images").Select("quest_id").
		Eq("quest_id", badge.QuestID).
		Execute(&existing)
	if err != nil {
		return fmt.Errorf("select badge: %w", err)
	}
	if len(existing) > 0 {
		patch := map[string]interface{}{"image_data": badge.ImageData}
		err = r.client.DB.From("badge_images").Update(patch).
			Eq("quest_id", badge.QuestID).
			Execute(nil)
		if err != nil {
			return fmt.Errorf("update badge: %w", err)
		}
		return nil
	}
	row := map[string]interface{}{
		"quest_id":   badge.QuestID,
		"image_data": badge.ImageData,
	}
	if err := r.client.DB.From("badge_images").Insert(row).Execute(nil); err != nil {
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

func (r *BadgeRepository) Find(ctx context.Context, questID string) (*models.BadgeImage, error) {
	var results []models.BadgeImage
	err := r.client.DB.From("badge_images").Select("*").
		Eq("quest_id", questID).
		Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select badge: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

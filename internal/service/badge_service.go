package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/zohouse/questbot/internal/badge"
	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/repository"
)

// IconSource resolves a preset icon category to its decoded image.
type IconSource interface {
	Icon(category string) (image.Image, error)
}

// IconGenerator is satisfied by the external text-to-image client, used when
// no preset icon can be loaded. A nil or disabled generator means badges
// render without an icon.
type IconGenerator interface {
	Enabled() bool
	GenerateIcon(ctx context.Context, title, description string) (iconPNG []byte, err error)
}

// BadgeUploader stores the rendered PNG and returns its public URL.
type BadgeUploader interface {
	UploadBadge(ctx context.Context, questID string, data []byte) (string, error)
}

type BadgeService struct {
	renderer  *badge.Renderer
	badges    *repository.BadgeRepository
	quests    *repository.QuestRepository
	icons     IconSource
	generator IconGenerator
	uploader  BadgeUploader
	log       *slog.Logger
}

func NewBadgeService(renderer *badge.Renderer, badges *repository.BadgeRepository, quests *repository.QuestRepository, icons IconSource, generator IconGenerator, uploader BadgeUploader, log *slog.Logger) *BadgeService {
	return &BadgeService{
		renderer:  renderer,
		badges:    badges,
		quests:    quests,
		icons:     icons,
		generator: generator,
		uploader:  uploader,
		log:       log,
	}
}

// Generate renders the quest badge, persists it base64-encoded, and uploads
// the PNG when storage is configured. The icon comes from the preset
// provider when a category was picked, falling back to the external
// generator; icon failures degrade to an icon-less badge rather than
// failing the quest.
func (s *BadgeService) Generate(ctx context.Context, quest *models.Quest, iconCategory string) ([]byte, error) {
	icon := s.loadIcon(ctx, quest, iconCategory)

	data, err := s.renderer.Render(quest, icon)
	if err != nil {
		return nil, fmt.Errorf("render badge: %w", err)
	}

	record := &models.BadgeImage{
		QuestID:   quest.ID,
		ImageData: base64.StdEncoding.EncodeToString(data),
	}
	if err := s.badges.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("store badge: %w", err)
	}

	if s.uploader != nil {
		url, err := s.uploader.UploadBadge(ctx, quest.ID, data)
		if err != nil {
			s.log.Warn("badge upload failed", "quest_id", quest.ID, "error", err)
		} else if err := s.quests.Update(ctx, quest.ID, map[string]interface{}{"image_url": url}); err != nil {
			s.log.Warn("store badge url failed", "quest_id", quest.ID, "error", err)
		}
	}

	return data, nil
}

func (s *BadgeService) loadIcon(ctx context.Context, quest *models.Quest, iconCategory string) image.Image {
	if s.icons != nil {
		icon, err := s.icons.Icon(iconCategory)
		if err == nil {
			return icon
		}
		s.log.Warn("preset icon load failed", "quest_id", quest.ID, "category", iconCategory, "error", err)
	}

	if s.generator != nil && s.generator.Enabled() {
		iconPNG, err := s.generator.GenerateIcon(ctx, quest.Title, quest.Description)
		if err != nil {
			s.log.Warn("icon generation failed, rendering without icon", "quest_id", quest.ID, "error", err)
			return nil
		}
		decoded, _, err := image.Decode(bytes.NewReader(iconPNG))
		if err != nil {
			s.log.Warn("icon decode failed", "quest_id", quest.ID, "error", err)
			return nil
		}
		return decoded
	}
	return nil
}

// Cached returns the stored badge PNG for a quest, or nil when absent.
func (s *BadgeService) Cached(ctx context.Context, questID string) ([]byte, error) {
	record, err := s.badges.Find(ctx, questID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(record.ImageData)
	if err != nil {
		return nil, fmt.Errorf("decode stored badge: %w", err)
	}
	return data, nil
}

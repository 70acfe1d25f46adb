package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/badge"
	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/service"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	data := cb.Data

	ack := func(text string) {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
			b.log.Error("callback ack", "err", err)
		}
	}

	switch {
	case strings.HasPrefix(data, "quests:"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "quests:"))
		ack("")
		b.handleViewQuests(ctx, cb.Message, page, cb.Message.MessageID)

	case strings.HasPrefix(data, "vt:"):
		session := b.state.Get(userID)
		if session.State != StateAwaitingValidationType {
			ack("This step has expired")
			return
		}
		session.Draft.ValidationType = models.ValidationType(strings.TrimPrefix(data, "vt:"))
		session.State = StateAwaitingParty
		b.state.Set(userID, session)
		ack("Got it")
		b.sendPartyKeyboard(chatID, 0)

	case strings.HasPrefix(data, "pparty:"):
		session := b.state.Get(userID)
		if session.State != StateAwaitingParty {
			ack("This step has expired")
			return
		}
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "pparty:"))
		session.PartyPage = page
		b.state.Set(userID, session)
		ack("")
		b.sendPartyKeyboard(chatID, page)

	case strings.HasPrefix(data, "party:"):
		session := b.state.Get(userID)
		if session.State != StateAwaitingParty {
			ack("This step has expired")
			return
		}
		idx, _ := strconv.Atoi(strings.TrimPrefix(data, "party:"))
		if idx < 0 || idx >= len(service.PartyNames) {
			ack("Unknown party")
			return
		}
		session.Draft.PartyName = service.PartyNames[idx]
		session.State = StateAwaitingCategory
		b.state.Set(userID, session)
		ack(session.Draft.PartyName)
		b.sendCategoryKeyboard(chatID, session.Draft.PartyName)

	case strings.HasPrefix(data, "cat:"):
		session := b.state.Get(userID)
		if session.State != StateAwaitingCategory {
			ack("This step has expired")
			return
		}
		idx, _ := strconv.Atoi(strings.TrimPrefix(data, "cat:"))
		categories := service.CategoryTypes[session.Draft.PartyName]
		if idx < 0 || idx >= len(categories) {
			ack("Unknown category")
			return
		}
		session.Draft.CategoryType = categories[idx]
		session.State = StateAwaitingPoints
		b.state.Set(userID, session)
		ack("")
		b.sendPointsKeyboard(chatID)

	case strings.HasPrefix(data, "pts:"):
		session := b.state.Get(userID)
		if session.State != StateAwaitingPoints {
			ack("This step has expired")
			return
		}
		idx, _ := strconv.Atoi(strings.TrimPrefix(data, "pts:"))
		if idx < 0 || idx >= len(service.PointValues) {
			ack("Unknown amount")
			return
		}
		session.Draft.Points = service.PointValues[idx]
		session.State = StateAwaitingDeadline
		b.state.Set(userID, session)
		ack("")
		b.sendDeadlineKeyboard(chatID)

	case data == "dl:everyday":
		session := b.state.Get(userID)
		if session.State != StateAwaitingDeadline {
			ack("This step has expired")
			return
		}
		session.Draft.Deadline = models.DeadlineEveryday
		session.State = StateAwaitingImageChoice
		b.state.Set(userID, session)
		ack("")
		b.sendImageChoiceKeyboard(chatID)

	case data == "img:upload":
		session := b.state.Get(userID)
		if session.State != StateAwaitingImageChoice {
			ack("This step has expired")
			return
		}
		session.State = StateAwaitingImageUpload
		b.state.Set(userID, session)
		ack("")
		b.sendText(chatID, "Send a photo to use as the quest image. Clear and relevant works best.")

	case data == "img:generate":
		session := b.state.Get(userID)
		if session.State != StateAwaitingImageChoice {
			ack("This step has expired")
			return
		}
		session.State = StateAwaitingIconCategory
		b.state.Set(userID, session)
		ack("")
		b.sendIconCategoryKeyboard(chatID)

	case strings.HasPrefix(data, "icon:"):
		session := b.state.Get(userID)
		if session.State != StateAwaitingIconCategory {
			ack("This step has expired")
			return
		}
		idx, _ := strconv.Atoi(strings.TrimPrefix(data, "icon:"))
		if idx < 0 || idx >= len(badge.IconCategories) {
			ack("Unknown icon")
			return
		}
		session.IconCategory = badge.IconCategories[idx]
		session.State = StateAwaitingConfirm
		b.state.Set(userID, session)
		ack(session.IconCategory)
		b.sendQuestSummary(chatID, session)

	case data == "quest_confirm":
		session := b.state.Get(userID)
		if session.State != StateAwaitingConfirm {
			ack("Nothing to publish")
			return
		}
		ack("Publishing…")
		b.publishQuest(ctx, chatID, userID, session)

	case data == "quest_cancel":
		b.state.Reset(userID)
		ack("Discarded")
		b.sendText(chatID, "Quest discarded.")

	case strings.HasPrefix(data, "approve:"):
		b.handleReviewCallback(ctx, cb, strings.TrimPrefix(data, "approve:"), true)

	case strings.HasPrefix(data, "reject:"):
		b.handleReviewCallback(ctx, cb, strings.TrimPrefix(data, "reject:"), false)

	default:
		ack("Unknown action")
	}
}

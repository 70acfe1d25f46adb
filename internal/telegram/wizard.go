package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/badge"
	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/service"
)

func (b *Bot) handleNewQuest(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		b.reply(msg, "Only quest admins can create quests.")
		return
	}
	if msg.From == nil {
		return
	}
	draft := models.Quest{CreatedBy: msg.From.ID}
	b.state.Set(msg.From.ID, &Session{State: StateAwaitingTitle, Draft: draft})
	b.reply(msg, "Let's create a quest! 📝\n\nFirst, send the quest title.")
}

// handleWizardText consumes free-text replies for whichever step the session
// is on.
func (b *Bot) handleWizardText(ctx context.Context, msg *tgbotapi.Message, session *Session) {
	text := strings.TrimSpace(msg.Text)
	userID := msg.From.ID

	switch session.State {
	case StateAwaitingWallet:
		b.handleWalletInput(ctx, msg)

	case StateAwaitingTitle:
		if text == "" {
			b.reply(msg, "The title can't be empty. Send the quest title.")
			return
		}
		session.Draft.Title = text
		session.State = StateAwaitingDescription
		b.state.Set(userID, session)
		b.reply(msg, fmt.Sprintf("Title: %s\n\nNow send the quest description.", text))

	case StateAwaitingDescription:
		if text == "" {
			b.reply(msg, "The description can't be empty. Send the quest description.")
			return
		}
		session.Draft.Description = text
		session.State = StateAwaitingValidationType
		b.state.Set(userID, session)
		b.sendValidationTypeKeyboard(msg.Chat.ID)

	case StateAwaitingDeadline:
		deadline, err := service.NormalizeDeadline(text, time.Now().UTC())
		if err != nil {
			if errors.Is(err, service.ErrDeadlineInPast) {
				b.reply(msg, "That date has already passed. Send a future date (YYYY-MM-DD) or tap Everyday.")
				return
			}
			b.reply(msg, "Use YYYY-MM-DD for the deadline, or tap Everyday.")
			return
		}
		session.Draft.Deadline = deadline
		session.State = StateAwaitingImageChoice
		b.state.Set(userID, session)
		b.sendImageChoiceKeyboard(msg.Chat.ID)

	case StateAwaitingImageUpload:
		b.reply(msg, "Please send a photo for the quest, or /cancel to start over.")

	default:
		b.reply(msg, "Use the buttons above, or /cancel to start over.")
	}
}

// handleWizardPhoto consumes the quest image an admin uploads mid-wizard:
// the photo is fetched from Telegram, pushed to the storage bucket, and its
// public URL attached to the draft.
func (b *Bot) handleWizardPhoto(ctx context.Context, msg *tgbotapi.Message, session *Session) {
	userID := msg.From.ID
	photo := msg.Photo[len(msg.Photo)-1]

	if b.uploader != nil {
		data, contentType, err := b.downloadFile(ctx, photo.FileID)
		if err != nil {
			b.log.Error("download quest photo", "err", err)
			b.reply(msg, "Couldn't fetch that photo, please send it again.")
			return
		}
		url, err := b.uploader.Upload(ctx, data, contentType)
		if err != nil {
			b.log.Error("upload quest photo", "err", err)
			b.reply(msg, "Couldn't store that photo, please send it again.")
			return
		}
		session.Draft.ImageURL = url
	} else {
		b.log.Warn("image storage not configured, keeping telegram file only")
	}

	session.PhotoFileID = photo.FileID
	session.State = StateAwaitingConfirm
	b.state.Set(userID, session)
	b.sendQuestSummary(msg.Chat.ID, session)
}

// downloadFile pulls a file's bytes from Telegram's file API.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	if file.FilePath == "" {
		return nil, "", fmt.Errorf("file path empty")
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", b.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("telegram file status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file body: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func (b *Bot) sendValidationTypeKeyboard(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📷 Photo", "vt:"+string(models.ValidationPhoto)),
			tgbotapi.NewInlineKeyboardButtonData("🎥 Video", "vt:"+string(models.ValidationVideo)),
		),
	)
	out := tgbotapi.NewMessage(chatID, "How should participants prove completion?")
	out.ReplyMarkup = keyboard
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send validation keyboard", "err", err)
	}
}

func (b *Bot) sendPartyKeyboard(chatID int64, page int) {
	parties, hasMore := service.Paginate(service.PartyNames, page, service.ItemsPerPage)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, name := range parties {
		idx := page*service.ItemsPerPage + i
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name, fmt.Sprintf("party:%d", idx)),
		))
	}
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("pparty:%d", page-1)))
	}
	if hasMore {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("pparty:%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	out := tgbotapi.NewMessage(chatID, "Which party does this quest belong to?")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send party keyboard", "err", err)
	}
}

func (b *Bot) sendCategoryKeyboard(chatID int64, party string) {
	categories := service.CategoryTypes[party]
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c, fmt.Sprintf("cat:%d", i)),
		))
	}
	out := tgbotapi.NewMessage(chatID, fmt.Sprintf("Pick a category for %s:", party))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send category keyboard", "err", err)
	}
}

func (b *Bot) sendPointsKeyboard(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, pts := range service.PointValues {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(pts), fmt.Sprintf("pts:%d", i)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	out := tgbotapi.NewMessage(chatID, "How many points is this quest worth?")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send points keyboard", "err", err)
	}
}

func (b *Bot) sendDeadlineKeyboard(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("♾️ Everyday", "dl:everyday"),
		),
	)
	out := tgbotapi.NewMessage(chatID, "Send the deadline as YYYY-MM-DD, or make it an everyday quest.")
	out.ReplyMarkup = keyboard
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send deadline keyboard", "err", err)
	}
}

func (b *Bot) sendImageChoiceKeyboard(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🖼️ Upload Image", "img:upload"),
			tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", "img:generate"),
		),
	)
	out := tgbotapi.NewMessage(chatID, "How would you like to add an image to this quest?")
	out.ReplyMarkup = keyboard
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send image choice keyboard", "err", err)
	}
}

func (b *Bot) sendIconCategoryKeyboard(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, name := range badge.IconCategories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name, fmt.Sprintf("icon:%d", i)),
		))
	}
	out := tgbotapi.NewMessage(chatID, "Choose a culture for your quest:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send icon keyboard", "err", err)
	}
}

func (b *Bot) sendQuestSummary(chatID int64, session *Session) {
	d := session.Draft
	text := fmt.Sprintf(
		"Ready to publish? 🚀\n\nTitle: %s\nDescription: %s\nProof: %s\nParty: %s\nCategory: %s\nPoints: %d\nDeadline: %s\nKeyword: %s",
		d.Title, d.Description, d.ValidationType, d.PartyName, d.CategoryType, d.Points,
		deadlineText(d.Deadline), service.DeriveKeyword(d.Title),
	)
	if session.IconCategory != "" {
		text += fmt.Sprintf("\nIcon: %s", session.IconCategory)
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Publish", "quest_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Discard", "quest_cancel"),
		),
	)

	// An uploaded photo previews as the quest image.
	if session.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(session.PhotoFileID))
		photo.Caption = text
		photo.ReplyMarkup = keyboard
		if _, err := b.api.Send(photo); err != nil {
			b.log.Error("send quest summary photo", "err", err)
		}
		return
	}

	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = keyboard
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send quest summary", "err", err)
	}
}

func (b *Bot) publishQuest(ctx context.Context, chatID, userID int64, session *Session) {
	quest, err := b.quests.Create(ctx, &session.Draft)
	if err != nil {
		if errors.Is(err, service.ErrKeywordTaken) {
			b.sendText(chatID, "A quest with this title's keyword already exists. Pick a different title and try /newquest again.")
			b.state.Reset(userID)
			return
		}
		b.log.Error("create quest", "err", err)
		b.sendText(chatID, "Couldn't create the quest, please try again.")
		return
	}
	iconCategory := session.IconCategory
	photoFileID := session.PhotoFileID
	b.state.Reset(userID)
	b.sendText(chatID, fmt.Sprintf("Quest published! 🎉\nKeyword: %s", quest.Keyword))

	// An admin-uploaded photo is announced directly; otherwise render the
	// badge with the chosen preset icon.
	if photoFileID != "" {
		b.announceQuestPhoto(quest, photoFileID)
		return
	}
	badgePNG, err := b.badges.Generate(ctx, quest, iconCategory)
	if err != nil {
		b.log.Error("generate badge", "quest_id", quest.ID, "err", err)
		b.announceQuest(quest, nil)
		return
	}
	b.announceQuest(quest, badgePNG)
}

// announceQuest posts the new quest to the public group, with the badge
// image when rendering succeeded.
func (b *Bot) announceQuest(quest *models.Quest, badgePNG []byte) {
	caption := announceCaption(quest)
	if len(badgePNG) == 0 {
		b.sendText(b.cfg.PublicGroupID, caption)
		return
	}
	photo := tgbotapi.NewPhoto(b.cfg.PublicGroupID, tgbotapi.FileBytes{
		Name:  "badge.png",
		Bytes: badgePNG,
	})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("announce quest", "err", err)
	}
}

func (b *Bot) announceQuestPhoto(quest *models.Quest, fileID string) {
	photo := tgbotapi.NewPhoto(b.cfg.PublicGroupID, tgbotapi.FileID(fileID))
	photo.Caption = announceCaption(quest)
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("announce quest", "err", err)
	}
}

func announceCaption(quest *models.Quest) string {
	return fmt.Sprintf(
		"🆕 New Quest: %s\n\n%s\n\nReward: %d pts\nProof: %s\nDeadline: %s\n\nSubmit your %s with caption %s",
		quest.Title, quest.Description, quest.Points, quest.ValidationLabel(),
		deadlineText(quest.Deadline), strings.ToLower(quest.ValidationLabel()), quest.Keyword,
	)
}

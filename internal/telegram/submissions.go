package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/service"
)

// handleSubmission turns a captioned photo or video into a pending
// submission and mirrors it into the admin group for review.
func (b *Bot) handleSubmission(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	// Ignore media posted in the admin group; those are review mirrors.
	if msg.Chat.ID == b.cfg.AdminGroupID {
		return
	}

	if msg.Caption == "" {
		b.reply(msg, "⚠️ Please include the quest keyword (e.g., zozozo123) in your submission caption.")
		return
	}

	user, _, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		b.log.Error("ensure user submission", "err", err)
		return
	}

	in := service.MediaInput{
		UserID:  msg.From.ID,
		Caption: msg.Caption,
	}
	switch {
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		in.MediaType = models.MediaPhoto
		in.FileID = photo.FileID
		in.FileSize = int64(photo.FileSize)
	case msg.Video != nil:
		in.MediaType = models.MediaVideo
		in.FileID = msg.Video.FileID
		in.FileSize = int64(msg.Video.FileSize)
	default:
		return
	}

	sub, quest, err := b.submissions.Submit(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoKeyword), errors.Is(err, service.ErrNoMatchingQuest):
			b.reply(msg, "⚠️ No matching quest found. Please include the correct quest keyword (e.g., zozozo123) in your submission caption.")
		case errors.Is(err, service.ErrQuestClosed):
			b.reply(msg, fmt.Sprintf("This quest's deadline (%s) has passed. Check /viewquests for active quests.", deadlineText(quest.Deadline)))
		case errors.Is(err, service.ErrWrongMediaType):
			b.reply(msg, fmt.Sprintf("This quest needs a %s submission. Try again with the right media type.", quest.ValidationLabel()))
		case errors.Is(err, service.ErrVideoTooLarge):
			b.reply(msg, "That video is too large. Please keep submissions under 20MB.")
		case errors.Is(err, service.ErrAlreadyApproved):
			b.reply(msg, fmt.Sprintf("You've already completed %q. One reward per quest!", quest.Title))
		case errors.Is(err, service.ErrPendingReview):
			b.reply(msg, "Your earlier submission for this quest is still being reviewed. Hang tight!")
		default:
			b.log.Error("store submission", "err", err)
			b.reply(msg, "Couldn't record your submission, please try again.")
		}
		return
	}

	b.reply(msg, fmt.Sprintf("Submission received for %q! ✅ An admin will review it shortly.", quest.Title))
	b.mirrorToAdmins(ctx, user, sub, quest)
}

func (b *Bot) mirrorToAdmins(ctx context.Context, user *models.User, sub *models.Submission, quest *models.Quest) {
	caption := fmt.Sprintf(
		"📬 New submission\n\nQuest: %s (%d pts)\nFrom: %s (ID %d)\nWallet: %s",
		quest.Title, quest.Points, user.DisplayName(), user.ID, walletText(user.WalletAddress),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "approve:"+sub.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "reject:"+sub.ID),
		),
	)

	var sent tgbotapi.Message
	var err error
	if sub.MediaType == models.MediaVideo {
		video := tgbotapi.NewVideo(b.cfg.AdminGroupID, tgbotapi.FileID(sub.MediaFileID))
		video.Caption = caption
		video.ReplyMarkup = keyboard
		sent, err = b.api.Send(video)
	} else {
		photo := tgbotapi.NewPhoto(b.cfg.AdminGroupID, tgbotapi.FileID(sub.MediaFileID))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		sent, err = b.api.Send(photo)
	}
	if err != nil {
		b.log.Error("mirror submission", "submission_id", sub.ID, "err", err)
		return
	}
	if err := b.submissions.SetAdminMessageID(ctx, sub.ID, sent.MessageID); err != nil {
		b.log.Error("store admin message id", "submission_id", sub.ID, "err", err)
	}
}

func (b *Bot) handleReviewCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, submissionID string, approve bool) {
	ack := func(text string) {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
			b.log.Error("callback ack", "err", err)
		}
	}

	if cb.Message.Chat.ID != b.cfg.AdminGroupID && (cb.From == nil || !b.cfg.IsAdmin(cb.From.ID)) {
		ack("Admins only")
		return
	}

	var reviewerID int64
	if cb.From != nil {
		reviewerID = cb.From.ID
	}

	var outcome *service.Outcome
	var err error
	if approve {
		outcome, err = b.reviews.Approve(ctx, submissionID, reviewerID)
	} else {
		outcome, err = b.reviews.Reject(ctx, submissionID, reviewerID)
	}
	if err != nil {
		if errors.Is(err, service.ErrAlreadyDecided) {
			ack("Already decided by another admin")
			return
		}
		b.log.Error("review submission", "submission_id", submissionID, "err", err)
		ack("Review failed, try again")
		return
	}

	if approve {
		ack("Approved ✅")
		b.sendText(outcome.Submission.UserID, fmt.Sprintf(
			"🎉 Your submission for %q was approved!\n+%d points — you now have %d total.",
			outcome.Quest.Title, outcome.Quest.Points, outcome.NewTotal,
		))
	} else {
		ack("Rejected ❌")
		b.sendText(outcome.Submission.UserID, fmt.Sprintf(
			"Your submission for %q was not approved. You can submit again with better proof!",
			outcome.Quest.Title,
		))
	}

	b.markReviewed(cb.Message, approve, reviewerID)
}

// markReviewed strips the buttons from the admin message and appends the
// verdict so the group sees who handled it.
func (b *Bot) markReviewed(msg *tgbotapi.Message, approved bool, reviewerID int64) {
	verdict := "✅ Approved"
	if !approved {
		verdict = "❌ Rejected"
	}
	caption := fmt.Sprintf("%s\n\n%s by admin %d", msg.Caption, verdict, reviewerID)
	edit := tgbotapi.NewEditMessageCaption(msg.Chat.ID, msg.MessageID, caption)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit review caption", "err", err)
	}
}

func walletText(wallet string) string {
	if wallet == "" {
		return "not set"
	}
	return wallet
}

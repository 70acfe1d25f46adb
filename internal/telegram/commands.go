package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/service"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "updatewallet":
		b.handleUpdateWallet(ctx, msg)
	case "viewquests":
		b.handleViewQuests(ctx, msg, 0, 0)
	case "leaderboard":
		b.handleLeaderboard(ctx, msg)
	case "newquest":
		b.handleNewQuest(ctx, msg)
	case "closequest":
		b.handleCloseQuest(ctx, msg)
	case "quest":
		b.handleQuestDetail(ctx, msg)
	case "tripper":
		b.handleTripper(ctx, msg)
	case "cancel":
		if msg.From != nil {
			b.state.Reset(msg.From.ID)
		}
		b.reply(msg, "Cancelled. Nothing in progress now.")
	default:
		b.reply(msg, "Unknown command. Try /viewquests, /leaderboard, or /start.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	user, created, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		b.log.Error("ensure user", "err", err)
		b.reply(msg, "Something went wrong, please try again.")
		return
	}
	if user == nil {
		return
	}

	if user.WalletAddress == "" {
		b.state.Set(msg.From.ID, &Session{State: StateAwaitingWallet})
		b.reply(msg, fmt.Sprintf(
			"Welcome, %s! 👋\n\nTo join the quests, share your EVM wallet address (starts with 0x).",
			user.DisplayName(),
		))
		return
	}
	if created {
		b.reply(msg, "Welcome aboard! Use /viewquests to see active quests and /leaderboard for rankings.")
		return
	}
	b.reply(msg, fmt.Sprintf(
		"Welcome back, %s!\nTotal points: %d\nUse /viewquests to see what's on.",
		user.DisplayName(), user.TotalPoints,
	))
}

func (b *Bot) handleUpdateWallet(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if _, _, err := b.ensureUser(ctx, msg.From); err != nil {
		b.log.Error("ensure user wallet", "err", err)
		return
	}
	b.state.Set(msg.From.ID, &Session{State: StateAwaitingWallet})
	b.reply(msg, "Send your new EVM wallet address (starts with 0x).")
}

func (b *Bot) handleWalletInput(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	wallet, err := b.users.SetWallet(ctx, msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, service.ErrWalletInvalid) {
			b.reply(msg, "That doesn't look like an EVM address. It should start with 0x followed by 40 hex characters. Try again or /cancel.")
			return
		}
		b.log.Error("set wallet", "err", err)
		b.reply(msg, "Couldn't save the wallet, please try again.")
		return
	}
	b.state.Reset(msg.From.ID)
	b.reply(msg, fmt.Sprintf("Wallet saved: %s ✅\nUse /viewquests to start collecting points.", wallet))
}

// handleCloseQuest retires a quest by its keyword so new submissions stop
// matching it.
func (b *Bot) handleCloseQuest(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		b.reply(msg, "Only quest admins can close quests.")
		return
	}
	keyword := strings.TrimSpace(msg.CommandArguments())
	if keyword == "" {
		b.reply(msg, "Usage: /closequest zozozo123")
		return
	}
	quest, err := b.quests.FindByKeyword(ctx, keyword)
	if err != nil {
		b.log.Error("find quest to close", "err", err)
		b.reply(msg, "Couldn't look up that quest, please try again.")
		return
	}
	if quest == nil {
		b.reply(msg, fmt.Sprintf("No active quest with keyword %s.", keyword))
		return
	}
	if err := b.quests.Deactivate(ctx, quest.ID); err != nil {
		b.log.Error("close quest", "quest_id", quest.ID, "err", err)
		b.reply(msg, "Couldn't close the quest, please try again.")
		return
	}
	b.reply(msg, fmt.Sprintf("Quest %q closed. New submissions will no longer match %s.", quest.Title, quest.Keyword))
}

func (b *Bot) handleViewQuests(ctx context.Context, msg *tgbotapi.Message, page int, editMessageID int) {
	quests, hasMore, err := b.quests.Page(ctx, time.Now().UTC(), page)
	if err != nil {
		b.log.Error("list quests", "err", err)
		b.sendText(msg.Chat.ID, "Couldn't load quests, please try again.")
		return
	}
	if len(quests) == 0 && page == 0 {
		b.sendText(msg.Chat.ID, "No active quests right now. Check back soon!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Active Quests\n\n")
	for i, q := range quests {
		sb.WriteString(fmt.Sprintf("%d. %s — %d pts\n", page*service.QuestsPerPage+i+1, q.Title, q.Points))
		sb.WriteString(fmt.Sprintf("   %s\n", q.Description))
		sb.WriteString(fmt.Sprintf("   Submit: %s with caption %s\n", q.ValidationLabel(), q.Keyword))
		sb.WriteString(fmt.Sprintf("   Deadline: %s\n\n", deadlineText(q.Deadline)))
	}
	sb.WriteString("Post your photo or video with the quest keyword in the caption.")

	var rows [][]tgbotapi.InlineKeyboardButton
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("quests:%d", page-1)))
	}
	if hasMore {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("quests:%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, editMessageID, sb.String())
		if len(rows) > 0 {
			markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
			edit.ReplyMarkup = &markup
		}
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error("edit quest page", "err", err)
		}
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, sb.String())
	if len(rows) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send quest page", "err", err)
	}
}

// handleQuestDetail shows one quest with its badge image and how many
// completions it already has.
func (b *Bot) handleQuestDetail(ctx context.Context, msg *tgbotapi.Message) {
	keyword := strings.TrimSpace(msg.CommandArguments())
	if keyword == "" {
		b.reply(msg, "Usage: /quest zozozo123")
		return
	}
	quest, err := b.quests.FindByKeyword(ctx, keyword)
	if err != nil {
		b.log.Error("quest detail", "err", err)
		b.reply(msg, "Couldn't look up that quest, please try again.")
		return
	}
	if quest == nil {
		b.reply(msg, fmt.Sprintf("No active quest with keyword %s. See /viewquests.", keyword))
		return
	}

	approved, err := b.submissions.ApprovedCount(ctx, quest.ID)
	if err != nil {
		b.log.Error("approved count", "quest_id", quest.ID, "err", err)
	}

	caption := fmt.Sprintf(
		"🏆 %s\n\n%s\n\nReward: %d pts\nProof: %s\nDeadline: %s\nCompleted by: %d\n\nSubmit with caption %s",
		quest.Title, quest.Description, quest.Points, quest.ValidationLabel(),
		deadlineText(quest.Deadline), approved, quest.Keyword,
	)

	badgePNG, err := b.badges.Cached(ctx, quest.ID)
	if err != nil {
		b.log.Error("load badge", "quest_id", quest.ID, "err", err)
	}
	if badgePNG == nil {
		if badgePNG, err = b.badges.Generate(ctx, quest, ""); err != nil {
			b.log.Error("render badge", "quest_id", quest.ID, "err", err)
		}
	}
	if badgePNG == nil {
		b.sendText(msg.Chat.ID, caption)
		return
	}
	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "badge.png", Bytes: badgePNG})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("send quest detail", "err", err)
	}
}

// handleTripper shows a progress card. Without an argument it is the
// caller's own card; admins can pass "@username" or a numeric Telegram ID to
// inspect any tripper.
func (b *Bot) handleTripper(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	var user *models.User
	var err error
	if ref := strings.TrimSpace(msg.CommandArguments()); ref != "" {
		if !b.isAdmin(msg) {
			b.reply(msg, "Only quest admins can look up other trippers.")
			return
		}
		user, err = b.users.Lookup(ctx, ref)
		if err != nil {
			if errors.Is(err, service.ErrBadUserRef) {
				b.reply(msg, "Usage: /tripper @username or /tripper user_id")
				return
			}
			b.log.Error("lookup tripper", "err", err)
			b.reply(msg, "Couldn't look up that tripper, please try again.")
			return
		}
		if user == nil {
			b.reply(msg, fmt.Sprintf("No tripper found for %s.", ref))
			return
		}
	} else {
		user, err = b.users.Get(ctx, msg.From.ID)
		if err != nil {
			b.log.Error("load profile", "err", err)
			b.reply(msg, "Couldn't load your profile, please try again.")
			return
		}
		if user == nil {
			b.reply(msg, "You're not registered yet — send /start to join the quests!")
			return
		}
	}

	attempts, completed, err := b.submissions.UserStats(ctx, user.ID)
	if err != nil {
		b.log.Error("load tripper stats", "user_id", user.ID, "err", err)
	}

	b.reply(msg, fmt.Sprintf(
		"🌌 Tripper card for %s\n\nTelegram ID: %d\nTotal points: %d\nQuests attempted: %d\nQuests completed: %d\nWallet: %s\n\nComplete quests to climb the /leaderboard. Zo Zo Zo!",
		user.DisplayName(), user.ID, user.TotalPoints, attempts, completed, abbreviateWallet(user.WalletAddress),
	))
}

// abbreviateWallet shortens a 0x address for display.
func abbreviateWallet(wallet string) string {
	if strings.HasPrefix(wallet, "0x") && len(wallet) > 12 {
		return wallet[:6] + "…" + wallet[len(wallet)-4:]
	}
	return walletText(wallet)
}

func (b *Bot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	top, err := b.leaderboard.Top(ctx)
	if err != nil {
		b.log.Error("leaderboard", "err", err)
		b.sendText(msg.Chat.ID, "Couldn't load the leaderboard, please try again.")
		return
	}
	if len(top) == 0 {
		b.sendText(msg.Chat.ID, "The leaderboard is empty — be the first to finish a quest!")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏅 Leaderboard\n\n")
	for i, entry := range top {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s %s — %d pts (%d quests)\n",
			rank, entry.User.DisplayName(), entry.User.TotalPoints, entry.QuestsCompleted))
	}
	b.sendText(msg.Chat.ID, sb.String())
}

func deadlineText(deadline string) string {
	if deadline == "" || deadline == "everyday" {
		return "Everyday"
	}
	return deadline
}

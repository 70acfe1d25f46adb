package telegram

import (
	"context"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/config"
	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/service"
)

// ImageUploader stores an uploaded quest image and returns its public URL.
// A nil uploader disables the upload step of the quest wizard.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type Bot struct {
	cfg         config.Config
	api         *tgbotapi.BotAPI
	log         *slog.Logger
	users       *service.UserService
	quests      *service.QuestService
	submissions *service.SubmissionService
	reviews     *service.ReviewService
	leaderboard *service.LeaderboardService
	badges      *service.BadgeService
	uploader    ImageUploader
	httpc       *http.Client
	state       *StateManager
}

func NewBot(
	cfg config.Config,
	api *tgbotapi.BotAPI,
	log *slog.Logger,
	users *service.UserService,
	quests *service.QuestService,
	submissions *service.SubmissionService,
	reviews *service.ReviewService,
	leaderboard *service.LeaderboardService,
	badges *service.BadgeService,
	uploader ImageUploader,
) *Bot {
	return &Bot{
		cfg:         cfg,
		api:         api,
		log:         log,
		users:       users,
		quests:      quests,
		submissions: submissions,
		reviews:     reviews,
		leaderboard: leaderboard,
		badges:      badges,
		uploader:    uploader,
		httpc:       &http.Client{Timeout: cfg.RequestTimeout},
		state:       NewStateManager(cfg.SessionTTL),
	}
}

// Run consumes updates via long polling until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started", "mode", "polling")

	for {
		select {
		case update := <-updates:
			b.HandleUpdate(ctx, update)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// HandleUpdate routes one update; both polling and the webhook server feed
// through here.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if len(msg.Photo) > 0 || msg.Video != nil {
		// A photo from an admin mid-wizard is the quest image, everything
		// else is a potential quest submission.
		if msg.From != nil && len(msg.Photo) > 0 {
			if session := b.state.Get(msg.From.ID); session.State == StateAwaitingImageUpload {
				b.handleWizardPhoto(ctx, msg, session)
				return
			}
		}
		b.handleSubmission(ctx, msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.From == nil {
		return
	}
	session := b.state.Get(msg.From.ID)
	if session.State != StateIdle {
		b.handleWizardText(ctx, msg, session)
		return
	}
}

func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	if msg.Chat != nil && msg.Chat.ID == b.cfg.AdminGroupID {
		return true
	}
	return msg.From != nil && b.cfg.IsAdmin(msg.From.ID)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, bool, error) {
	if from == nil {
		return nil, false, nil
	}
	return b.users.Ensure(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("send reply", "err", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/badge"
	"github.com/zohouse/questbot/internal/config"
	"github.com/zohouse/questbot/internal/database"
	"github.com/zohouse/questbot/internal/imagegen"
	"github.com/zohouse/questbot/internal/repository"
	"github.com/zohouse/questbot/internal/service"
	"github.com/zohouse/questbot/internal/storage"
	"github.com/zohouse/questbot/internal/telegram"
	"github.com/zohouse/questbot/internal/webhook"
	"github.com/zohouse/questbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	client, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("supabase connect: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	userRepo := repository.NewUserRepository(client)
	questRepo := repository.NewQuestRepository(client)
	submissionRepo := repository.NewSubmissionRepository(client)
	badgeRepo := repository.NewBadgeRepository(client)

	var uploader *storage.Uploader
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		uploader, err = storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
	}

	iconClient := imagegen.NewClient(cfg, logr)
	renderer := badge.NewRenderer(cfg.FontsDir)
	iconProvider := badge.NewIconProvider(cfg.IconsDir)

	userService := service.NewUserService(userRepo)
	questService := service.NewQuestService(questRepo)
	submissionService := service.NewSubmissionService(submissionRepo, questRepo, cfg.MaxVideoSizeBytes)
	reviewService := service.NewReviewService(submissionRepo, userRepo, questRepo)
	leaderboardService := service.NewLeaderboardService(userRepo, submissionRepo)

	var badgeUploader service.BadgeUploader
	var imageUploader telegram.ImageUploader
	if uploader != nil {
		badgeUploader = uploader
		imageUploader = uploader
	}
	badgeService := service.NewBadgeService(renderer, badgeRepo, questRepo, iconProvider, iconClient, badgeUploader, logr)

	bot := telegram.NewBot(cfg, botAPI, logr, userService, questService, submissionService, reviewService, leaderboardService, badgeService, imageUploader)

	if cfg.UseWebhook {
		server := webhook.NewServer(cfg.ListenAddr, cfg.BotToken, logr, botAPI, bot)
		if err := server.Register(cfg.WebhookBaseURL); err != nil {
			log.Fatalf("register webhook: %v", err)
		}
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("webhook server stopped", "err", err)
		}
		return
	}

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}

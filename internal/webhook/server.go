package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zohouse/questbot/internal/telegram"
)

// Server receives Telegram webhook updates over HTTP and feeds them to the
// bot. The update path embeds the bot token so only Telegram can post to it.
type Server struct {
	addr   string
	token  string
	log    *slog.Logger
	api    *tgbotapi.BotAPI
	bot    *telegram.Bot
	router *chi.Mux
}

func NewServer(addr, token string, log *slog.Logger, api *tgbotapi.BotAPI, bot *telegram.Bot) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:   addr,
		token:  token,
		log:    log,
		api:    api,
		bot:    bot,
		router: r,
	}
	r.Get("/healthz", s.handleHealth)
	r.Post("/webhook/{token}", s.handleUpdate)
	return s
}

// Register points Telegram at our public URL. Call once on startup when
// webhook mode is enabled.
func (s *Server) Register(baseURL string) error {
	wh, err := tgbotapi.NewWebhook(fmt.Sprintf("%s/webhook/%s", baseURL, s.token))
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := s.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("webhook shutdown error", "err", err)
		}
	}()

	s.log.Info("webhook server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != s.token {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	update, err := s.api.HandleUpdate(r)
	if err != nil {
		s.log.Error("decode update", "err", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	s.bot.HandleUpdate(r.Context(), *update)
	w.WriteHeader(http.StatusOK)
}

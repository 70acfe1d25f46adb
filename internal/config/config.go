package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot and supporting services.
type Config struct {
	BotToken          string
	SupabaseURL       string
	SupabaseKey       string
	AdminGroupID      int64
	PublicGroupID     int64
	AdminUserIDs      []int64
	UseWebhook        bool
	WebhookBaseURL    string
	ListenAddr        string
	ImageGenAPIKey    string
	ImageGenBaseURL   string
	ImageGenPath      string
	FontsDir          string
	IconsDir          string
	RequestTimeout    time.Duration
	SessionTTL        time.Duration
	MaxVideoSizeBytes int64
	S3Endpoint        string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3Bucket          string
	S3PublicBaseURL   string
	S3UsePathStyle    bool
	S3Prefix          string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AdminGroupID:      getInt64("ADMIN_GROUP_ID", 0),
		PublicGroupID:     getInt64("PUBLIC_GROUP_ID", 0),
		AdminUserIDs:      getInt64List("ADMIN_USER_IDS"),
		UseWebhook:        getBool("USE_WEBHOOK", false),
		WebhookBaseURL:    normalizeBaseURL(getEnv("WEBHOOK_BASE_URL", "")),
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		ImageGenBaseURL:   normalizeBaseURL(getEnv("IMAGEGEN_BASE_URL", "")),
		ImageGenPath:      getEnv("IMAGEGEN_PATH", "/api/v1/jobs/createTask"),
		FontsDir:          getEnv("FONTS_DIR", "fonts"),
		IconsDir:          getEnv("ICONS_DIR", filepath.Join("fonts", "Color Symbols")),
		RequestTimeout:    time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 60)),
		SessionTTL:        time.Minute * time.Duration(getInt("SESSION_TTL_MINUTES", 30)),
		MaxVideoSizeBytes: int64(getInt("MAX_VIDEO_SIZE_MB", 20)) * 1024 * 1024,
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		S3Bucket:          getEnv("S3_BUCKET", "quest_images"),
		S3PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:    getBool("S3_USE_PATH_STYLE", true),
		S3Prefix:          getEnv("S3_PREFIX", "badges"),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	cfg.SupabaseKey = os.Getenv("SUPABASE_KEY")
	cfg.ImageGenAPIKey = os.Getenv("IMAGEGEN_API_KEY")

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if cfg.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_KEY")
	}
	if cfg.AdminGroupID == 0 {
		missing = append(missing, "ADMIN_GROUP_ID")
	}
	if cfg.PublicGroupID == 0 {
		missing = append(missing, "PUBLIC_GROUP_ID")
	}
	if cfg.UseWebhook && cfg.WebhookBaseURL == "" {
		missing = append(missing, "WEBHOOK_BASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// IsAdmin reports whether the given Telegram user ID is on the admin list.
// An empty list means admin rights are granted by admin-group membership only.
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Host == "" {
		parsed.Host = parsed.Path
		parsed.Path = ""
	}
	return strings.TrimSuffix(parsed.String(), "/")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64List(key string) []int64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Running purely on process environment is fine in containers.
	return nil
}

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")
	t.Setenv("ADMIN_GROUP_ID", "-1001")
	t.Setenv("PUBLIC_GROUP_ID", "-1002")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "123:abc", cfg.BotToken)
	require.Equal(t, int64(-1001), cfg.AdminGroupID)
	require.Equal(t, int64(-1002), cfg.PublicGroupID)
	require.False(t, cfg.UseWebhook)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, int64(20*1024*1024), cfg.MaxVideoSizeBytes)
	require.Equal(t, "quest_images", cfg.S3Bucket)
	require.Equal(t, "badges", cfg.S3Prefix)
	require.Equal(t, "fonts", cfg.FontsDir)
	require.Equal(t, filepath.Join("fonts", "Color Symbols"), cfg.IconsDir)
	require.Equal(t, "/api/v1/jobs/createTask", cfg.ImageGenPath)
}

func TestLoadAssetDirOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FONTS_DIR", "/srv/assets/fonts")
	t.Setenv("ICONS_DIR", "/srv/assets/icons")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/srv/assets/fonts", cfg.FontsDir)
	require.Equal(t, "/srv/assets/icons", cfg.IconsDir)
}

func TestLoadReportsAllMissingVars(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	t.Setenv("ADMIN_GROUP_ID", "")
	t.Setenv("PUBLIC_GROUP_ID", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	require.Contains(t, err.Error(), "SUPABASE_URL")
	require.Contains(t, err.Error(), "SUPABASE_KEY")
	require.Contains(t, err.Error(), "ADMIN_GROUP_ID")
	require.Contains(t, err.Error(), "PUBLIC_GROUP_ID")
}

func TestLoadWebhookRequiresBaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("USE_WEBHOOK", "true")
	t.Setenv("WEBHOOK_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "WEBHOOK_BASE_URL")

	t.Setenv("WEBHOOK_BASE_URL", "bot.example.com/")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://bot.example.com", cfg.WebhookBaseURL)
}

func TestLoadAdminList(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_USER_IDS", "10, 20,notanid,30")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 30}, cfg.AdminUserIDs)
	require.True(t, cfg.IsAdmin(20))
	require.False(t, cfg.IsAdmin(99))
}

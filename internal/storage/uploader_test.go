package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Endpoint:      "https://project.supabase.co/storage/v1/s3",
		Region:        "us-east-1",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "quest_images",
		PublicBaseURL: "https://project.supabase.co/storage/v1/object/public/quest_images",
		UsePathStyle:  true,
		Prefix:        "badges",
	}
}

func TestNewUploaderValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing bucket", func(c *Config) { c.Bucket = "" }},
		{"missing region", func(c *Config) { c.Region = "" }},
		{"missing access key", func(c *Config) { c.AccessKey = "" }},
		{"missing secret key", func(c *Config) { c.SecretKey = "" }},
		{"missing public url", func(c *Config) { c.PublicBaseURL = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := NewUploader(cfg)
			require.Error(t, err)
		})
	}
}

func TestGenerateKeyIsDatedAndUnique(t *testing.T) {
	u, err := NewUploader(testConfig())
	require.NoError(t, err)

	now := time.Now().UTC()
	datePart := fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day())

	first := u.generateKey("image/jpeg")
	second := u.generateKey("image/jpeg")

	require.True(t, strings.HasPrefix(first, "badges/"+datePart+"/"))
	require.True(t, strings.HasSuffix(first, ".jpg"))
	require.NotEqual(t, first, second)
}

func TestExtensionFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/jpg", ".jpg"},
		{"image/webp", ".webp"},
		{"IMAGE/PNG", ".png"},
		{"application/octet-stream", ".bin"},
		{"", ".bin"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, extensionFromContentType(tc.contentType), tc.contentType)
	}
}

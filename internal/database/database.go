package database

import (
	"fmt"
	"strings"

	supabase "github.com/nedpals/supabase-go"

	"github.com/zohouse/questbot/internal/config"
)

// Connect builds the Supabase PostgREST client from configuration.
func Connect(cfg config.Config) (*supabase.Client, error) {
	url := strings.TrimSuffix(cfg.SupabaseURL, "/")
	if url == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	return supabase.CreateClient(url, cfg.SupabaseKey), nil
}

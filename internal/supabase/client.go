package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"sora-studio-backend/internal/config"
)

// Client bundles the supabase-go API client with the configuration it was
// built from, so downstream constructors can pull both from one place.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{Supabase: client, Config: cfg}, nil
}

package config

import (
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

var SupabaseClient *supa.Client

// InitSupabase initializes the shared Supabase client. The service key is
// mandatory: the gateway writes on behalf of users and row-level security is
// enforced by scoping every query to the owner id.
func InitSupabase(cfg *Config) error {
	client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return fmt.Errorf("initializing Supabase client: %w", err)
	}
	SupabaseClient = client
	return nil
}

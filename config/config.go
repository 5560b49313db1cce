package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting of the service.
type Config struct {
	Port string

	SupabaseURL        string
	SupabaseServiceKey string

	GeminiAPIKey string
	GeminiModel  string

	// ScraperURL points at the social-media scraper service.
	ScraperURL string

	// Workers and QueueSize control the background processing pool.
	Workers   int
	QueueSize int
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ScraperURL:         getEnv("RECIPE_SCRAPER_URL", "http://localhost:5000"),
		Workers:            4,
		QueueSize:          64,
	}

	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseServiceKey == "" {
		return nil, fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// AI
	OpenAIAPIKey  string
	OpenAIBaseURL string // Optional alternate endpoint (LiteLLM, proxy, ...)
	ModelID       string

	// Discord
	DiscordBotToken string

	// Google Custom Search
	SearchAPIKey   string
	SearchEngineID string

	// Storage & memory
	DatabasePath     string
	MaxContextTokens int

	// Prompting
	SystemPromptPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		ModelID:          getEnv("AI_MODEL", "gpt-4o"),
		DiscordBotToken:  getEnv("DISCORD_TOKEN", ""),
		SearchAPIKey:     getEnv("GOOGLE_SEARCH_API_KEY", ""),
		SearchEngineID:   getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),
		DatabasePath:     getEnv("DATABASE_PATH", "nebula.db"),
		MaxContextTokens: getEnvInt("MAX_CONTEXT_TOKENS", 400000),
		SystemPromptPath: getEnv("SYSTEM_PROMPT_PATH", "system.txt"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.ModelID == "" {
		return fmt.Errorf("AI_MODEL is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MaxContextTokens <= 0 {
		return fmt.Errorf("MAX_CONTEXT_TOKENS must be positive")
	}
	// Discord token, OpenAI key and search credentials are checked at the
	// point of use so the affected feature can degrade instead of crash.
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

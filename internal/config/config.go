package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// Generation provider configuration
	ProvidersFile     string // optional YAML catalog; built-in defaults when empty
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
	ErnieClientID     string
	ErnieClientSecret string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Generation provider configuration
		ProvidersFile:     getEnv("PROVIDERS_FILE", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		DeepSeekAPIKey:    getEnv("DEEPSEEK_API_KEY", ""),
		ErnieClientID:     getEnv("ERNIE_CLIENT_ID", ""),
		ErnieClientSecret: getEnv("ERNIE_CLIENT_SECRET", ""),
		// Debug defaults to true outside prod
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

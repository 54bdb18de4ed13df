package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Session configuration
	JWTSecret string

	// OpenAI-compatible API configuration
	OpenAIAPIKey        string
	OpenAIChatURL       string
	OpenAIImagesURL     string
	OpenAITranscribeURL string
	OpenAIChatModel     string

	// Object storage (S3/R2 compatible)
	S3Bucket          string
	S3Endpoint        string
	S3Region          string
	S3PublicBaseURL   string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// OAuth sign-in
	OAuthAuthorizeURL string
	OAuthClientID     string

	// Cross-origin browser clients. When set, these origins are allowed
	// with credentials so the session cookie works; when empty any origin
	// is allowed but cookie auth is same-origin only.
	CORSAllowedOrigins []string

	// Demo identity shortcut. Never enabled by default; every request
	// resolves to a fixed synthetic user when set.
	DemoMode   bool
	DemoUserID string
}

// LoadConfig builds a Config from the environment. A .env file is honored if
// present; each secret value may alternatively be supplied via a *_FILE path
// (Docker secrets).
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getSecret("DB_USER"),
		DBPassword: getSecret("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "cozyplate"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getSecret("REDIS_PASSWORD"),
		RedisURL:      getEnv("REDIS_URL", ""),

		JWTSecret: getSecret("JWT_SECRET"),

		OpenAIAPIKey:        getSecret("OPENAI_API_KEY"),
		OpenAIChatURL:       getEnv("OPENAI_CHAT_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIImagesURL:     getEnv("OPENAI_IMAGES_URL", "https://api.openai.com/v1/images/generations"),
		OpenAITranscribeURL: getEnv("OPENAI_TRANSCRIBE_URL", "https://api.openai.com/v1/audio/transcriptions"),
		OpenAIChatModel:     getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),

		S3Bucket:          getEnv("S3_BUCKET_NAME", ""),
		S3Endpoint:        getEnv("S3_API", ""),
		S3Region:          getEnv("AWS_REGION", "auto"),
		S3PublicBaseURL:   getEnv("S3_PUBLIC", ""),
		S3AccessKeyID:     getSecret("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: getSecret("S3_SECRET_ACCESS_KEY"),

		OAuthAuthorizeURL: getEnv("OAUTH_AUTHORIZE_URL", ""),
		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),

		DemoMode:   getEnv("DEMO_MODE", "false") == "true",
		DemoUserID: getEnv("DEMO_USER_ID", ""),
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getEnv returns the environment value or a default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getSecret resolves a secret from KEY, then KEY_FILE, then the Docker
// secrets directory.
func getSecret(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, strings.ToLower(key))); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

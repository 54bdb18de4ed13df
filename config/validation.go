package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks that the configuration is usable for the current
// environment. Development and test are lenient so the service can boot
// against local defaults; production requires every secret to be present.
func ValidateConfig(cfg *Config) error {
	var missing []string

	if cfg.ServerPort == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if cfg.JWTSecret == "" {
		if IsProduction() {
			missing = append(missing, "JWT_SECRET")
		} else {
			cfg.JWTSecret = "dev-insecure-secret"
		}
	}

	if IsProduction() {
		if cfg.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if cfg.DBPassword == "" {
			missing = append(missing, "DB_PASSWORD")
		}
		if cfg.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if cfg.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if cfg.DemoMode {
			return fmt.Errorf("DEMO_MODE must not be enabled in production")
		}
	}

	if cfg.DemoMode && cfg.DemoUserID == "" {
		return fmt.Errorf("DEMO_MODE requires DEMO_USER_ID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const minSecretLen = 16

// LoadConfig reads a .env file when present and parses KONKURSANT_*
// environment variables into AppConfig. A missing .env file is normal
// in production and is not an error.
func LoadConfig(logger *zap.Logger) (AppConfig, error) {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded configuration from .env")
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// validateConfig enforces invariants that would otherwise surface as
// confusing runtime failures: URI scheme, secret length, audit modes.
func validateConfig(cfg AppConfig) error {
	if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return fmt.Errorf("invalid MongoDB URI %q", cfg.MongoURI)
	}
	if len(cfg.SessionKey) < minSecretLen {
		return fmt.Errorf("session key must be at least %d characters", minSecretLen)
	}
	if len(cfg.JWTSecret) < minSecretLen {
		return fmt.Errorf("jwt secret must be at least %d characters", minSecretLen)
	}
	for _, mode := range []string{cfg.AuditLogAuth, cfg.AuditLogAdmin} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("invalid audit log mode %q", mode)
		}
	}
	return nil
}

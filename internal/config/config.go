package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	WebhookSecret        string `env:"WEBHOOK_SECRET"`
	SessionSecret        string `env:"SESSION_SECRET"`
	MagicLinkTTLMinutes  int    `env:"MAGIC_LINK_TTL_MINUTES" envDefault:"15"`
	ResendLinkTTLMinutes int    `env:"RESEND_LINK_TTL_MINUTES" envDefault:"1440"`
	SessionTTLHours      int    `env:"SESSION_TTL_HOURS" envDefault:"24"`
	PortalBaseURL        string `env:"PORTAL_BASE_URL" envDefault:"http://localhost:3000"`
	PublicBaseURL        string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) MagicLinkTTL() time.Duration {
	return time.Duration(c.MagicLinkTTLMinutes) * time.Minute
}

func (c *Config) ResendLinkTTL() time.Duration {
	return time.Duration(c.ResendLinkTTLMinutes) * time.Minute
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}

		if c.WebhookSecret == "" {
			log.Warn().Msg("WEBHOOK_SECRET is empty in production: commerce webhook signature verification disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if strings.HasPrefix(c.PortalBaseURL, "http://") {
			log.Warn().Msg("PORTAL_BASE_URL uses http:// in production: magic links will be served over plain HTTP")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

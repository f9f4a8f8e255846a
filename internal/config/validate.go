package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) port(name string, v int) {
	if v < 1 || v > 65535 {
		p.addf("%s must be 1-65535, got %d", name, v)
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return errors.New("config validation failed:\n  " + strings.Join(p, "\n  "))
}

// Validate reports every fatal misconfiguration at once. Missing provider or
// billing credentials only warn, since the API still serves account routes
// without them.
func (c *Config) Validate() error {
	var p problems

	if len(c.JWT.AccessSecret) < 32 {
		p.addf("JWT_ACCESS_SECRET must be at least 32 characters")
	}
	if len(c.JWT.RefreshSecret) < 32 {
		p.addf("JWT_REFRESH_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		p.addf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// 32-byte AES key, hex encoded
	switch {
	case c.Encryption.Key == "":
		p.addf("ENCRYPTION_KEY is required")
	case len(c.Encryption.Key) != 64:
		p.addf("ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes)")
	default:
		if _, err := hex.DecodeString(c.Encryption.Key); err != nil {
			p.addf("ENCRYPTION_KEY must be valid hex")
		}
	}

	if c.DB.Password == "" {
		p.addf("DB_PASSWORD is required")
	}

	p.port("SERVER_PORT", c.Server.Port)
	p.port("DB_PORT", c.DB.Port)
	p.port("REDIS_PORT", c.Redis.Port)

	if c.Quota.FreeMonthlyLimit < 1 {
		p.addf("QUOTA_FREE_LIMIT must be positive, got %d", c.Quota.FreeMonthlyLimit)
	}
	if c.Quota.ProMonthlyLimit < c.Quota.FreeMonthlyLimit {
		p.addf("QUOTA_PRO_LIMIT must be >= QUOTA_FREE_LIMIT, got %d", c.Quota.ProMonthlyLimit)
	}

	if c.RateLimit.AuthMaxRequests < 0 || c.RateLimit.AuthWindowSec < 0 {
		p.addf("AUTH_RATE_LIMIT_MAX and AUTH_RATE_LIMIT_WINDOW must not be negative")
	}

	if c.Stripe.FrontendURL != "" {
		if u, err := url.Parse(c.Stripe.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
			p.addf("FRONTEND_URL must be an absolute URL, got %q", c.Stripe.FrontendURL)
		}
	}

	if c.AI.OpenAIAPIKey == "" && c.AI.AnthropicAPIKey == "" {
		slog.Warn("no AI provider key configured; every tool call will fail")
	}
	if c.Stripe.SecretKey != "" {
		if c.Stripe.WebhookSecret == "" {
			slog.Warn("STRIPE_WEBHOOK_SECRET is empty; billing webhooks will be rejected")
		}
		if c.Stripe.PriceID == "" {
			slog.Warn("STRIPE_PRICE_ID is empty; checkout will fail")
		}
	}

	return p.err()
}

package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	NATS       NATSConfig
	AI         AIConfig
	Quota      QuotaConfig
	Stripe     StripeConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

// DSN is the URL form used by both pgx and golang-migrate. Credentials are
// escaped.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type EncryptionConfig struct {
	Key string
}

// NATSConfig is optional. An empty URL disables event streaming.
type NATSConfig struct {
	URL string
}

// AIConfig holds provider credentials. A provider is available only when its key is set.
type AIConfig struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
}

// QuotaConfig holds the monthly generation limits per plan.
type QuotaConfig struct {
	FreeMonthlyLimit int
	ProMonthlyLimit  int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	FrontendURL   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig controls the per-IP limiter on the auth routes.
type RateLimitConfig struct {
	AuthMaxRequests int
	AuthWindowSec   int
}

type LogConfig struct {
	Level  string
	Format string
}

// defaults apply to any key neither .env nor the environment sets.
var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.shutdown.timeout": "30s",
	"db.host":                 "localhost",
	"db.port":                 5432,
	"db.user":                 "kukiwrite",
	"db.name":                 "kukiwrite",
	"db.sslmode":              "disable",
	"db.max.conns":            25,
	"db.migrations.path":      "migrations",
	"redis.host":              "localhost",
	"redis.port":              6379,
	"jwt.access.expiry":       "15m",
	"jwt.refresh.expiry":      "168h",
	"quota.free.limit":        50,
	"quota.pro.limit":         10000,
	"frontend.url":            "http://localhost:3000",
	"auth.rate.limit.max":     10,
	"auth.rate.limit.window":  60,
	"log.level":               "debug",
	"log.format":              "text",
}

// Load reads configuration from defaults, then an optional .env file, then
// the process environment. FOO_BAR becomes the key foo.bar.
func Load() (*Config, error) {
	k := koanf.New(".")

	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	// .env is optional
	_ = k.Load(file.Provider(".env"), dotenv.ParserEnv("", ".", envKey))

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	return fromKoanf(k)
}

func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", "."))
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	var d durations
	cfg := &Config{
		Server: ServerConfig{
			Host:            k.String("server.host"),
			Port:            k.Int("server.port"),
			ShutdownTimeout: d.parse(k, "server.shutdown.timeout"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		JWT: JWTConfig{
			AccessSecret:  k.String("jwt.access.secret"),
			RefreshSecret: k.String("jwt.refresh.secret"),
			AccessExpiry:  d.parse(k, "jwt.access.expiry"),
			RefreshExpiry: d.parse(k, "jwt.refresh.expiry"),
		},
		Encryption: EncryptionConfig{
			Key: k.String("encryption.key"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		AI: AIConfig{
			OpenAIAPIKey:    k.String("openai.api.key"),
			OpenAIBaseURL:   k.String("openai.base.url"),
			AnthropicAPIKey: k.String("anthropic.api.key"),
		},
		Quota: QuotaConfig{
			FreeMonthlyLimit: k.Int("quota.free.limit"),
			ProMonthlyLimit:  k.Int("quota.pro.limit"),
		},
		Stripe: StripeConfig{
			SecretKey:     k.String("stripe.secret.key"),
			WebhookSecret: k.String("stripe.webhook.secret"),
			PriceID:       k.String("stripe.price.id"),
			FrontendURL:   k.String("frontend.url"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		RateLimit: RateLimitConfig{
			AuthMaxRequests: k.Int("auth.rate.limit.max"),
			AuthWindowSec:   k.Int("auth.rate.limit.window"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}
	if d.err != nil {
		return nil, d.err
	}
	return cfg, nil
}

// durations parses duration keys and keeps the first failure.
type durations struct {
	err error
}

func (d *durations) parse(k *koanf.Koanf, key string) time.Duration {
	v, err := time.ParseDuration(k.String(key))
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("parsing %s: %w", key, err)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

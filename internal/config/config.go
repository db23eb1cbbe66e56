// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Session   SessionConfig   `koanf:"session"`
	Payment   PaymentConfig   `koanf:"payment"`
	AI        AIConfig        `koanf:"ai"`
	Storage   StorageConfig   `koanf:"storage"`
	Mail      MailConfig      `koanf:"mail"`
	Purchase  PurchaseConfig  `koanf:"purchase"`
	Migration MigrationConfig `koanf:"migration"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath string        `koanf:"private_key_path"`
	PublicKeyPath  string        `koanf:"public_key_path"`
	SessionExpire  time.Duration `koanf:"session_expire"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
}

type SessionConfig struct {
	CookieName string `koanf:"cookie_name"`
	CookiePath string `koanf:"cookie_path"`
	Secure     bool   `koanf:"secure"`
}

// PaymentConfig holds the Razorpay credentials. KeyID is handed to the
// browser checkout, KeySecret never leaves the server.
type PaymentConfig struct {
	Gateway        string        `koanf:"gateway"`
	KeyID          string        `koanf:"key_id"`
	KeySecret      string        `koanf:"key_secret"`
	Currency       string        `koanf:"currency"`
	ReceiptBaseURL string        `koanf:"receipt_base_url"`
	CheckoutURL    string        `koanf:"checkout_url"`
	Timeout        time.Duration `koanf:"timeout"`
}

type AIConfig struct {
	Endpoint string        `koanf:"endpoint"`
	APIKey   string        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

type StorageConfig struct {
	Bucket        string `koanf:"bucket"`
	Region        string `koanf:"region"`
	Endpoint      string `koanf:"endpoint"`
	Prefix        string `koanf:"prefix"`
	PublicBaseURL string `koanf:"public_base_url"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	MaxImageBytes int64  `koanf:"max_image_bytes"`
}

type MailConfig struct {
	From         string        `koanf:"from"`
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"`
	SMTPUser     string        `koanf:"smtp_user"`
	SMTPPassword string        `koanf:"smtp_password"`
	AMQPURL      string        `koanf:"amqp_url"`
	Exchange     string        `koanf:"exchange"`
	Queue        string        `koanf:"queue"`
	Prefetch     int           `koanf:"prefetch"`
	Workers      int           `koanf:"workers"`
	DialRetries  int           `koanf:"dial_retries"`
	DialBackoff  time.Duration `koanf:"dial_backoff"`
	PublicURL    string        `koanf:"public_url"`
}

type PurchaseConfig struct {
	StaleAfter time.Duration `koanf:"stale_after"`
}

type MigrationConfig struct {
	Path string `koanf:"path"`
	Auto bool   `koanf:"auto"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type RateLimitConfig struct {
	Requests           int           `koanf:"requests"`
	Window             time.Duration `koanf:"window"`
	Burst              int           `koanf:"burst"`
	CredentialRequests int           `koanf:"credential_requests"`
	CredentialBurst    int           `koanf:"credential_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		k := koanf.New(".")

		if err := loadDefaults(k); err != nil {
			loadErr = fmt.Errorf("load defaults: %w", err)
			return
		}

		if configPath != "" {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				loadErr = fmt.Errorf("load config file: %w", err)
				return
			}
		}

		if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
			loadErr = fmt.Errorf("load env vars: %w", err)
			return
		}

		cfg = &Config{}
		if err := k.Unmarshal("", cfg); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		if err := validate(cfg); err != nil {
			loadErr = fmt.Errorf("validate config: %w", err)
			return
		}
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "BlogHub",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.session_expire":   "168h",
		"jwt.issuer":           "bloghub",
		"jwt.audience":         "bloghub-api",
		"jwt.private_key_path": "keys/private.pem",
		"jwt.public_key_path":  "keys/public.pem",

		"session.cookie_name": "auth_token",
		"session.cookie_path": "/",
		"session.secure":      false,

		"payment.gateway":          "Razorpay",
		"payment.currency":         "USD",
		"payment.receipt_base_url": "https://dashboard.razorpay.com/app/payments/",
		"payment.checkout_url":     "https://checkout.razorpay.com/v1/checkout.js",
		"payment.timeout":          "10s",

		"ai.endpoint": "https://generativelanguage.googleapis.com/v1beta",
		"ai.model":    "gemini-1.5-flash",
		"ai.timeout":  "15s",

		"storage.region":          "us-east-1",
		"storage.prefix":          "profile-photos",
		"storage.max_image_bytes": 5 << 20,

		"mail.from":         "BlogHub <notifications@bloghub.com>",
		"mail.smtp_port":    587,
		"mail.exchange":     "notifications",
		"mail.queue":        "email_jobs",
		"mail.prefetch":     10,
		"mail.workers":      10,
		"mail.dial_retries": 5,
		"mail.dial_backoff": "2s",
		"mail.public_url":   "http://localhost:3000",

		"purchase.stale_after": "24h",

		"migration.path": "migrations",
		"migration.auto": false,

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"rate_limit.requests":            100,
		"rate_limit.window":              "1m",
		"rate_limit.burst":               20,
		"rate_limit.credential_requests": 10,
		"rate_limit.credential_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "bloghub",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_SESSION_EXPIRE":          "jwt.session_expire",
	"SESSION_COOKIE_NAME":         "session.cookie_name",
	"SESSION_SECURE":              "session.secure",
	"RAZORPAY_KEY_ID":             "payment.key_id",
	"RAZORPAY_KEY_SECRET":         "payment.key_secret",
	"PAYMENT_CURRENCY":            "payment.currency",
	"GEMINI_API_KEY":              "ai.api_key",
	"GEMINI_MODEL":                "ai.model",
	"AI_ENDPOINT":                 "ai.endpoint",
	"S3_BUCKET":                   "storage.bucket",
	"S3_REGION":                   "storage.region",
	"S3_ENDPOINT":                 "storage.endpoint",
	"S3_PUBLIC_BASE_URL":          "storage.public_base_url",
	"S3_ACCESS_KEY":               "storage.access_key",
	"S3_SECRET_KEY":               "storage.secret_key",
	"MAIL_FROM":                   "mail.from",
	"SMTP_HOST":                   "mail.smtp_host",
	"SMTP_PORT":                   "mail.smtp_port",
	"SMTP_USER":                   "mail.smtp_user",
	"SMTP_PASSWORD":               "mail.smtp_password",
	"AMQP_URL":                    "mail.amqp_url",
	"MAIL_QUEUE":                  "mail.queue",
	"PUBLIC_URL":                  "mail.public_url",
	"PURCHASE_STALE_AFTER":        "purchase.stale_after",
	"MIGRATIONS_PATH":             "migration.path",
	"MIGRATE_ON_START":            "migration.auto",
	"METRICS_ENABLED":             "metrics.enabled",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_LOGIN_REQUESTS":   "rate_limit.credential_requests",
	"RATE_LIMIT_LOGIN_BURST":      "rate_limit.credential_burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.JWT.SessionExpire <= 0 {
		return fmt.Errorf("jwt.session_expire must be positive")
	}

	if c.Purchase.StaleAfter <= 0 {
		return fmt.Errorf("purchase.stale_after must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		c.Session.Secure = true
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

// Validate is checked only by processes that take payments.
func (p *PaymentConfig) Validate() error {
	if p.KeyID == "" || p.KeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// SMTPEnabled reports whether direct SMTP delivery is configured.
func (m *MailConfig) SMTPEnabled() bool {
	return m.SMTPHost != ""
}

func (m *MailConfig) QueueEnabled() bool {
	return m.AMQPURL != ""
}

func (s *StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

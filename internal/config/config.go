package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all runtime configuration loaded from environment variables.
// It is built once at startup and passed by pointer; nothing mutates it afterwards.
type Config struct {
	AppPort   string `env:"PORT, default=4000"`
	AppEnv    string `env:"APP_ENV, default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFile   string `env:"LOG_FILE, default=logs/application.log"`
	SentryDSN string `env:"SENTRY_DSN"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY, default=1h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`

	FrontendLink string `env:"FRONTEND_LINK, default=http://localhost:5173"`
	OwnLink      string `env:"OWN_LINK, default=http://localhost:4000"`

	AllowedOrigins     []string `env:"ALLOWED_ORIGINS, default=http://localhost:5173"`
	StrictPublicRoutes bool     `env:"STRICT_PUBLIC_ROUTES, default=false"`

	// StoreDriver selects the credential store: "dynamo" or "memory".
	StoreDriver string `env:"STORE_DRIVER, default=dynamo"`

	AWSRegion      string `env:"AWS_REGION, default=us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	Mail MailConfig

	Weather WeatherConfig
	Redis   RedisConfig
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users      string `env:"DYNAMO_TABLE_USERS, default=users"`
	UserEmails string `env:"DYNAMO_TABLE_USER_EMAILS, default=user_emails"`
}

// MailConfig configures the notification sink.
type MailConfig struct {
	// Driver is "smtp", "sns" or "log".
	Driver       string `env:"NOTIFIER_DRIVER, default=smtp"`
	SMTPHost     string `env:"SMTP_HOST, default=localhost"`
	SMTPPort     string `env:"SMTP_PORT, default=1025"`
	SMTPFrom     string `env:"SMTP_FROM, default=noreply@example.com"`
	SMTPUsername string `env:"MAIL_USER"`
	SMTPPassword string `env:"MAIL_USER_SECRET"`
	SNSTopicARN  string `env:"SNS_TOPIC_ARN"`
}

// WeatherConfig configures the upstream weather provider.
type WeatherConfig struct {
	APIKey   string        `env:"OPENWEATHER_API_KEY"`
	BaseURL  string        `env:"OPENWEATHER_BASE_URL, default=https://api.openweathermap.org/data/2.5"`
	Timeout  time.Duration `env:"OPENWEATHER_TIMEOUT, default=10s"`
	CacheTTL time.Duration `env:"WEATHER_CACHE_TTL, default=10m"`
}

// RedisConfig configures the optional weather response cache. Empty Addr disables it.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

func (c *Config) IsDev() bool { return c.AppEnv == "development" }

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given key/value map. Used by tests.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case "dynamo", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.Mail.Driver {
	case "smtp", "log":
	case "sns":
		if c.Mail.SNSTopicARN == "" {
			return errors.New("SNS_TOPIC_ARN is required when NOTIFIER_DRIVER=sns")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER_DRIVER %q", c.Mail.Driver)
	}
	return nil
}

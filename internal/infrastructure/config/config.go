package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=5000"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// ClientURL is the web client origin; it fronts CORS and the
	// password-reset link base.
	ClientURL string `env:"CLIENT_URL, default=http://localhost:5173"`

	// SessionTTL bounds both the JWT expiry and the cookie max-age.
	SessionTTL time.Duration `env:"SESSION_TTL, default=168h"`

	Mongo MongoConfig
	Redis RedisConfig
	Mail  MailConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=advanced_auth"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MailConfig struct {
	// Token enables the Mailtrap sender; when empty, mails are logged instead.
	Token       string `env:"MAILTRAP_TOKEN"`
	SenderEmail string `env:"MAIL_SENDER_EMAIL, default=noreply@authcompany.dev"`
	SenderName  string `env:"MAIL_SENDER_NAME,  default=Auth Company"`
}

// Production reports whether the process runs with production hardening
// (secure cookies, JSON logs).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// IdentitySecret signs voter identity tokens and salts the IP
	// fingerprint used for rate limiting. Never logged.
	IdentitySecret string `env:"IDENTITY_SECRET,required,notEmpty"`

	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitMaxAttempts   int `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"15"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`

	CookieDomain string `env:"HTTP_COOKIE_DOMAIN"`
	CookieSecure bool   `env:"HTTP_COOKIE_SECURE" envDefault:"false"`
}

// Load reads an optional .env file and parses the environment. Missing
// required variables fail loudly here rather than at first use.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

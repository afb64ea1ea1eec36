// Package config loads server configuration from environment variables.
//
// Variables are read with caarlos0/env after an optional .env file has been
// loaded into the process environment. Every field has a default except
// JWT_SECRET, which must be set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	Port     int        `env:"PORT" envDefault:"8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/liber.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	JWT      JWT        `envPrefix:"JWT_"`
	Bcrypt   Bcrypt     `envPrefix:"BCRYPT_"`
	CORS     CORS       `envPrefix:"CORS_"`
	GitHub   GitHub     `envPrefix:"GITHUB_"`
}

// JWT contains token signing parameters.
type JWT struct {
	Secret     string        `env:"SECRET,required"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"8760h"`
}

// Bcrypt contains the password hashing work factor.
type Bcrypt struct {
	Cost int `env:"COST" envDefault:"12"`
}

// CORS contains the allowed browser origins.
type CORS struct {
	Origins []string `env:"ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// GitHub contains optional OAuth app credentials. Sign-in with GitHub is
// enabled only when both the client id and secret are set.
type GitHub struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads envFile (if present) and parses the environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// godotenv never overrides variables already set in the environment.
		_ = godotenv.Load(envFile)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.Bcrypt.Cost < 4 || c.Bcrypt.Cost > 31 {
		return fmt.Errorf("config: BCRYPT_COST %d out of range [4,31]", c.Bcrypt.Cost)
	}
	return nil
}

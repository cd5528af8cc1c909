package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	FHIRBaseURL        string   `mapstructure:"FHIR_BASE_URL"`
	FHIRTimeoutSeconds int      `mapstructure:"FHIR_TIMEOUT_SECONDS"`
	AuthSecret         string   `mapstructure:"AUTH_SECRET"`
	AuthUsername       string   `mapstructure:"AUTH_USERNAME"`
	AuthPassword       string   `mapstructure:"AUTH_PASSWORD"`
	TokenTTLMinutes    int      `mapstructure:"TOKEN_TTL_MINUTES"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("FHIR_BASE_URL", "https://hapi.fhir.org/baseR5")
	v.SetDefault("FHIR_TIMEOUT_SECONDS", 30)
	v.SetDefault("AUTH_USERNAME", "testuser")
	v.SetDefault("AUTH_PASSWORD", "testpassword")
	v.SetDefault("TOKEN_TTL_MINUTES", 60)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("FHIR_BASE_URL")
	v.BindEnv("FHIR_TIMEOUT_SECONDS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("AUTH_USERNAME")
	v.BindEnv("AUTH_PASSWORD")
	v.BindEnv("TOKEN_TTL_MINUTES")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// FHIRTimeout returns the upstream request timeout as a duration.
func (c *Config) FHIRTimeout() time.Duration {
	return time.Duration(c.FHIRTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// Validate checks that the configuration is safe to run. Outside development
// a real AUTH_SECRET must be configured so tokens cannot be forged, and the
// default credential pair is refused.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.AuthSecret == "" {
			return fmt.Errorf("AUTH_SECRET is required when ENV is not development")
		}
		if c.AuthPassword == "testpassword" {
			return fmt.Errorf("AUTH_PASSWORD must be changed from its development default (current ENV=%q)", c.Env)
		}
	}
	if c.FHIRBaseURL == "" {
		return fmt.Errorf("FHIR_BASE_URL is required")
	}
	return nil
}

// Package config provides configuration management for the overpass
// prediction service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from
// environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	ESA      ESAConfig      `envPrefix:"ESA_"`
	Weather  WeatherConfig  `envPrefix:"WEATHER_"`
	Plan     PlanConfig     `envPrefix:"PLAN_"`
	Sampling SamplingConfig `envPrefix:"SAMPLING_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// CacheConfig locates the local manifest cache.
type CacheConfig struct {
	Dir string `env:"DIR" envDefault:"./scratch"`
}

// ESAConfig contains acquisition-plan source configuration.
type ESAConfig struct {
	SiteBaseURL string        `env:"SITE_BASE_URL" envDefault:"https://sentinels.copernicus.eu"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// WeatherConfig contains weather provider client configuration.
type WeatherConfig struct {
	ForecastURL string        `env:"FORECAST_URL" envDefault:"https://api.open-meteo.com/v1/forecast"`
	ArchiveURL  string        `env:"ARCHIVE_URL" envDefault:"https://archive-api.open-meteo.com/v1/archive"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
	Workers     int           `env:"WORKERS" envDefault:"4"`
	BatchSize   int           `env:"BATCH_SIZE" envDefault:"20"`
	RatePerSec  float64       `env:"RATE_PER_SEC" envDefault:"3"`
}

// PlanConfig controls acquisition-plan assembly.
type PlanConfig struct {
	// LookbackDays restricts merged plans to acquisitions no older than
	// this many days.
	LookbackDays float64 `env:"LOOKBACK_DAYS" envDefault:"5"`
	// RefreshInterval is how long a merged plan is served from memory
	// before being rebuilt from the upstream manifests.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1h"`
}

// SamplingConfig controls the cloudiness sampling policy.
type SamplingConfig struct {
	NearHorizon time.Duration `env:"NEAR_HORIZON" envDefault:"96h"`
	FarHorizon  time.Duration `env:"FAR_HORIZON" envDefault:"336h"`
	NearSamples int           `env:"NEAR_SAMPLES" envDefault:"210"`
	FarSamples  int           `env:"FAR_SAMPLES" envDefault:"60"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Cache.Dir == "" {
		return fmt.Errorf("cache directory is required")
	}

	if c.ESA.SiteBaseURL == "" {
		return fmt.Errorf("ESA site base URL is required")
	}

	if c.Weather.ForecastURL == "" || c.Weather.ArchiveURL == "" {
		return fmt.Errorf("weather forecast and archive URLs are required")
	}

	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("weather timeout must be positive, got %s", c.Weather.Timeout)
	}

	if c.Weather.Workers < 1 {
		return fmt.Errorf("weather workers must be at least 1, got %d", c.Weather.Workers)
	}

	if c.Weather.BatchSize < 1 {
		return fmt.Errorf("weather batch size must be at least 1, got %d", c.Weather.BatchSize)
	}

	if c.Weather.RatePerSec <= 0 {
		return fmt.Errorf("weather rate must be positive, got %g", c.Weather.RatePerSec)
	}

	if c.Plan.LookbackDays < 0 {
		return fmt.Errorf("plan lookback days must not be negative, got %g", c.Plan.LookbackDays)
	}

	if c.Sampling.FarHorizon < c.Sampling.NearHorizon {
		return fmt.Errorf("sampling far horizon (%s) must be >= near horizon (%s)",
			c.Sampling.FarHorizon, c.Sampling.NearHorizon)
	}

	if c.Sampling.NearSamples < 1 || c.Sampling.FarSamples < 1 {
		return fmt.Errorf("sample counts must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Lookback returns the plan lookback window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Plan.LookbackDays * float64(24*time.Hour))
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

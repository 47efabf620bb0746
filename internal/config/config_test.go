package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Dir != "./scratch" {
		t.Errorf("Cache.Dir = %q, want ./scratch", cfg.Cache.Dir)
	}
	if cfg.ESA.SiteBaseURL != "https://sentinels.copernicus.eu" {
		t.Errorf("ESA.SiteBaseURL = %q", cfg.ESA.SiteBaseURL)
	}
	if cfg.Weather.Workers != 4 || cfg.Weather.BatchSize != 20 || cfg.Weather.RatePerSec != 3 {
		t.Errorf("weather limits = %d/%d/%g, want 4/20/3",
			cfg.Weather.Workers, cfg.Weather.BatchSize, cfg.Weather.RatePerSec)
	}
	if cfg.Plan.LookbackDays != 5 {
		t.Errorf("Plan.LookbackDays = %g, want 5", cfg.Plan.LookbackDays)
	}
	if cfg.Sampling.NearSamples != 210 || cfg.Sampling.FarSamples != 60 {
		t.Errorf("samples = %d/%d, want 210/60", cfg.Sampling.NearSamples, cfg.Sampling.FarSamples)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CACHE_DIR", "/var/cache/nextpass")
	t.Setenv("WEATHER_WORKERS", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Cache.Dir != "/var/cache/nextpass" {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Weather.Workers != 8 {
		t.Errorf("Weather.Workers = %d, want 8", cfg.Weather.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"no cache dir", func(c *Config) { c.Cache.Dir = "" }},
		{"no site base", func(c *Config) { c.ESA.SiteBaseURL = "" }},
		{"no weather urls", func(c *Config) { c.Weather.ForecastURL = "" }},
		{"zero workers", func(c *Config) { c.Weather.Workers = 0 }},
		{"zero batch", func(c *Config) { c.Weather.BatchSize = 0 }},
		{"zero rate", func(c *Config) { c.Weather.RatePerSec = 0 }},
		{"negative lookback", func(c *Config) { c.Plan.LookbackDays = -1 }},
		{"far before near", func(c *Config) { c.Sampling.FarHorizon = time.Hour; c.Sampling.NearHorizon = 2 * time.Hour }},
		{"zero samples", func(c *Config) { c.Sampling.NearSamples = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLookback(t *testing.T) {
	cfg := &Config{}
	cfg.Plan.LookbackDays = 2.5
	if got := cfg.Lookback(); got != 60*time.Hour {
		t.Errorf("Lookback() = %v, want 60h", got)
	}
}

func TestAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9090}
	if got := s.Address(); got != "127.0.0.1:9090" {
		t.Errorf("Address() = %q, want 127.0.0.1:9090", got)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		Bind    string `yaml:"bind"`
		Profile bool   `yaml:"profile"`
		// PublicURL is the base used for join links in room QR codes.
		PublicURL string `yaml:"publicUrl"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Content struct {
		Path         string `yaml:"path"`
		TTL          string `yaml:"ttl"`
		DefaultCount int    `yaml:"defaultCount"`
	} `yaml:"content"`
	Race struct {
		AutoAdvance string `yaml:"autoAdvance"`
	} `yaml:"race"`
	WS struct {
		RateLimit    float64 `yaml:"rateLimit"`
		Burst        int     `yaml:"burst"`
		PingInterval string  `yaml:"pingInterval"`
	} `yaml:"ws"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Bind = "0.0.0.0"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.Content.DefaultCount = 5
	cfg.WS.RateLimit = 20
	cfg.WS.Burst = 40
	cfg.WS.PingInterval = "30s"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error so the service can run from flags and environment alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Content.DefaultCount < 0 {
		return fmt.Errorf("content.defaultCount must not be negative: %d", c.Content.DefaultCount)
	}
	if c.WS.RateLimit < 0 || c.WS.Burst < 0 {
		return errors.New("ws.rateLimit and ws.burst must not be negative")
	}
	durations := map[string]string{
		"redis.ttl":        c.Redis.TTL,
		"content.ttl":      c.Content.TTL,
		"race.autoAdvance": c.Race.AutoAdvance,
		"ws.pingInterval":  c.WS.PingInterval,
	}
	for key, raw := range durations {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative: %s", key, raw)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

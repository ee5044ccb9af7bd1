package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Leaderboard backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Source struct {
		BaseURL  string `yaml:"base_url"`
		UseToken bool   `yaml:"use_token"`
	} `yaml:"source"`
	Quiz struct {
		TimeLimit      int    `yaml:"time_limit"`
		RevealHold     string `yaml:"reveal_hold"`
		ExitTransition string `yaml:"exit_transition"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		Key     string `yaml:"key"`
	} `yaml:"leaderboard"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Source.BaseURL = "https://opentdb.com"
	cfg.Source.UseToken = true
	cfg.Quiz.TimeLimit = 30
	cfg.Quiz.RevealHold = "1500ms"
	cfg.Quiz.ExitTransition = "450ms"
	cfg.Leaderboard.Backend = BackendFile
	cfg.Leaderboard.Dir = defaultDataDir()
	cfg.Leaderboard.Key = "quizHighScores"
	cfg.Redis.Prefix = "trivia"
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIVIA_SOURCE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("TRIVIA_LEADERBOARD_BACKEND"); v != "" {
		cfg.Leaderboard.Backend = v
	}
	if v := os.Getenv("TRIVIA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TRIVIA_POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
}

func (c Config) validate() error {
	switch c.Leaderboard.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("leaderboard backend %q needs redis.addr", c.Leaderboard.Backend)
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("leaderboard backend %q needs postgres.url", c.Leaderboard.Backend)
		}
	default:
		return fmt.Errorf("unknown leaderboard backend %q", c.Leaderboard.Backend)
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trivia-quiz"
	}
	return filepath.Join(home, ".trivia-quiz")
}

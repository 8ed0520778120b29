// Package config loads the bonjourarcade tool configuration.
//
// The config file is JSON or YAML (strict: unknown fields are rejected).
// Every field has a working default matching the site repository layout,
// so running without a config file is fine. Secrets never live in the
// file; they are bound from the process environment at startup.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Site    SiteConfig    `json:"site"`
	Paths   PathsConfig   `json:"paths"`
	Mail    MailConfig    `json:"mail"`
	Logging LoggingConfig `json:"logging"`
	Journal JournalConfig `json:"journal,omitempty"`
	Serve   ServeConfig   `json:"serve,omitempty"`
}

// SiteConfig holds the public URL bases announcements link to.
type SiteConfig struct {
	BaseURL        string `json:"base_url,omitempty"`
	PlayBaseURL    string `json:"play_base_url,omitempty"`
	LeaderboardURL string `json:"leaderboard_url,omitempty"`
	PlinkoBaseURL  string `json:"plinko_base_url,omitempty"`
}

type PathsConfig struct {
	Predictions string `json:"predictions,omitempty"`
	Gamelist    string `json:"gamelist,omitempty"`
	GamesDir    string `json:"games_dir,omitempty"`
	WebhookMap  string `json:"webhook_map,omitempty"`
}

type MailConfig struct {
	APIURL string `json:"api_url,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console *bool             `json:"console,omitempty"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// JournalConfig configures the optional write-only send journal.
// Driver "" or "none" disables it.
type JournalConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

type ServeConfig struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string `json:"schedule,omitempty"`
	// Timezone for the cron schedule; empty means local time.
	Timezone string `json:"timezone,omitempty"`
}

// Default returns the configuration matching the site repository layout
// and the production URL scheme.
func Default() *Config {
	console := true
	return &Config{
		Site: SiteConfig{
			BaseURL:        "https://bonjourarcade-f11f7f.gitlab.io",
			PlayBaseURL:    "https://felx.cc/b",
			LeaderboardURL: "https://alloarcade.web.app/leaderboards",
			PlinkoBaseURL:  "https://felx.cc/plinko",
		},
		Paths: PathsConfig{
			Predictions: "public/plinko/predict/predictions.yaml",
			Gamelist:    "public/gamelist.json",
			GamesDir:    "public/games",
			WebhookMap:  "webhook_map.json",
		},
		Mail: MailConfig{
			APIURL: "https://api.convertkit.com/v3",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: &console,
		},
		Serve: ServeConfig{
			Schedule: "0 9 * * 1",
		},
	}
}

// Load reads the config file at path, overlaying it on Default(). An
// empty path or a missing file yields the defaults: the tool is expected
// to run from the site repository without any config of its own.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if err := DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// ConsoleEnabled resolves the console tristate (default on).
func (l LoggingConfig) ConsoleEnabled() bool {
	return l.Console == nil || *l.Console
}

// Secrets are bound from the environment, never from the config file.
// Channel webhook URLs are not here: the channel map names one variable
// per channel and those resolve at dispatch time.
type Secrets struct {
	ConvertKitAPISecret string `env:"CONVERTKIT_API_SECRET"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
}

func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

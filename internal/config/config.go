// Package config loads journal settings from an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/llm"
	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/profiling"
	"github.com/sumalravindran/My-journal-new/internal/retry"
)

// DefaultFile is read from the working directory when JOURNAL_CONFIG is unset
const DefaultFile = "journal.yaml"

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	// StoreMemory keeps records in process only; nothing survives exit
	StoreMemory = "memory"
)

type Config struct {
	StatePath     string              `yaml:"state_path"`
	Store         string              `yaml:"store"`
	Timezone      string              `yaml:"timezone"`
	Profile       string              `yaml:"profile"`
	Model         ModelConfig         `yaml:"model"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	Retry         RetryConfig         `yaml:"retry"`
	Discord       DiscordConfig       `yaml:"discord"`
}

type ModelConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`
}

type ConsolidationConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	LeaveTimeout    time.Duration `yaml:"leave_timeout"`
	ContextMessages int           `yaml:"context_messages"`
}

type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	RateLimitBase time.Duration `yaml:"rate_limit_base"`
	OverloadBase  time.Duration `yaml:"overload_base"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
	// OwnerID, when set, is the only user whose messages are journaled
	OwnerID string `yaml:"owner_id"`
	// Channels maps a stream id to the Discord channel feeding it
	Channels map[string]string `yaml:"channels"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		StatePath: "state",
		Store:     StoreJSON,
		Model: ModelConfig{
			BaseURL:  llm.DefaultBaseURL,
			Primary:  "gemini-2.5-flash",
			Fallback: "gemini-2.0-flash",
		},
		Consolidation: ConsolidationConfig{
			Debounce:        2 * time.Second,
			LeaveTimeout:    10 * time.Second,
			ContextMessages: 20,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			RateLimitBase: 2 * time.Second,
			OverloadBase:  1 * time.Second,
		},
		Discord: DiscordConfig{Channels: map[string]string{}},
	}
}

// Load builds the configuration. path may be empty: JOURNAL_CONFIG is used,
// then DefaultFile if it exists.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("config", "loaded .env file")
	}

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("JOURNAL_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return Config{}, err
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	logging.Debug("config", "loaded %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.StatePath, "STATE_PATH")
	setString(&c.Store, "JOURNAL_STORE")
	setString(&c.Timezone, "JOURNAL_TIMEZONE")
	setString(&c.Profile, "JOURNAL_PROFILE")
	setString(&c.Model.APIKey, "GEMINI_API_KEY")
	setString(&c.Model.BaseURL, "LLM_BASE_URL")
	setString(&c.Model.Primary, "JOURNAL_MODEL")
	setString(&c.Model.Fallback, "JOURNAL_FALLBACK_MODEL")
	setString(&c.Discord.Token, "DISCORD_TOKEN")
	setString(&c.Discord.OwnerID, "DISCORD_OWNER_ID")

	if c.Discord.Channels == nil {
		c.Discord.Channels = map[string]string{}
	}
	if v := getenv("DISCORD_PERSONAL_CHANNEL_ID"); v != "" {
		c.Discord.Channels[string(chat.StreamPersonal)] = v
	}
	if v := getenv("DISCORD_PROFESSIONAL_CHANNEL_ID"); v != "" {
		c.Discord.Channels[string(chat.StreamProfessional)] = v
	}

	if err := setDuration(&c.Consolidation.Debounce, "JOURNAL_DEBOUNCE"); err != nil {
		return err
	}
	if err := setDuration(&c.Consolidation.LeaveTimeout, "JOURNAL_LEAVE_TIMEOUT"); err != nil {
		return err
	}
	if err := setInt(&c.Consolidation.ContextMessages, "JOURNAL_CONTEXT_MESSAGES"); err != nil {
		return err
	}
	if err := setInt(&c.Retry.MaxAttempts, "JOURNAL_RETRY_ATTEMPTS"); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the services cannot run with
func (c Config) Validate() error {
	if strings.TrimSpace(c.StatePath) == "" {
		return fmt.Errorf("state_path must not be empty")
	}
	switch c.Store {
	case StoreJSON, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q (want %s, %s or %s)", c.Store, StoreJSON, StoreSQLite, StoreMemory)
	}
	if c.Model.Primary == "" {
		return fmt.Errorf("model.primary must not be empty")
	}
	if c.Consolidation.Debounce <= 0 {
		return fmt.Errorf("consolidation.debounce must be positive, got %v", c.Consolidation.Debounce)
	}
	if c.Consolidation.LeaveTimeout <= 0 {
		return fmt.Errorf("consolidation.leave_timeout must be positive, got %v", c.Consolidation.LeaveTimeout)
	}
	if c.Consolidation.ContextMessages < 0 {
		return fmt.Errorf("consolidation.context_messages must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.RateLimitBase <= 0 || c.Retry.OverloadBase <= 0 {
		return fmt.Errorf("retry base delays must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := profiling.ParseLevel(c.Profile); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey fails when no model API key is configured
func (c Config) RequireAPIKey() error {
	if c.Model.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable required")
	}
	return nil
}

// RetryPolicy converts the retry settings
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.Retry.MaxAttempts
	p.RateLimitBase = c.Retry.RateLimitBase
	p.OverloadBase = c.Retry.OverloadBase
	return p
}

// Location returns the zone for model dates without an offset
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ProfilePath is the stage timing log
func (c Config) ProfilePath() string {
	return filepath.Join(c.SystemDir(), "profile.jsonl")
}

// SystemDir is where databases and logs live
func (c Config) SystemDir() string {
	return filepath.Join(c.StatePath, "system")
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

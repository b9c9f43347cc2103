package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	Dedup      Dedup      `yaml:"dedup"`
	History    History    `yaml:"history"`
	Classifier Classifier `yaml:"classifier"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	Feeds    []Feed     `yaml:"feeds"`
	Searches []Search   `yaml:"searches"`
	APIs     APIsConfig `yaml:"apis"`
}

type Feed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Quota    int    `yaml:"quota"`
}

// Search is a query-templated feed endpoint (e.g. a Google News RSS search).
// The template must contain a single %s that receives the URL-escaped query.
type Search struct {
	URLTemplate string `yaml:"url_template"`
	Query       string `yaml:"query"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Quota       int    `yaml:"quota"`
}

type APIsConfig struct {
	HackerNews  HackerNewsConfig  `yaml:"hackernews"`
	GitHub      GitHubConfig      `yaml:"github"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
}

type HackerNewsConfig struct {
	Enabled  bool `yaml:"enabled"`
	Quota    int  `yaml:"quota"`
	MinScore int  `yaml:"min_score"`
}

type GitHubConfig struct {
	Enabled bool   `yaml:"enabled"`
	Quota   int    `yaml:"quota"`
	Query   string `yaml:"query"`
}

type HuggingFaceConfig struct {
	Enabled bool `yaml:"enabled"`
	Quota   int  `yaml:"quota"`
}

type Scheduler struct {
	MaxConcurrent     int  `yaml:"max_concurrent"`
	MaxPerHost        int  `yaml:"max_per_host"`
	RequestTimeoutSec int  `yaml:"request_timeout_sec"`
	TotalTimeoutSec   int  `yaml:"total_timeout_sec"`
	MaxRetries        int  `yaml:"max_retries"`
	RetryDelayMS      int  `yaml:"retry_delay_ms"`
	PrefilterEnabled  bool `yaml:"prefilter_enabled"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (s Scheduler) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

// TotalTimeout returns the whole-batch deadline as a duration.
func (s Scheduler) TotalTimeout() time.Duration {
	return time.Duration(s.TotalTimeoutSec) * time.Second
}

// RetryDelay returns the base retry delay as a duration.
func (s Scheduler) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMS) * time.Millisecond
}

type Dedup struct {
	TokenThreshold  float64 `yaml:"token_threshold"`
	StringThreshold float64 `yaml:"string_threshold"`
	RecentWindow    int     `yaml:"recent_window"`
}

type History struct {
	MaxSize int `yaml:"max_size"`
	TTLDays int `yaml:"ttl_days"`
}

type Classifier struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	OpenAIModel  string `yaml:"openai_model"`
	APIKeyEnv    string `yaml:"api_key_env"`
	MaxTokens    int    `yaml:"max_tokens"`
	CacheEnabled bool   `yaml:"cache_enabled"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for aiscout.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "aiscout")
}

// DataDir returns the XDG data directory for aiscout.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "aiscout")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/aiscout/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'aiscout init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Scheduler: Scheduler{
			MaxConcurrent:     20,
			MaxPerHost:        3,
			RequestTimeoutSec: 15,
			TotalTimeoutSec:   120,
			MaxRetries:        2,
			RetryDelayMS:      1000,
			PrefilterEnabled:  true,
		},
		Dedup: Dedup{
			TokenThreshold:  0.6,
			StringThreshold: 0.85,
			RecentWindow:    200,
		},
		History: History{
			MaxSize: 5000,
			TTLDays: 7,
		},
		Classifier: Classifier{
			Provider:     "ollama",
			Model:        "qwen2.5:7b",
			OllamaURL:    "http://localhost:11434",
			OpenAIModel:  "gpt-4o-mini",
			APIKeyEnv:    "OPENAI_API_KEY",
			MaxTokens:    512,
			CacheEnabled: true,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Scheduler.MaxConcurrent < 1 {
		return fmt.Errorf("scheduler.max_concurrent must be >= 1")
	}
	if c.Scheduler.MaxPerHost < 1 {
		return fmt.Errorf("scheduler.max_per_host must be >= 1")
	}
	if c.Dedup.TokenThreshold <= 0 || c.Dedup.TokenThreshold > 1 {
		return fmt.Errorf("dedup.token_threshold must be in (0, 1]")
	}
	if c.Dedup.StringThreshold <= 0 || c.Dedup.StringThreshold > 1 {
		return fmt.Errorf("dedup.string_threshold must be in (0, 1]")
	}
	if c.History.MaxSize < 10 {
		return fmt.Errorf("history.max_size must be >= 10")
	}
	for _, s := range c.Sources.Searches {
		if s.URLTemplate == "" || s.Query == "" {
			return fmt.Errorf("search source %q needs url_template and query", s.Name)
		}
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

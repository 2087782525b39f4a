package config

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const (
	ProviderNewsAPI = "newsapi"
	ProviderRSS     = "rss"

	apiKeyEnv = "NEWSDESK_API_KEY"
)

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type NewsAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Query   string `yaml:"query,omitempty"`
	SortBy  string `yaml:"sort_by,omitempty"`
}

type Config struct {
	Provider    string        `yaml:"provider"`
	PageSize    int           `yaml:"page_size,omitempty"`
	Timeout     string        `yaml:"timeout,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
	SessionPath string        `yaml:"session_path,omitempty"`
	NewsAPI     NewsAPIConfig `yaml:"newsapi"`
	Sources     []Source      `yaml:"sources"`
}

// APIKey returns the configured key, falling back to NEWSDESK_API_KEY.
func (c *Config) APIKey() string {
	if c.NewsAPI.APIKey != "" {
		return c.NewsAPI.APIKey
	}
	return os.Getenv(apiKeyEnv)
}

func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetPageSize returns the list page size, defaulting to 20.
func (c *Config) GetPageSize() int {
	if c.PageSize <= 0 {
		return 20
	}
	return c.PageSize
}

// SlogLevel parses log_level. Unknown values are an error; empty means info.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// SessionDBPath returns session_path or the XDG data location.
func (c *Config) SessionDBPath() string {
	if c.SessionPath != "" {
		return c.SessionPath
	}
	return filepath.Join(xdg.DataHome, "newsdesk", "session.db")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsdesk", "config.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: embedded defaults still apply.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg, defaults)
	mergeDefaultSources(&cfg, defaults)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg, defaults *Config) {
	if cfg.Provider == "" {
		cfg.Provider = defaults.Provider
	}
	if cfg.NewsAPI.BaseURL == "" {
		cfg.NewsAPI.BaseURL = defaults.NewsAPI.BaseURL
	}
	if cfg.NewsAPI.Query == "" {
		cfg.NewsAPI.Query = defaults.NewsAPI.Query
	}
	if cfg.NewsAPI.SortBy == "" {
		cfg.NewsAPI.SortBy = defaults.NewsAPI.SortBy
	}
}

// mergeDefaultSources appends default sources the user config lacks and
// refreshes the URL and type of sources that share a name with a default.
func mergeDefaultSources(cfg, defaults *Config) {
	index := make(map[string]int, len(cfg.Sources))
	for i, s := range cfg.Sources {
		index[s.Name] = i
	}
	for _, d := range defaults.Sources {
		if i, ok := index[d.Name]; ok {
			cfg.Sources[i].URL = d.URL
			cfg.Sources[i].Type = d.Type
			continue
		}
		cfg.Sources = append(cfg.Sources, d)
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	switch cfg.Provider {
	case ProviderNewsAPI, ProviderRSS:
	default:
		return fmt.Errorf("unknown provider %q (valid: newsapi, rss)", cfg.Provider)
	}
	if err := httpURL(cfg.NewsAPI.BaseURL); err != nil {
		return fmt.Errorf("newsapi base_url: %w", err)
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return err
	}

	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		if err := httpURL(s.URL); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}
	if cfg.Provider == ProviderRSS && len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("provider rss requires at least one enabled source")
	}
	return nil
}

func httpURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

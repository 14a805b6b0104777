package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version     int               `toml:"version"`
	Browser     BrowserConfig     `toml:"browser"`
	Site        SiteConfig        `toml:"site"`
	Search      SearchConfig      `toml:"search"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Accounts    []AccountConfig   `toml:"accounts"`
	Jobs        []JobConfig       `toml:"jobs"`
}

type BrowserConfig struct {
	Headless       bool   `toml:"headless"`
	Debug          bool   `toml:"debug"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	ExecPath       string `toml:"exec_path"`
}

type SiteConfig struct {
	BaseURL   string `toml:"base_url"`
	MobileURL string `toml:"mobile_url"`
}

type SearchConfig struct {
	DefaultCount      int     `toml:"default_count"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type ConcurrencyConfig struct {
	MaxSessions int `toml:"max_sessions"`
}

// AccountConfig describes one login. The password is never stored in the
// config file; it is read from PasswordEnv when a credential login is needed.
type AccountConfig struct {
	Name        string `toml:"name"`
	Username    string `toml:"username"`
	PasswordEnv string `toml:"password_env"`
	CookieFile  string `toml:"cookie_file"`
}

// JobConfig is a scheduled action.
type JobConfig struct {
	Name       string   `toml:"name"`
	Schedule   string   `toml:"schedule"` // cron format: "0 9 * * *"
	Timezone   string   `toml:"timezone"`
	Action     string   `toml:"action"` // tweet, favorite, retweet, follow, unfollow, search
	Text       string   `toml:"text"`
	TweetID    int64    `toml:"tweet_id"`
	UserID     string   `toml:"user_id"`
	ScreenName string   `toml:"screen_name"`
	Query      string   `toml:"query"`
	Count      int      `toml:"count"`
	Accounts   []string `toml:"accounts"` // empty means every account
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Browser: BrowserConfig{
			Headless:       true,
			TimeoutSeconds: 10,
		},
		Site: SiteConfig{
			BaseURL:   "https://twitter.com",
			MobileURL: "https://mobile.twitter.com",
		},
		Search: SearchConfig{
			DefaultCount:      200,
			RequestsPerSecond: 1,
		},
		Concurrency: ConcurrencyConfig{
			MaxSessions: 2,
		},
		Accounts: []AccountConfig{},
		Jobs:     []JobConfig{},
	}
}

// Timeout returns the per-wait timeout.
func (b BrowserConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Account returns the account with the given name. An empty name selects
// the first account.
func (c *Config) Account(name string) (AccountConfig, error) {
	if len(c.Accounts) == 0 {
		return AccountConfig{}, fmt.Errorf("no accounts configured")
	}
	if name == "" {
		return c.Accounts[0], nil
	}
	for _, a := range c.Accounts {
		if a.Name == name {
			return a, nil
		}
	}
	return AccountConfig{}, fmt.Errorf("unknown account %q", name)
}

// Validate checks fields that cannot be defaulted.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts[%d]: name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("accounts[%d]: duplicate name %q", i, a.Name)
		}
		seen[a.Name] = true
	}
	for i, j := range c.Jobs {
		if j.Name == "" || j.Schedule == "" {
			return fmt.Errorf("jobs[%d]: name and schedule are required", i)
		}
		for _, name := range j.Accounts {
			if !seen[name] {
				return fmt.Errorf("job %q: unknown account %q", j.Name, name)
			}
		}
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "twium"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "twium"), nil
}

// CookiePath returns where an account's cookies are kept, honoring an
// explicit cookie_file.
func CookiePath(a AccountConfig) (string, error) {
	if a.CookieFile != "" {
		return a.CookieFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cookies", a.Name+".json"), nil
}

// HistoryDBPath returns the path of the action history database
func HistoryDBPath() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Missing keys keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

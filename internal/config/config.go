package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Backend  Backend  `yaml:"backend"`
	Timeouts Timeouts `yaml:"timeouts"`
	Storage  Storage  `yaml:"storage"`
	Session  Session  `yaml:"session"`
	Export   Export   `yaml:"export"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Backend struct {
	BaseURL string `yaml:"base_url"`
}

// Timeouts holds the per-operation deadlines. Each must stay above the
// backend's own budget for the same operation.
type Timeouts struct {
	Chat     time.Duration `yaml:"chat"`
	Generate time.Duration `yaml:"generate"`
	Refine   time.Duration `yaml:"refine"`
	Export   time.Duration `yaml:"export"`
	Default  time.Duration `yaml:"default"`
	Health   time.Duration `yaml:"health"`
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

type Session struct {
	ID string `yaml:"id"`
}

type Export struct {
	Dir string `yaml:"dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConfigDir returns the XDG config directory for litreview.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "litreview")
}

// DataDir returns the XDG data directory for litreview.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "litreview")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/litreview/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'litreview init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
func Default() *Config {
	cfg := defaults()
	cfg.applyEnv(os.Getenv)
	return cfg
}

func defaults() *Config {
	return &Config{
		Backend: Backend{BaseURL: "http://localhost:8000"},
		Timeouts: Timeouts{
			Chat:     125 * time.Second,
			Generate: 180 * time.Second,
			Refine:   130 * time.Second,
			Export:   130 * time.Second,
			Default:  30 * time.Second,
			Health:   5 * time.Second,
		},
		Server:  Server{Port: 8090},
		Logging: Logging{Level: "info"},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"chat":     c.Timeouts.Chat,
		"generate": c.Timeouts.Generate,
		"refine":   c.Timeouts.Refine,
		"export":   c.Timeouts.Export,
		"default":  c.Timeouts.Default,
		"health":   c.Timeouts.Health,
	} {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// applyEnv lets LITREVIEW_* variables override file settings.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("LITREVIEW_BASE_URL")); v != "" {
		c.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("LITREVIEW_SESSION")); v != "" {
		c.Session.ID = v
	}
	if v := strings.TrimSpace(getenv("LITREVIEW_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// GetSessionID returns the session scope for this terminal. Without an
// explicit id, the parent process (the user's shell) identifies the session.
func (c *Config) GetSessionID() string {
	if c.Session.ID != "" {
		return c.Session.ID
	}
	return fmt.Sprintf("ppid-%d", os.Getppid())
}

// GetExportDir returns the directory exported drafts are written to.
func (c *Config) GetExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return "."
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/heartbeat/internal/dataset"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrNoConfig is returned by ResolveConfigPath when no file was found.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	Data     Data             `yaml:"data"`
	Model    Model            `yaml:"model"`
	Transmit Transmit         `yaml:"transmit"`
	Server   Server           `yaml:"server"`
	Schedule Schedule         `yaml:"schedule"`
	Logging  Logging          `yaml:"logging"`
	Labels   dataset.LabelMap `yaml:"labels"`
}

type Data struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

type Model struct {
	Seed        int64   `yaml:"seed"`
	TestRatio   float64 `yaml:"test_ratio"`
	TopFeatures int     `yaml:"top_features"`
	MaxIter     int     `yaml:"max_iter"`
	C           float64 `yaml:"c"`
}

type Transmit struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	Delay    time.Duration `yaml:"delay"`
	// Token is only ever read from the environment.
	Token string `yaml:"-"`
}

type Server struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`
}

type Schedule struct {
	Cron string `yaml:"cron"`
}

type Logging struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// envOverlay lists the variables that override file settings.
type envOverlay struct {
	Token    string `env:"ADMIN_TOKEN"`
	Endpoint string `env:"API_INSIGHTS_URL"`
	DataPath string `env:"HEARTBEAT_DATA"`
	LogLevel string `env:"HEARTBEAT_LOG_LEVEL"`
}

// ConfigDir returns the XDG config directory for heartbeat.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "heartbeat")
}

// DataDir returns the XDG data directory for heartbeat.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "heartbeat")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/heartbeat/config.yaml > ./config.yaml
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

	return "", fmt.Errorf("%w; searched:\n  %s\n  ./config.yaml", ErrNoConfig, xdgConfig)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Resolve loads the config named by explicit (or found on the search
// path), falls back to built-in defaults when no file exists, then applies
// .env and environment overrides. The returned path is empty when defaults
// were used.
func Resolve(explicit string) (*Config, string, error) {
	path, err := ResolveConfigPath(explicit)
	var cfg *Config
	switch {
	case err == nil:
		if cfg, err = Load(path); err != nil {
			return nil, "", err
		}
	case explicit == "" && errors.Is(err, ErrNoConfig):
		if cfg, err = parse(nil); err != nil {
			return nil, "", err
		}
	default:
		return nil, "", err
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadDotEnv loads variables from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the config. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var o envOverlay
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	c.Transmit.Token = o.Token
	if o.Endpoint != "" {
		c.Transmit.Endpoint = o.Endpoint
	}
	if o.DataPath != "" {
		c.Data.Path = o.DataPath
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	return nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Data: Data{
			Path:      "Heart_Disease_Prediction.csv",
			Delimiter: ",",
		},
		Model: Model{
			Seed:        42,
			TestRatio:   0.2,
			TopFeatures: 10,
			MaxIter:     1000,
			C:           1.0,
		},
		Transmit: Transmit{
			Endpoint: "http://localhost:5000/api/analytics/insights",
			Timeout:  30 * time.Second,
			Delay:    100 * time.Millisecond,
		},
		Server:   Server{Addr: "127.0.0.1:5000"},
		Schedule: Schedule{Cron: "0 0 6 * * *"},
		Logging:  Logging{Level: "info", Encoding: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if r := []rune(cfg.Data.Delimiter); len(r) != 1 {
		return nil, fmt.Errorf("parsing config: delimiter must be a single character, got %q", cfg.Data.Delimiter)
	}

	return cfg, nil
}

// DelimiterRune returns the configured CSV delimiter.
func (c *Config) DelimiterRune() rune {
	if r := []rune(c.Data.Delimiter); len(r) == 1 {
		return r[0]
	}
	return ','
}

// LabelMap returns the default labels with any configured overrides.
func (c *Config) LabelMap() dataset.LabelMap {
	return dataset.DefaultLabels().Merge(c.Labels)
}

// GetDataDir returns the effective receiver data directory from config or
// XDG default.
func (c *Config) GetDataDir() string {
	if c.Server.DataDir != "" {
		return c.Server.DataDir
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

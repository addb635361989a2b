// Package config loads dashbrief settings from defaults, ~/.dashbrief/config.yaml,
// .env files and DASHBRIEF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey            string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultProvider   string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel      string  `mapstructure:"default_model" yaml:"default_model"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP              float64 `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	HTTPTimeoutSec    int     `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxRows           int     `mapstructure:"max_rows" yaml:"max_rows"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file,omitempty"`
}

const (
	envPrefix = "DASHBRIEF"
	dirName   = ".dashbrief"
)

// apiKeyEnv are consulted, in order, when api_key is not configured.
var apiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "VITE_GEMINI_API_KEY"}

var defaults = map[string]any{
	"api_key":             "",
	"default_provider":    "gemini",
	"default_model":       "gemini-flash-latest",
	"base_url":            "",
	"temperature":         0.7,
	"top_p":               0.9,
	"max_tokens":          4096,
	"http_timeout_sec":    60,
	"requests_per_minute": 0,
	"max_rows":            0,
	"ollama_host":         "http://127.0.0.1:11434",
	"log_level":           "warn",
	"log_file":            "",
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dir returns ~/.dashbrief.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns the config file used when no --config flag is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadDotEnv loads the first .env found in the working directory or ~/.dashbrief.
// Variables already present in the environment are not overridden.
func LoadDotEnv() string {
	paths := []string{".env"}
	if dir, err := Dir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	LoadDotEnv()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if cfgFile != "" && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIKey == "" {
		for _, name := range apiKeyEnv {
			if val := strings.TrimSpace(os.Getenv(name)); val != "" {
				c.APIKey = val
				break
			}
		}
	}
	return &c, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dashbrief/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// the file may hold an API key
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set assigns a single key from its string form.
func (c *Global) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return n, nil
	}
	atof := func(lo, hi float64) (float64, error) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < lo || f > hi {
			return 0, fmt.Errorf("%s must be a number between %g and %g", key, lo, hi)
		}
		return f, nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = value
	case "default_provider":
		c.DefaultProvider = strings.ToLower(value)
	case "default_model":
		c.DefaultModel = value
	case "base_url":
		c.BaseURL = value
	case "temperature":
		c.Temperature, err = atof(0, 2)
	case "top_p":
		c.TopP, err = atof(0, 1)
	case "max_tokens":
		c.MaxTokens, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "requests_per_minute":
		c.RequestsPerMinute, err = atoi()
	case "max_rows":
		c.MaxRows, err = atoi()
	case "ollama_host":
		c.OllamaHost = value
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "log_file":
		c.LogFile = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return err
}

// Redacted returns a copy safe to print.
func (c Global) Redacted() Global {
	if n := len(c.APIKey); n > 8 {
		c.APIKey = c.APIKey[:4] + strings.Repeat("*", n-8) + c.APIKey[n-4:]
	} else if n > 0 {
		c.APIKey = "****"
	}
	return c
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	PageSize    int    `mapstructure:"page_size" yaml:"page_size"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	// Delimiter for CSV input; empty means sniff from the header line.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// Dataset is an optional export loaded when the server starts.
	Dataset string `mapstructure:"dataset" yaml:"dataset"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`
}

// Keys lists the settable configuration keys.
var Keys = []string{"addr", "page_size", "max_upload_mb", "delimiter", "dataset", "log_level", "log_json"}

// DelimiterRune returns the configured CSV delimiter, or 0 to sniff.
// "tab" and "\t" both select a tab.
func (c *Global) DelimiterRune() rune {
	switch d := c.Delimiter; {
	case d == "":
		return 0
	case d == "tab" || d == `\t`:
		return '\t'
	default:
		return []rune(d)[0]
	}
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Global) MaxUploadBytes() int64 {
	mb := c.MaxUploadMB
	if mb <= 0 {
		mb = 32
	}
	return int64(mb) << 20
}

// DefaultPath returns ~/.serpdiff/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".serpdiff", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.serpdiff/config.yaml, creating the directory if necessary.
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
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, environment, config file and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; existing environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SERPDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT is what hosting platforms set; an explicit addr still wins.
	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	v.SetDefault("addr", addr)
	v.SetDefault("page_size", 50)
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("delimiter", "")
	v.SetDefault("dataset", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".serpdiff"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; a missing file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	return &c, nil
}

// Set assigns one key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	switch key {
	case "addr":
		if val == "" {
			return fmt.Errorf("addr must not be empty")
		}
		if !strings.Contains(val, ":") {
			val = ":" + val
		}
		c.Addr = val
	case "page_size":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for page_size: %v", val)
		}
		c.PageSize = i
	case "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for max_upload_mb: %v", val)
		}
		c.MaxUploadMB = i
	case "delimiter":
		if utf8.RuneCountInString(val) > 1 && val != "tab" && val != `\t` {
			return fmt.Errorf("invalid delimiter: %q (use a single character or tab)", val)
		}
		c.Delimiter = val
	case "dataset":
		c.Dataset = val
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use trace, debug, info, warn or error)", val)
		}
	case "log_json":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for log_json: %w", err)
		}
		c.LogJSON = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

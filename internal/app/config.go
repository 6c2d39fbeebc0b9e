package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"omemostore/internal/codec"
)

// PassphraseEnv names the environment variable read when no passphrase file
// is configured.
const PassphraseEnv = "OMEMOSTORE_PASSPHRASE"

const (
	// DefaultRoot holds the account stores unless configured otherwise.
	DefaultRoot = "~/.config/omemostore"

	// LegacyClientRoot is where Telepathy-based clients keep their legacy
	// OMEMO stores.
	LegacyClientRoot = "~/.config/telepathy-nonsense/omemo"
)

// Config holds runtime wiring options for opening account stores.
type Config struct {
	Root   string     `yaml:"root,omitempty"` // directory holding one sub-directory per account
	Format string     `yaml:"format"`         // "framed" or "legacy"
	Lock   bool       `yaml:"lock"`           // take the advisory account lock
	Log    LogConfig  `yaml:"log"`
	Seal   SealConfig `yaml:"seal"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// SealConfig enables encryption of framed record files.
type SealConfig struct {
	Enabled        bool               `yaml:"enabled"`
	PassphraseFile string             `yaml:"passphrase_file,omitempty"`
	Scrypt         codec.ScryptParams `yaml:"scrypt"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Format: codec.FormatFramed.String(),
		Lock:   true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Seal: SealConfig{
			Scrypt: codec.DefaultScryptParams(),
		},
	}
}

// DefaultConfigPath returns ~/.config/omemostore/config.yaml.
func DefaultConfigPath() (string, error) {
	return homedir.Expand(filepath.Join("~", ".config", "omemostore", "config.yaml"))
}

// LoadConfig reads the configuration at path on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadConfigIfExists behaves like LoadConfig but returns the defaults when
// path does not exist.
func LoadConfigIfExists(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// SaveConfig writes cfg to path with owner-only permissions.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// BindFlags registers flags that override the loaded configuration. Call it
// before parsing; parsed values land directly in cfg.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Root, "root", c.Root, "directory holding the account stores (default "+
		DefaultRoot+", or "+LegacyClientRoot+" with --format legacy)")
	fs.StringVar(&c.Format, "format", c.Format, "record file format to write (framed|legacy)")
	fs.BoolVar(&c.Lock, "lock", c.Lock, "lock account directories while they are open")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level (debug|info|warn|error)")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log output (text|json)")
	fs.BoolVar(&c.Seal.Enabled, "seal", c.Seal.Enabled, "encrypt framed record files with a passphrase")
	fs.StringVar(&c.Seal.PassphraseFile, "passphrase-file", c.Seal.PassphraseFile,
		"file holding the sealing passphrase (default $"+PassphraseEnv+")")
}

// Validate checks that the configuration can be used to open stores.
func (c *Config) Validate() error {
	format, err := codec.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Seal.Enabled {
		if format == codec.FormatLegacy {
			return errors.New("config: sealing requires the framed format")
		}
		if err := c.Seal.Scrypt.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// RootDir returns Root with a leading ~ expanded. An empty Root selects
// LegacyClientRoot for the legacy format and DefaultRoot otherwise.
func (c *Config) RootDir() (string, error) {
	root := c.Root
	if root == "" {
		root = DefaultRoot
		if format, err := codec.ParseFormat(c.Format); err == nil && format == codec.FormatLegacy {
			root = LegacyClientRoot
		}
	}
	return homedir.Expand(root)
}

// Passphrase returns the sealing passphrase from the passphrase file, or
// from the environment when no file is configured.
func (c *Config) Passphrase() ([]byte, error) {
	if c.Seal.PassphraseFile != "" {
		path, err := homedir.Expand(c.Seal.PassphraseFile)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading passphrase file: %w", err)
		}
		b = []byte(strings.TrimRight(string(b), "\r\n"))
		if len(b) == 0 {
			return nil, errors.New("passphrase file is empty")
		}
		return b, nil
	}
	if p := os.Getenv(PassphraseEnv); p != "" {
		return []byte(p), nil
	}
	return nil, fmt.Errorf("sealing is enabled but no passphrase file is set and $%s is empty", PassphraseEnv)
}

// NewLogger builds the slog logger described by the log configuration.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return level, nil
}

// ApplyFlags copies the value of every flag that was set on the command line
// in changed onto cfg. changed must hold flags registered by BindFlags.
func (c *Config) ApplyFlags(changed *pflag.FlagSet) error {
	own := pflag.NewFlagSet("config", pflag.ContinueOnError)
	c.BindFlags(own)

	var err error
	changed.Visit(func(f *pflag.Flag) {
		target := own.Lookup(f.Name)
		if target == nil || err != nil {
			return
		}
		if serr := target.Value.Set(f.Value.String()); serr != nil {
			err = fmt.Errorf("flag --%s: %w", f.Name, serr)
		}
	})
	return err
}

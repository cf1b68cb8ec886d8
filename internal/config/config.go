// Package config provides Viper-based configuration loading for the Wordle server.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the TCP listener settings.
type ServerConfig struct {
	// Host is the bind address for the game listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the game listener.
	Port int `mapstructure:"port"`
	// PollInterval is the reactor cadence for accept polling, pre-auth reads,
	// rotation checks, and the shutdown flag.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// WriteTimeout is the per-write timeout on client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds the game-play settings.
type GameConfig struct {
	// WordLifetime is how long a secret word stays current before rotation.
	WordLifetime time.Duration `mapstructure:"word_lifetime"`
	// VocabularyPath is the path to the word-list file (one word per line).
	VocabularyPath string `mapstructure:"vocabulary_path"`
	// SnapshotPath is the path of the JSON state snapshot.
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// MulticastConfig holds the share-notification group settings.
type MulticastConfig struct {
	// Address is the multicast group address for win notifications.
	Address string `mapstructure:"address"`
	// Port is the UDP port of the multicast group.
	Port int `mapstructure:"port"`
}

// Addr returns the "address:port" group address.
func (m MulticastConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Address, m.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	Multicast MulticastConfig `mapstructure:"multicast"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMulticast(c.Multicast); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, "server.poll_interval must be positive")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.WordLifetime < time.Minute {
		errs = append(errs, fmt.Sprintf("game.word_lifetime must be at least 1m, got %s", g.WordLifetime))
	}
	if g.VocabularyPath == "" {
		errs = append(errs, "game.vocabulary_path must not be empty")
	}
	if g.SnapshotPath == "" {
		errs = append(errs, "game.snapshot_path must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMulticast(m MulticastConfig) error {
	var errs []string
	ip := net.ParseIP(m.Address)
	if ip == nil || !ip.IsMulticast() {
		errs = append(errs, fmt.Sprintf("multicast.address must be a multicast IP, got %q", m.Address))
	}
	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, fmt.Sprintf("multicast.port must be 1-65535, got %d", m.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WORDLE_ prefix
	v.SetEnvPrefix("WORDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 6789)
	v.SetDefault("server.poll_interval", "100ms")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("game.word_lifetime", "15m")
	v.SetDefault("game.vocabulary_path", "content/vocabulary.txt")
	v.SetDefault("game.snapshot_path", "dataBackup.json")

	v.SetDefault("multicast.address", "239.255.1.1")
	v.SetDefault("multicast.port", 6790)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/viper"
)

const (
	configName = "wltoplevel"
	envPrefix  = "WLTOPLEVEL"
)

// Config represents the application configuration
type Config struct {
	DBus    DBusConfig    `mapstructure:"dbus"`
	Wayland WaylandConfig `mapstructure:"wayland"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBusConfig controls the exported service
type DBusConfig struct {
	Prefix          string        `mapstructure:"prefix"`      // Service name is <prefix>.<session>
	ObjectPath      string        `mapstructure:"object_path"` // Path of the window list object
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
}

// WaylandConfig controls the compositor connection
type WaylandConfig struct {
	Display         string        `mapstructure:"display"` // Empty means WAYLAND_DISPLAY
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	BatchUntilDone  bool          `mapstructure:"batch_until_done"` // Hold signals until the done event
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		DBus: DBusConfig{
			Prefix:          "lxqt.WindowsList",
			ObjectPath:      "/WindowsList",
			ConnectAttempts: 3,
			RetryDelay:      5 * time.Second,
		},
		Wayland: WaylandConfig{
			Display:         "",
			ConnectAttempts: 3,
			RetryDelay:      time.Second,
			BatchUntilDone:  false,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName(configName)
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		for _, dir := range searchPaths() {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("dbus.prefix", DefaultConfig.DBus.Prefix)
	viper.SetDefault("dbus.object_path", DefaultConfig.DBus.ObjectPath)
	viper.SetDefault("dbus.connect_attempts", DefaultConfig.DBus.ConnectAttempts)
	viper.SetDefault("dbus.retry_delay", DefaultConfig.DBus.RetryDelay)

	viper.SetDefault("wayland.display", DefaultConfig.Wayland.Display)
	viper.SetDefault("wayland.connect_attempts", DefaultConfig.Wayland.ConnectAttempts)
	viper.SetDefault("wayland.retry_delay", DefaultConfig.Wayland.RetryDelay)
	viper.SetDefault("wayland.batch_until_done", DefaultConfig.Wayland.BatchUntilDone)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// searchPaths lists config directories from highest to lowest priority
func searchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, configName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", configName))
	}
	return append(dirs, filepath.Join("/etc", configName), ".")
}

// Validate checks values that would only fail later at runtime
func (c *Config) Validate() error {
	if !dbus.ObjectPath(c.DBus.ObjectPath).IsValid() {
		return fmt.Errorf("dbus.object_path %q is not a valid object path", c.DBus.ObjectPath)
	}
	if c.DBus.Prefix == "" || strings.HasPrefix(c.DBus.Prefix, ".") || strings.HasSuffix(c.DBus.Prefix, ".") {
		return fmt.Errorf("dbus.prefix %q is not a valid bus name prefix", c.DBus.Prefix)
	}
	if c.DBus.ConnectAttempts < 1 {
		return fmt.Errorf("dbus.connect_attempts must be at least 1, got %d", c.DBus.ConnectAttempts)
	}
	if c.Wayland.ConnectAttempts < 1 {
		return fmt.Errorf("wayland.connect_attempts must be at least 1, got %d", c.Wayland.ConnectAttempts)
	}
	if c.DBus.RetryDelay < 0 || c.Wayland.RetryDelay < 0 {
		return errors.New("retry delays cannot be negative")
	}
	return nil
}

// DisplayName returns the configured Wayland display, falling back to
// WAYLAND_DISPLAY
func (c *Config) DisplayName() string {
	if c.Wayland.Display != "" {
		return c.Wayland.Display
	}
	return os.Getenv("WAYLAND_DISPLAY")
}

// Watch rereads the config file when it changes on disk and hands each
// valid result to onChange, on the watcher's goroutine. The config returned
// by Get is left as loaded. It reports whether a file is being watched.
func Watch(onChange func(*Config)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reloaded := &Config{}
		if err := viper.Unmarshal(reloaded); err != nil {
			logger.Warnf("Ignoring unreadable config %s: %v", e.Name, err)
			return
		}
		if err := reloaded.Validate(); err != nil {
			logger.Warnf("Ignoring invalid config %s: %v", e.Name, err)
			return
		}
		onChange(reloaded)
	})
	viper.WatchConfig()
	return true
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		defaults := DefaultConfig
		return &defaults
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.HasPrefix(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	// If override is set, use that
	if configPathOverride != "" {
		return configPathOverride
	}

	// Check if config file is already loaded
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configName, configName+".toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/etc", configName, configName+".toml")
	}
	return filepath.Join(home, ".config", configName, configName+".toml")
}

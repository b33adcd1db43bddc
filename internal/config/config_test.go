package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config location at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	viper.Reset()
	SetConfigPath("")
	t.Cleanup(func() {
		viper.Reset()
		SetConfigPath("")
		Set(nil)
	})
	return dir
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		isolate(t)

		require.NoError(t, Init())

		c := Get()
		assert.Equal(t, "lxqt.WindowsList", c.DBus.Prefix)
		assert.Equal(t, "/WindowsList", c.DBus.ObjectPath)
		assert.Equal(t, 3, c.DBus.ConnectAttempts)
		assert.Equal(t, 5*time.Second, c.DBus.RetryDelay)
		assert.Equal(t, 3, c.Wayland.ConnectAttempts, "an unreachable display is retried")
		assert.Equal(t, time.Second, c.Wayland.RetryDelay)
		assert.False(t, c.Wayland.BatchUntilDone)
	})

	t.Run("reads the XDG config file", func(t *testing.T) {
		dir := isolate(t)
		writeConfig(t, filepath.Join(dir, "wltoplevel", "wltoplevel.toml"), `
[dbus]
prefix = "org.example.Windows"
retry_delay = "250ms"

[wayland]
display = "wayland-9"
batch_until_done = true
`)

		require.NoError(t, Init())

		c := Get()
		assert.Equal(t, "org.example.Windows", c.DBus.Prefix)
		assert.Equal(t, 250*time.Millisecond, c.DBus.RetryDelay)
		assert.Equal(t, 3, c.DBus.ConnectAttempts, "unset keys keep defaults")
		assert.Equal(t, "wayland-9", c.Wayland.Display)
		assert.True(t, c.Wayland.BatchUntilDone)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		isolate(t)
		t.Setenv("WLTOPLEVEL_DBUS_CONNECT_ATTEMPTS", "7")

		require.NoError(t, Init())
		assert.Equal(t, 7, Get().DBus.ConnectAttempts)
	})

	t.Run("handles invalid TOML", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "broken.toml")
		writeConfig(t, path, "[dbus\nprefix = 1")
		SetConfigPath(path)

		assert.Error(t, Init())
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "bad.toml")
		writeConfig(t, path, "[dbus]\nobject_path = \"WindowsList\"\n")
		SetConfigPath(path)

		assert.ErrorContains(t, Init(), "object_path")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero dbus attempts", func(c *Config) { c.DBus.ConnectAttempts = 0 }, true},
		{"zero wayland attempts", func(c *Config) { c.Wayland.ConnectAttempts = 0 }, true},
		{"trailing dot prefix", func(c *Config) { c.DBus.Prefix = "org.example." }, true},
		{"negative delay", func(c *Config) { c.Wayland.RetryDelay = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")

	c := DefaultConfig
	assert.Equal(t, "wayland-1", c.DisplayName())

	c.Wayland.Display = "wayland-5"
	assert.Equal(t, "wayland-5", c.DisplayName())
}

func TestConfigPathResolution(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		isolate(t)
		SetConfigPath("/tmp/custom.toml")
		assert.Equal(t, "/tmp/custom.toml", GetConfigPath())
	})

	t.Run("XDG config home", func(t *testing.T) {
		dir := isolate(t)
		assert.Equal(t, filepath.Join(dir, "wltoplevel", "wltoplevel.toml"), GetConfigPath())
	})

	t.Run("home fallback", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv("XDG_CONFIG_HOME", "")
		assert.Equal(t, filepath.Join(dir, ".config", "wltoplevel", "wltoplevel.toml"), GetConfigPath())
	})
}

func TestSave(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, Init())

	viper.Set("wayland.batch_until_done", true)
	require.NoError(t, Save())

	path := filepath.Join(dir, "wltoplevel", "wltoplevel.toml")
	assert.FileExists(t, path)

	viper.Reset()
	require.NoError(t, Init())
	assert.True(t, Get().Wayland.BatchUntilDone)
}

func TestGetReturnsDefaultsCopy(t *testing.T) {
	Set(nil)
	c := Get()
	c.DBus.Prefix = "changed"
	assert.Equal(t, "lxqt.WindowsList", DefaultConfig.DBus.Prefix)
}

func TestInitMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	SetConfigPath(filepath.Join(dir, "absent.toml"))

	require.NoError(t, Init())
	assert.Equal(t, DefaultConfig.DBus.Prefix, Get().DBus.Prefix)
}

func TestWatchWithoutFile(t *testing.T) {
	isolate(t)
	require.NoError(t, Init())

	called := false
	assert.False(t, Watch(func(*Config) { called = true }))
	assert.False(t, called)
}

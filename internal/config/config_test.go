package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate(t *testing.T) {
	t.Run("Should_write_defaults_when_file_is_missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "instance/todo.sqlite")
	})

	t.Run("Should_keep_defaults_for_omitted_fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("db_path = \"data/tasks.db\"\nlog_json = true\n"), 0o644))

		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, "data/tasks.db", cfg.DBPath)
		assert.True(t, cfg.LogJSON)
		assert.Equal(t, DefaultAddr, cfg.Addr)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "a", cfg.Keys.Add)
	})

	t.Run("Should_read_heading", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("heading = \"Groceries\"\n"), 0o644))

		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, "Groceries", cfg.Heading)
	})

	t.Run("Should_fill_blank_db_path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("db_path = \"\"\n"), 0o644))

		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultDBPath, cfg.DBPath)
	})

	t.Run("Should_let_env_override_db_path", func(t *testing.T) {
		t.Setenv(DBPathEnv, "/tmp/override.sqlite")
		path := filepath.Join(t.TempDir(), "config.toml")

		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/override.sqlite", cfg.DBPath)
	})

	t.Run("Should_fail_on_malformed_toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("db_path = "), 0o644))

		_, err := LoadOrCreate(path)
		require.Error(t, err)
	})
}

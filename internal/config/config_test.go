package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDefaults(t *testing.T) {
	o := NewOptions()
	require.NoError(t, o.Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil))

	assert.Equal(t, ":8000", o.RunAddr())
	assert.Equal(t, "info", o.LogLevel())
	assert.Equal(t, DriverSQLite, o.Driver())
	assert.Equal(t, "fitness_store.db", o.SQLitePath())
	assert.Empty(t, o.RedisAddr())
}

func TestServerEnvAndFlags(t *testing.T) {
	t.Setenv("RUN_ADDRESS", ":9000")
	t.Setenv("DATABASE_URI", "postgres://u:p@db/store")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	o := NewOptions()
	require.NoError(t, o.Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-a", ":7000", "-migrations", "db/migrations"}))

	assert.Equal(t, ":7000", o.RunAddr())
	assert.Equal(t, DriverPostgres, o.Driver())
	assert.Equal(t, "localhost:6379", o.RedisAddr())
	assert.Equal(t, "db/migrations", o.MigrationsDir())

	o = NewOptions()
	require.NoError(t, o.Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-driver", DriverGormPostgres}))
	assert.Equal(t, DriverGormPostgres, o.Driver())
}

func TestConsoleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://store:8000\ntimeout: 3s\nlog_level: debug\n"), 0o600))

	opts, err := ParseConsole(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", path})

	require.NoError(t, err)
	assert.Equal(t, ConsoleOptions{APIURL: "http://store:8000", Timeout: 3 * time.Second, LogLevel: "debug"}, opts)
}

func TestConsolePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://file:8000\n"), 0o600))
	t.Setenv("FITSTORE_API_URL", "http://env:8000")

	opts, err := ParseConsole(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "http://env:8000", opts.APIURL)
	assert.Equal(t, DefaultAPITimeout, opts.Timeout)

	opts, err = ParseConsole(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", path, "-api", "http://flag:8000", "-l", "error"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:8000", opts.APIURL)
	assert.Equal(t, "error", opts.LogLevel)
}

func TestConsoleMissingAndBrokenFile(t *testing.T) {
	opts, err := LoadConsoleFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, opts.APIURL)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unclosed\n"), 0o600))
	_, err = LoadConsoleFile(path)
	assert.Error(t, err)
}

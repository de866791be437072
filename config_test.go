package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{port: 5175, store: storeMemory, logLevel: "info"}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.port = 70000 }, "invalid port"},
		{"unknown store", func(c *Config) { c.store = "redis" }, "unknown store"},
		{"sqlite without path", func(c *Config) { c.store = storeSQLite }, "--sqlite-path"},
		{"sqlite", func(c *Config) { c.store = storeSQLite; c.sqlitePath = "x.db" }, ""},
		{"postgres without url", func(c *Config) { c.store = storePostgres }, "--postgres-url"},
		{"negative review delay", func(c *Config) { c.reviewDelay = -time.Second }, "review delay"},
		{"negative rate limit", func(c *Config) { c.rateLimit = -1 }, "rate limit"},
		{"bad log level", func(c *Config) { c.logLevel = "loud" }, "log level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFlagsFromEnv(t *testing.T) {
	t.Setenv("JUSTONE_PORT", "6000")
	t.Setenv("JUSTONE_STORE", "sqlite")
	t.Setenv("JUSTONE_REVIEW_DELAY", "250ms")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 6000, cfg.port)
	assert.Equal(t, storeSQLite, cfg.store)
	assert.Equal(t, 250*time.Millisecond, cfg.reviewDelay)
	assert.Equal(t, "./data/just-one.db", cfg.sqlitePath)
	assert.Equal(t, "0.0.0.0:6000", cfg.addr())
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("JUSTONE_PORT", "6000")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "7000"}))
	assert.Equal(t, 7000, cfg.port)
}

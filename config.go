package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store backends.
const (
	storeMemory   = "memory"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
)

type Config struct {
	bind           string
	port           int
	store          string
	sqlitePath     string
	postgresURL    string
	wordsFile      string
	reviewDelay    time.Duration
	pollInterval   time.Duration
	requestTimeout time.Duration
	clientOrigin   string
	publicURL      string
	rateLimit      float64
	rateBurst      int
	logLevel       string
	logPretty      bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.store {
	case storeMemory:
	case storeSQLite:
		if c.sqlitePath == "" {
			return errors.New("--sqlite-path is required with --store=sqlite")
		}
	case storePostgres:
		if c.postgresURL == "" {
			return errors.New("--postgres-url is required with --store=postgres")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, sqlite or postgres)", c.store)
	}
	if c.reviewDelay < 0 {
		return fmt.Errorf("review delay must not be negative: %s", c.reviewDelay)
	}
	if c.rateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative: %v", c.rateLimit)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.logLevel)
	}
	return nil
}

// addr is the listen address of the HTTP server.
func (c *Config) addr() string {
	return fmt.Sprintf("%s:%d", c.bind, c.port)
}

// setupLogging configures the global zerolog logger.
func (c *Config) setupLogging() {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(c.logLevel)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.logPretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
}

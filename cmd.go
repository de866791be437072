package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/edi19863/just-one-webparty/internal/coordinator"
	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/httpserver"
	"github.com/edi19863/just-one-webparty/internal/session"
	"github.com/edi19863/just-one-webparty/internal/words"
)

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("JUSTONE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "just-one",
		Short:   "Backend for the Just One party word game.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.setupLogging()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, cfg)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: JUSTONE_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 5175, "port to listen on (env: JUSTONE_PORT)")
	fs.StringVar(&cfg.store, "store", storeMemory, "game store: memory, sqlite or postgres (env: JUSTONE_STORE)")
	fs.StringVar(&cfg.sqlitePath, "sqlite-path", "./data/just-one.db", "sqlite database file (env: JUSTONE_SQLITE_PATH)")
	fs.StringVar(&cfg.postgresURL, "postgres-url", "", "postgres connection string (env: JUSTONE_POSTGRES_URL)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "secret word list, one per line; empty uses the built-in list (env: JUSTONE_WORDS_FILE)")
	fs.DurationVar(&cfg.reviewDelay, "review-delay", time.Second, "pause between the last clue and clue filtering in online games (env: JUSTONE_REVIEW_DELAY)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", coordinator.DefaultPollInterval, "idle time before a live connection re-fetches its game (env: JUSTONE_POLL_INTERVAL)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", 10*time.Second, "upper bound on handling one action (env: JUSTONE_REQUEST_TIMEOUT)")
	fs.StringVar(&cfg.clientOrigin, "client-origin", "http://localhost:5173", "browser origin allowed by CORS and websockets (env: JUSTONE_CLIENT_ORIGIN)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "base URL of join links in QR codes; empty uses the request host (env: JUSTONE_PUBLIC_URL)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 5, "actions per second per client address, 0 disables (env: JUSTONE_RATE_LIMIT)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 10, "burst of actions per client address (env: JUSTONE_RATE_BURST)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level (env: JUSTONE_LOG_LEVEL)")
	fs.BoolVar(&cfg.logPretty, "log-pretty", false, "human-readable console logs (env: JUSTONE_LOG_PRETTY)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newMigrateCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("just-one v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newMigrateCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := migrateStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			log.Info().Str("store", cfg.store).Int64("version", version).Msg("migrations applied")
			return nil
		},
	}
}

func serve(cmd *cobra.Command, cfg *Config) error {
	ctx := cmd.Context()

	bank, err := words.Load(cfg.wordsFile)
	if err != nil {
		return fmt.Errorf("load word list: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := session.New(st, game.NewEngine(bank), session.Options{ReviewDelay: cfg.reviewDelay})
	defer svc.Close()

	srv := httpserver.New(svc, st, bank, httpserver.Options{
		ClientOrigin:   cfg.clientOrigin,
		PublicURL:      cfg.publicURL,
		PollInterval:   cfg.pollInterval,
		RequestTimeout: cfg.requestTimeout,
		RateLimit:      cfg.rateLimit,
		RateBurst:      cfg.rateBurst,
	})

	stats := bank.Stats()
	log.Info().
		Str("addr", cfg.addr()).
		Str("store", cfg.store).
		Int("words", stats.Count).
		Str("wordSource", stats.Source).
		Msg("starting just-one")
	return srv.Serve(ctx, cfg.addr())
}

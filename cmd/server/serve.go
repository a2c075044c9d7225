package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/mock-rate-server/internal/application/service"
	"github.com/damon-houk/mock-rate-server/internal/domain/repository"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/config"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/db"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/fixture"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/handler"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps serve flags onto configuration keys
var flagKeys = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"access-key":   "auth.access_key",
	"mode":         "rates.mode",
	"fixture":      "rates.fixture",
	"seed":         "rates.seed",
	"currencies":   "rates.currencies",
	"journal":      "journal.enabled",
	"journal-path": "journal.path",
	"journal-ttl":  "journal.ttl",
	"log-level":    "logging.level",
}

func newServeCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock rate server",
		Long: `Start the mock rate server. Settings come from flags, then MOCKRATES_*
environment variables (e.g. MOCKRATES_SERVER_PORT), then defaults.

SIGINT or SIGTERM shuts the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "", "interface to bind, empty for all")
	flags.Int("port", config.DefaultPort, "TCP port to listen on")
	flags.String("access-key", config.DefaultAccessKey, "required access_key value, empty disables the check")
	flags.String("mode", config.ModeRandom, "rate source: random or fixture")
	flags.String("fixture", "", "JSON or YAML rates file for fixture mode")
	flags.Uint64("seed", 0, "seed for deterministic random rates, 0 for a random seed")
	flags.StringSlice("currencies", nil, "restrict random mode to these currency codes")
	flags.Bool("journal", false, "record served quotes, readable at /_mock/journal/{request_id}")
	flags.String("journal-path", "", "directory for the journal database, in memory when empty")
	flags.Duration("journal-ttl", 0, "expire journal entries after this long, 0 keeps them")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log := logger.NewJSONLogger(cmd.OutOrStdout(), level)
	defer log.Sync()
	logger.SetDefaultLogger(log)

	source, err := buildRateSource(cfg.Rates)
	if err != nil {
		log.Error("Failed to initialise rate source", map[string]interface{}{
			"mode":  cfg.Rates.Mode,
			"error": err.Error(),
		})
		return err
	}

	journal, closeJournal, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeJournal.Close(); err != nil {
			log.Warn("Error closing journal", map[string]interface{}{"error": err.Error()})
		}
	}()

	log.Info("Mock rate server configured", map[string]interface{}{
		"addr":        cfg.Server.Addr(),
		"mode":        cfg.Rates.Mode,
		"currencies":  source.Currencies(),
		"key_checked": cfg.Auth.AccessKey != "",
		"journal":     cfg.Journal.Enabled,
	})

	svc := service.NewQuoteService(source, log)
	rates := handler.NewRateHandler(svc, journal, log)
	srv := server.New(cfg.Server, server.NewHandler(rates, cfg.Auth.AccessKey, log), log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// buildRateSource loads the fixture once or prepares the random generator
func buildRateSource(cfg config.RatesConfig) (repository.RateSource, error) {
	switch cfg.Mode {
	case config.ModeFixture:
		source, err := fixture.Load(cfg.Fixture)
		if err != nil {
			return nil, err
		}
		return source, nil
	default:
		ranges, err := cfg.Ranges()
		if err != nil {
			return nil, err
		}
		var source *service.RandomRateSource
		if cfg.Seed != 0 {
			source, err = service.NewSeededRateSource(ranges, cfg.Seed)
		} else {
			source, err = service.NewRandomRateSource(ranges, nil)
		}
		if err != nil {
			return nil, err
		}
		return source, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openJournal returns a nil journal when recording is disabled
func openJournal(cfg config.JournalConfig) (repository.QuoteJournal, io.Closer, error) {
	if !cfg.Enabled {
		return nil, nopCloser{}, nil
	}

	badgerDB, err := db.OpenBadger(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return db.NewBadgerQuoteJournal(badgerDB, cfg.TTL), badgerDB, nil
}

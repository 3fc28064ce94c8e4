package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"recordwatch/internal/catalog"
	"recordwatch/internal/components/chrono"
	"recordwatch/internal/components/db"
	"recordwatch/internal/components/telemetry"
	"recordwatch/internal/exchange"
	"recordwatch/internal/notify"
	"recordwatch/internal/store"
	"recordwatch/internal/tracker"
	"recordwatch/internal/watcher"
	"recordwatch/lib/restyutil"
	libtelemetry "recordwatch/lib/telemetry"
	"recordwatch/pkg/migrations"
)

type appKeyType struct{}

var appKey appKeyType

// app is everything a command needs, built once in the root pre-run.
type app struct {
	cfg     Config
	db      *sql.DB
	clock   chrono.StandardImpl
	tel     telemetry.API
	store   store.Store
	watcher *watcher.Watcher
	otel    libtelemetry.Telemetry
}

func newApp(ctx context.Context, cfg Config, logger *slog.Logger, dumpDir string) (*app, error) {
	otel, err := libtelemetry.SetupFromEnv(ctx, "recordwatch")
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	tel := telemetry.NewSlogAPI(logger)

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone '%s': %w", cfg.Timezone, err)
	}

	database, err := migrations.OpenAndMigrateDB(db.Schema, cfg.DbPath)
	if err != nil {
		return nil, err
	}
	entries := store.NewStore(database, clock)

	extractor, err := catalog.NewExtractor(cfg.BaseUrl, *cfg.MediaFilter)
	if err != nil {
		database.Close()
		return nil, err
	}
	fetcherOpts := catalog.FetcherOptions{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.Timeout(),
		UserAgent:         cfg.UserAgent,
	}
	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("dump dir: %w", err)
		}
		fetcherOpts.Dump = output
	}
	fetcher := catalog.NewFetcher(fetcherOpts, tel)

	msg, err := notify.MessageFormatterByName(cfg.MessageFormat)
	if err != nil {
		database.Close()
		return nil, err
	}

	sinks := notify.Multi{notify.NewLogSink(logger, tel)}
	if cfg.Email.Enabled() {
		sinks = append(sinks, notify.NewEmailSink(cfg.Email, tel))
	}

	w := watcher.NewWatcher(
		watcher.Options{Name: cfg.Name, Collections: cfg.Collections},
		catalog.NewWalker(fetcher, extractor, tel),
		exchange.NewProvider(exchange.ProviderOptions{Url: cfg.RateUrl, Timeout: cfg.Timeout()}, tel),
		tracker.NewTracker(entries, tel),
		notify.NewFormatter(msg, cfg.QuoteCurrency),
		sinks,
		tel,
	)

	return &app{
		cfg:     cfg,
		db:      database,
		clock:   clock,
		tel:     tel,
		store:   entries,
		watcher: w,
		otel:    otel,
	}, nil
}

func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.db.Close(), a.otel.Shutdown(ctx))
}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey, a)
}

func getApp(ctx context.Context) *app {
	return ctx.Value(appKey).(*app)
}

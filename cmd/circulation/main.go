// Command circulation runs the school library circulation service over HTTP.
//
// Configuration comes from the environment and an optional .env file, see the config package.
// With -fixtures (or CIRCULATION_FIXTURES) the library is seeded from a JSON document on start-up.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/school-library/librarian/circulation/fixtures"
	"github.com/school-library/librarian/circulation/httpapi"
	"github.com/school-library/librarian/circulation/service"
	"github.com/school-library/librarian/circulation/shared/shell"
	"github.com/school-library/librarian/circulation/shared/shell/config"
	"github.com/school-library/librarian/eventstore/memengine"
	"github.com/school-library/librarian/eventstore/oteladapters"
	"github.com/school-library/librarian/eventstore/postgresengine"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "optional .env file, ignored when missing")
	fixturesPath := flag.String("fixtures", "", "JSON fixture document to seed on start-up")
	flag.Parse()

	if err := run(*envFile, *fixturesPath); err != nil {
		slog.Error("circulation stopped with an error", "error", err)
		os.Exit(1)
	}
}

func run(envFile string, fixturesPath string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	if fixturesPath != "" {
		cfg.FixturesPath = fixturesPath
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := config.NewObservabilityProviders(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := providers.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	serviceOptions := []service.Option{
		service.WithLoanPeriod(cfg.LoanPeriod),
		service.WithTopBooks(cfg.TopBooks),
		service.WithContextualLogger(logger),
	}
	storeOptions := []postgresengine.Option{
		postgresengine.WithTableName(cfg.EventsTable),
		postgresengine.WithContextualLogger(logger),
	}
	memoryOptions := []memengine.Option{memengine.WithLogger(logger)}
	apiOptions := []httpapi.Option{httpapi.WithLogger(logger)}

	if providers.MeterProvider != nil {
		reader := providers.MetricsReader
		collector := oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(config.ServiceName))
		serviceOptions = append(serviceOptions, service.WithMetrics(collector))
		storeOptions = append(storeOptions, postgresengine.WithMetrics(collector))
		apiOptions = append(apiOptions, httpapi.WithMetrics(func(ctx context.Context) (any, error) {
			return oteladapters.Snapshot(ctx, reader)
		}))
	}

	if providers.TracerProvider != nil {
		collector := oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(config.ServiceName))
		serviceOptions = append(serviceOptions, service.WithTracing(collector))
		storeOptions = append(storeOptions, postgresengine.WithTracing(collector))
		memoryOptions = append(memoryOptions, memengine.WithTracing(collector))
		apiOptions = append(apiOptions,
			httpapi.WithTracing(collector),
			httpapi.WithPropagator(otel.GetTextMapPropagator()),
		)
	}

	store, closeStore, err := openEventStore(ctx, cfg, storeOptions, memoryOptions, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := service.Open(ctx, store, serviceOptions...)
	if err != nil {
		return err
	}

	if cfg.FixturesPath != "" {
		if err = seed(ctx, svc, cfg.FixturesPath, logger); err != nil {
			return err
		}
	}

	app := httpapi.New(svc, apiOptions...)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("circulation listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		errChan <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errChan:
		return fmt.Errorf("http server: %w", err)
	}

	return app.ShutdownWithTimeout(shutdownTimeout)
}

// newLogger adds trace and span ids to every record logged inside a span when tracing is on.
func newLogger(cfg config.Config) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, handlerOptions)
	if cfg.LogFormat == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, handlerOptions)
	}

	if cfg.Tracing {
		handler = oteladapters.NewTraceLogHandler(handler)
	}

	return slog.New(handler)
}

// openEventStore returns the configured event log and a function releasing its connections.
func openEventStore(
	ctx context.Context,
	cfg config.Config,
	options []postgresengine.Option,
	memoryOptions []memengine.Option,
	logger *slog.Logger,
) (shell.EventStore, func(), error) {

	if cfg.Store == config.StoreMemory {
		logger.Warn("using the in-memory event log, state is lost on restart")
		return memengine.NewEventStore(memoryOptions...), func() {}, nil
	}

	var (
		eventStore postgresengine.EventStore
		closeStore func()
		err        error
	)

	switch cfg.PGDriver {
	case config.DriverPGX:
		eventStore, closeStore, err = openPGXEventStore(ctx, cfg, options)
	case config.DriverSQL:
		db, dbErr := config.NewSQLDB(ctx, cfg.PGDSN)
		if dbErr != nil {
			return nil, nil, fmt.Errorf("connecting with database/sql: %w", dbErr)
		}
		closeStore = func() { _ = db.Close() }
		eventStore, err = postgresengine.NewEventStoreFromSQLDB(db, options...)
	case config.DriverSQLX:
		db, dbErr := config.NewSQLXDB(ctx, cfg.PGDSN)
		if dbErr != nil {
			return nil, nil, fmt.Errorf("connecting with sqlx: %w", dbErr)
		}
		closeStore = func() { _ = db.Close() }
		eventStore, err = postgresengine.NewEventStoreFromSQLX(db, options...)
	default:
		return nil, nil, fmt.Errorf("%w: unknown postgres driver %q", config.ErrInvalidConfig, cfg.PGDriver)
	}

	if err != nil {
		if closeStore != nil {
			closeStore()
		}
		return nil, nil, err
	}

	if err = eventStore.EnsureSchema(ctx); err != nil {
		closeStore()
		return nil, nil, err
	}

	logger.Info("postgres event log ready", "driver", cfg.PGDriver, "table", eventStore.TableName())

	return eventStore, closeStore, nil
}

func openPGXEventStore(
	ctx context.Context,
	cfg config.Config,
	options []postgresengine.Option,
) (postgresengine.EventStore, func(), error) {

	primary, err := config.NewPGXPool(ctx, cfg.PGDSN)
	if err != nil {
		return postgresengine.EventStore{}, nil, fmt.Errorf("connecting to the primary: %w", err)
	}

	if cfg.PGReplicaDSN == "" {
		eventStore, storeErr := postgresengine.NewEventStoreFromPGXPool(primary, options...)
		return eventStore, primary.Close, storeErr
	}

	replica, err := config.NewPGXPool(ctx, cfg.PGReplicaDSN)
	if err != nil {
		primary.Close()
		return postgresengine.EventStore{}, nil, fmt.Errorf("connecting to the replica: %w", err)
	}

	closeBoth := func() {
		replica.Close()
		primary.Close()
	}

	eventStore, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(primary, replica, options...)

	return eventStore, closeBoth, err
}

func seed(ctx context.Context, svc *service.Service, path string, logger *slog.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Join(fixtures.ErrInvalidDocument, err)
	}
	defer func() { _ = file.Close() }()

	summary, err := fixtures.Load(ctx, svc, file)
	if err != nil {
		return err
	}

	logger.Info(
		"fixtures loaded",
		"path", path,
		"books", summary.Books,
		"students", summary.Students,
		"lends", summary.Lends,
		"returns", summary.Returns,
		"loans_skipped", summary.LoansSkipped,
	)

	return nil
}

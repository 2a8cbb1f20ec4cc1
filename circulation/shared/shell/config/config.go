package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHTTPAddr       = "CIRCULATION_HTTP_ADDR"
	EnvStore          = "CIRCULATION_STORE"
	EnvPGDriver       = "CIRCULATION_PG_DRIVER"
	EnvPGDSN          = "CIRCULATION_PG_DSN"
	EnvPGReplicaDSN   = "CIRCULATION_PG_REPLICA_DSN"
	EnvEventsTable    = "CIRCULATION_EVENTS_TABLE"
	EnvLoanPeriodDays = "CIRCULATION_LOAN_PERIOD_DAYS"
	EnvTopBooks       = "CIRCULATION_TOP_BOOKS"
	EnvLogLevel       = "CIRCULATION_LOG_LEVEL"
	EnvLogFormat      = "CIRCULATION_LOG_FORMAT"
	EnvFixtures       = "CIRCULATION_FIXTURES"
	EnvMetrics        = "CIRCULATION_METRICS"
	EnvTracing        = "CIRCULATION_TRACING"
	EnvOTLPEndpoint   = "CIRCULATION_OTLP_ENDPOINT"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Postgres drivers.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	defaultHTTPAddr       = ":8000"
	defaultEventsTable    = "events"
	defaultLoanPeriodDays = 14
)

var (
	// ErrInvalidConfig wraps every validation failure of Load.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the runtime configuration of the circulation service.
type Config struct {
	HTTPAddr     string
	Store        string
	PGDriver     string
	PGDSN        string
	PGReplicaDSN string
	EventsTable  string
	LoanPeriod   time.Duration
	TopBooks     int // 0 = unrestricted
	LogLevel     slog.Level
	LogFormat    string
	FixturesPath string
	Metrics      bool   // collect OpenTelemetry metrics and serve them on /metrics
	Tracing      bool   // export OpenTelemetry traces, requires OTLPEndpoint
	OTLPEndpoint string // OTLP gRPC collector, e.g. "localhost:4317"; metrics are exported there too
}

// Load reads the given .env files (default ".env"; missing files are ignored), then the environment.
// Variables set to a non-empty value in the environment win over the .env files, an earlier file wins
// over a later one. A blank variable counts as unset, like everywhere else in this package.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("loading %s: %w", file, err))
		}

		for key, value := range values {
			if os.Getenv(key) != "" {
				continue
			}

			if err = os.Setenv(key, value); err != nil {
				return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("applying %s from %s: %w", key, file, err))
			}
		}
	}

	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:     getEnv(EnvHTTPAddr, defaultHTTPAddr),
		Store:        strings.ToLower(getEnv(EnvStore, StoreMemory)),
		PGDriver:     strings.ToLower(getEnv(EnvPGDriver, DriverPGX)),
		PGDSN:        getEnv(EnvPGDSN, ""),
		PGReplicaDSN: getEnv(EnvPGReplicaDSN, ""),
		EventsTable:  getEnv(EnvEventsTable, defaultEventsTable),
		LogFormat:    strings.ToLower(getEnv(EnvLogFormat, LogFormatText)),
		FixturesPath: getEnv(EnvFixtures, ""),
		OTLPEndpoint: getEnv(EnvOTLPEndpoint, ""),
	}

	loanPeriodDays, err := getEnvInt(EnvLoanPeriodDays, defaultLoanPeriodDays)
	if err != nil {
		return Config{}, err
	}
	cfg.LoanPeriod = time.Duration(loanPeriodDays) * 24 * time.Hour

	if cfg.TopBooks, err = getEnvInt(EnvTopBooks, 0); err != nil {
		return Config{}, err
	}

	if cfg.Metrics, err = getEnvBool(EnvMetrics, false); err != nil {
		return Config{}, err
	}

	if cfg.Tracing, err = getEnvBool(EnvTracing, false); err != nil {
		return Config{}, err
	}

	if err = cfg.LogLevel.UnmarshalText([]byte(getEnv(EnvLogLevel, "info"))); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", EnvLogLevel, err))
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the combinations Load cannot check field by field.
func (c Config) Validate() error {
	var problems []error

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PGDSN == "" {
			problems = append(problems, fmt.Errorf("%s is required for the postgres store", EnvPGDSN))
		}

		switch c.PGDriver {
		case DriverPGX, DriverSQL, DriverSQLX:
		default:
			problems = append(problems, fmt.Errorf("%s must be one of pgx, sql, sqlx, got %q", EnvPGDriver, c.PGDriver))
		}

		if c.PGReplicaDSN != "" && c.PGDriver != DriverPGX {
			problems = append(problems, fmt.Errorf("%s is only supported with the pgx driver", EnvPGReplicaDSN))
		}
	default:
		problems = append(problems, fmt.Errorf("%s must be memory or postgres, got %q", EnvStore, c.Store))
	}

	if c.LoanPeriod <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive", EnvLoanPeriodDays))
	}

	if c.TopBooks < 0 {
		problems = append(problems, fmt.Errorf("%s must not be negative", EnvTopBooks))
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		problems = append(problems, fmt.Errorf("%s must be text or json, got %q", EnvLogFormat, c.LogFormat))
	}

	if c.Tracing && c.OTLPEndpoint == "" {
		problems = append(problems, fmt.Errorf("%s is required when %s is on", EnvOTLPEndpoint, EnvTracing))
	}

	if c.EventsTable == "" {
		problems = append(problems, fmt.Errorf("%s must not be empty", EnvEventsTable))
	}

	if len(problems) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, problems...)...)
	}

	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", key, err))
	}

	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", key, err))
	}

	return value, nil
}

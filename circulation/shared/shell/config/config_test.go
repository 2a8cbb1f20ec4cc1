package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-library/librarian/circulation/shared/shell/config"
)

func Test_FromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 14*24*time.Hour, cfg.LoanPeriod)
	assert.Equal(t, 0, cfg.TopBooks)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "events", cfg.EventsTable)
	assert.False(t, cfg.Metrics)
	assert.False(t, cfg.Tracing)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func Test_FromEnv_ReadsOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvStore, "postgres")
	t.Setenv(config.EnvPGDriver, "sqlx")
	t.Setenv(config.EnvPGDSN, "postgres://localhost/library")
	t.Setenv(config.EnvLoanPeriodDays, "7")
	t.Setenv(config.EnvTopBooks, "3")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvLogFormat, "json")
	t.Setenv(config.EnvMetrics, "true")
	t.Setenv(config.EnvTracing, "true")
	t.Setenv(config.EnvOTLPEndpoint, "collector:4317")

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLX, cfg.PGDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.LoanPeriod)
	assert.Equal(t, 3, cfg.TopBooks)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, config.LogFormatJSON, cfg.LogFormat)
	assert.True(t, cfg.Metrics)
	assert.True(t, cfg.Tracing)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
}

func Test_FromEnv_RejectsInvalidCombinations(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{config.EnvStore: "redis"}},
		{name: "postgres without dsn", env: map[string]string{config.EnvStore: "postgres"}},
		{name: "unknown driver", env: map[string]string{config.EnvStore: "postgres", config.EnvPGDSN: "x", config.EnvPGDriver: "odbc"}},
		{name: "replica without pgx", env: map[string]string{config.EnvStore: "postgres", config.EnvPGDSN: "x", config.EnvPGDriver: "sql", config.EnvPGReplicaDSN: "y"}},
		{name: "loan period not a number", env: map[string]string{config.EnvLoanPeriodDays: "two weeks"}},
		{name: "loan period zero", env: map[string]string{config.EnvLoanPeriodDays: "0"}},
		{name: "negative top books", env: map[string]string{config.EnvTopBooks: "-1"}},
		{name: "bad log level", env: map[string]string{config.EnvLogLevel: "loud"}},
		{name: "bad log format", env: map[string]string{config.EnvLogFormat: "xml"}},
		{name: "metrics not a bool", env: map[string]string{config.EnvMetrics: "sometimes"}},
		{name: "tracing not a bool", env: map[string]string{config.EnvTracing: "maybe"}},
		{name: "tracing without endpoint", env: map[string]string{config.EnvTracing: "true"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := config.FromEnv()

			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func Test_Load_ReadsDotEnvFile_ButEnvironmentWins(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CIRCULATION_TOP_BOOKS=5\nCIRCULATION_HTTP_ADDR=:9000\n"), 0o600))
	t.Setenv(config.EnvHTTPAddr, ":7000")

	cfg, err := config.Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TopBooks)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
}

func Test_Load_FillsBlankEnvironmentVariables_FromDotEnvFile(t *testing.T) {
	// arrange
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CIRCULATION_LOG_FORMAT=json\nCIRCULATION_LOAN_PERIOD_DAYS=21\n"), 0o600))
	t.Setenv(config.EnvLoanPeriodDays, "")

	// act
	cfg, err := config.Load(envFile)

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, 21*24*time.Hour, cfg.LoanPeriod)
}

func Test_Load_FirstDotEnvFileWins(t *testing.T) {
	// arrange
	clearEnv(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("CIRCULATION_TOP_BOOKS=2\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("CIRCULATION_TOP_BOOKS=9\nCIRCULATION_EVENTS_TABLE=loans\n"), 0o600))

	// act
	cfg, err := config.Load(first, second)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.TopBooks)
	assert.Equal(t, "loans", cfg.EventsTable)
}

func Test_Load_IgnoresMissingDotEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.NoError(t, err)
}

// clearEnv blanks every variable Load reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		config.EnvHTTPAddr, config.EnvStore, config.EnvPGDriver, config.EnvPGDSN, config.EnvPGReplicaDSN,
		config.EnvEventsTable, config.EnvLoanPeriodDays, config.EnvTopBooks, config.EnvLogLevel,
		config.EnvLogFormat, config.EnvFixtures, config.EnvMetrics, config.EnvTracing, config.EnvOTLPEndpoint,
	} {
		t.Setenv(key, "")
	}
}

// Package config loads the runtime configuration from the environment (optionally seeded
// from a .env file), builds the Postgres connection pools for the event log and sets up
// the OpenTelemetry providers.
package config

// Package helper contains test doubles shared by the package tests:
// a slog handler spy, a metrics collector spy and a controllable clock.
package helper

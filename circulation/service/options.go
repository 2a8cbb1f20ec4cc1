package service

import (
	"time"

	"github.com/school-library/librarian/circulation/shared/shell"
)

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock, SystemClock by default.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLoanPeriod sets the time until a loan is due, core.DefaultLoanPeriod by default.
func WithLoanPeriod(loanPeriod time.Duration) Option {
	return func(s *Service) {
		if loanPeriod > 0 {
			s.loanPeriod = loanPeriod
		}
	}
}

// WithTopBooks limits the ranked books of the class usage report, 0 (the default) means unrestricted.
func WithTopBooks(topN int) Option {
	return func(s *Service) {
		s.topBooks = max(0, topN)
	}
}

// WithLogger sets the logger for replay and command outcome logging.
func WithLogger(logger shell.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithContextualLogger sets the context-aware logger; it takes precedence over WithLogger for commands.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Service) {
		s.contextualLogger = logger
	}
}

// WithMetrics sets the collector for command metrics.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Service) {
		s.metricsCollector = collector
	}
}

// WithTracing sets the collector for command spans. The event log engine is traced separately
// through its own option; its spans nest under the command span.
func WithTracing(collector shell.TracingCollector) Option {
	return func(s *Service) {
		s.tracingCollector = collector
	}
}

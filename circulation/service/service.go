package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/school-library/librarian/circulation/features/command/addbook"
	"github.com/school-library/librarian/circulation/features/command/enrollstudent"
	"github.com/school-library/librarian/circulation/features/command/lendbook"
	"github.com/school-library/librarian/circulation/features/command/restockbook"
	"github.com/school-library/librarian/circulation/features/command/returnbook"
	"github.com/school-library/librarian/circulation/readmodel"
	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/circulation/shared/shell"
	"github.com/school-library/librarian/circulation/shared/shell/observable"
	"github.com/school-library/librarian/eventstore"
)

var (
	// ErrReplayFailed is returned by Open when the event log cannot be projected.
	ErrReplayFailed = errors.New("replaying the event log failed")

	// ErrReadModelOutOfSync is returned when a committed event cannot be applied to the read models.
	ErrReadModelOutOfSync = errors.New("read model is out of sync with the event log")
)

const (
	LogMsgReplayCompleted = "circulation state replayed"

	LogAttrEventCount   = "event_count"
	LogAttrBookCount    = "book_count"
	LogAttrStudentCount = "student_count"
	LogAttrDurationMS   = "duration_ms"
)

// Service is the circulation service. It is safe for concurrent use.
type Service struct {
	store shell.EventStore

	mu    sync.RWMutex // guards state
	state *readmodel.State
	locks *keyLock

	clock      Clock
	loanPeriod time.Duration
	topBooks   int

	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector

	addBook       shell.CommandHandler[addbook.Command]
	restockBook   shell.CommandHandler[restockbook.Command]
	enrollStudent shell.CommandHandler[enrollstudent.Command]
	lendBook      shell.CommandHandler[lendbook.Command]
	returnBook    shell.CommandHandler[returnbook.Command]
}

// Open creates the Service and replays the whole event log into the read models.
func Open(ctx context.Context, store shell.EventStore, opts ...Option) (*Service, error) {
	s := &Service{
		store:      store,
		state:      readmodel.NewState(),
		locks:      newKeyLock(),
		clock:      SystemClock{},
		loanPeriod: core.DefaultLoanPeriod,
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.wireCommandHandlers(); err != nil {
		return nil, err
	}

	if err := s.replay(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) wireCommandHandlers() error {
	var err error

	if s.addBook, err = observe[addbook.Command](s, addbook.NewCommandHandler(s.store)); err != nil {
		return err
	}

	if s.restockBook, err = observe[restockbook.Command](s, restockbook.NewCommandHandler(s.store)); err != nil {
		return err
	}

	if s.enrollStudent, err = observe[enrollstudent.Command](s, enrollstudent.NewCommandHandler(s.store)); err != nil {
		return err
	}

	if s.lendBook, err = observe[lendbook.Command](s, lendbook.NewCommandHandler(s.store)); err != nil {
		return err
	}

	if s.returnBook, err = observe[returnbook.Command](s, returnbook.NewCommandHandler(s.store)); err != nil {
		return err
	}

	return nil
}

func observe[C shell.Command](s *Service, handler shell.CommandHandler[C]) (shell.CommandHandler[C], error) {
	wrapper, err := observable.NewCommandWrapper(
		handler,
		observable.WithCommandLogging[C](s.logger),
		observable.WithCommandContextualLogging[C](s.contextualLogger),
		observable.WithCommandMetrics[C](s.metricsCollector),
		observable.WithCommandTracing[C](s.tracingCollector),
	)
	if err != nil {
		return nil, err
	}

	return wrapper, nil
}

func (s *Service) replay(ctx context.Context) error {
	start := time.Now()

	storableEvents, _, err := s.store.Query(
		eventstore.WithStrongConsistency(ctx),
		eventstore.BuildEventFilter().MatchingAnyEvent(),
	)
	if err != nil {
		return errors.Join(ErrReplayFailed, err)
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return errors.Join(ErrReplayFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.state.ApplyAll(history); err != nil {
		return errors.Join(ErrReplayFailed, err)
	}

	if s.logger != nil {
		s.logger.Info(
			LogMsgReplayCompleted,
			LogAttrEventCount, len(history),
			LogAttrBookCount, s.state.Catalog.Len(),
			LogAttrStudentCount, len(s.state.Roster.ListStudents()),
			LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
		)
	}

	return nil
}

// apply projects a committed event under the write lock.
func (s *Service) apply(event core.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Apply(event); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadModelOutOfSync, event.IsEventType(), err)
	}

	return nil
}

func bookLockKey(id core.BookIDInt) string {
	return "book:" + core.FormatBookID(id)
}

func isbnLockKey(normalizedISBN string) string {
	return "isbn:" + normalizedISBN
}

func studentLockKey(id core.StudentIDString) string {
	return "student:" + id
}

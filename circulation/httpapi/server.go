package httpapi

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/propagation"

	"github.com/school-library/librarian/circulation/features/query/classborrowed"
	"github.com/school-library/librarian/circulation/features/query/classusage"
	"github.com/school-library/librarian/circulation/features/query/overdue"
	"github.com/school-library/librarian/circulation/features/query/studentborrowed"
	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/service"
	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/circulation/shared/shell"
)

const (
	LogMsgRequestCompleted = "http request completed"
	LogMsgRequestFailed    = "http request failed"

	LogAttrMethod     = "method"
	LogAttrPath       = "path"
	LogAttrStatus     = "status"
	LogAttrRequestID  = "request_id"
	LogAttrDurationMS = "duration_ms"
	LogAttrError      = "error"

	SpanNameRequest    = "http.request"
	SpanAttrMethod     = "http.method"
	SpanAttrPath       = "http.path"
	SpanAttrStatusCode = "http.status_code"

	defaultRequestTimeout = 10 * time.Second
)

// Circulation is the part of the circulation service the API exposes.
type Circulation interface {
	Lend(ctx context.Context, studentID core.StudentIDString, bookID core.BookIDInt) (service.LendReturnResult, error)
	Return(ctx context.Context, studentID core.StudentIDString, bookID core.BookIDInt) (service.LendReturnResult, error)
	AddBook(ctx context.Context, newBook service.NewBook) (catalog.Book, error)
	RestockBook(ctx context.Context, bookID core.BookIDInt, totalQuantity int) (catalog.Book, error)
	EnrollStudent(ctx context.Context, newStudent service.NewStudent) (roster.Student, error)

	ListBooks() []catalog.Book
	GetBookHistory(id core.BookIDInt) (service.BookHistory, error)
	ListBorrowedBooks() []catalog.Book
	ClassBorrowed(classID core.ClassIDString) (classborrowed.ClassBorrow, error)
	StudentBorrowed(studentID core.StudentIDString) (studentborrowed.StudentBorrowOverview, error)
	OverdueReport(asOf time.Time) []overdue.Entry
	ClassUsageReport(classID core.ClassIDString) ([]classusage.Report, error)
	SearchBooks(query string) []catalog.Book
	SearchStudents(query string) []roster.Student
	Stats() service.Stats
}

// Option configures the API.
type Option func(*server)

// WithLogger logs every request at info and internal errors at error level.
func WithLogger(logger shell.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

// WithMetrics serves GET /metrics from the snapshot function.
func WithMetrics(snapshot func(ctx context.Context) (any, error)) Option {
	return func(s *server) {
		s.metricsSnapshot = snapshot
	}
}

// WithTracing runs every request in a span; spans started by the service become its children.
func WithTracing(collector shell.TracingCollector) Option {
	return func(s *server) {
		s.tracingCollector = collector
	}
}

// WithPropagator continues the trace of the caller from the request headers, e.g. propagation.TraceContext{}.
// It only matters together with WithTracing.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(s *server) {
		s.propagator = propagator
	}
}

// WithRequestTimeout bounds the context handed to the service. Non-positive values are ignored.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *server) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

type server struct {
	circulation      Circulation
	validate         *validator.Validate
	logger           shell.Logger
	tracingCollector shell.TracingCollector
	propagator       propagation.TextMapPropagator
	requestTimeout   time.Duration
	metricsSnapshot  func(ctx context.Context) (any, error)
}

// New builds the fiber app with every route registered.
func New(circulation Circulation, opts ...Option) *fiber.App {
	s := &server{
		circulation:    circulation,
		validate:       validator.New(),
		requestTimeout: defaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "circulation",
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
		UnescapePath:          true,
	})

	app.Use(s.traceRequest, s.requestContext)

	app.Get("/health", s.health)
	if s.metricsSnapshot != nil {
		app.Get("/metrics", s.metrics)
	}

	api := app.Group("/api")
	api.Get("/books", s.listBooks)
	api.Post("/books", s.addBook)
	api.Get("/books/search", s.searchBooks)
	api.Get("/books/:id/history", s.bookHistory)
	api.Post("/books/:id/restock", s.restockBook)
	api.Get("/borrowed-books", s.borrowedBooks)
	api.Get("/class/:classID/borrowed", s.classBorrowed)
	api.Post("/lend", s.lend)
	api.Post("/return", s.returnBook)
	api.Post("/students", s.enrollStudent)
	api.Get("/students/search", s.searchStudents)
	api.Get("/students/:id/borrowed", s.studentBorrowed)
	api.Get("/overdue", s.overdueReport)
	api.Get("/reports/class-usage", s.classUsageReport)

	return app
}

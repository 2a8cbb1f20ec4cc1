package httpapi_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/school-library/librarian/circulation/httpapi"
	"github.com/school-library/librarian/circulation/service"
	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/circulation/shared/shell"
	"github.com/school-library/librarian/eventstore"
	"github.com/school-library/librarian/eventstore/memengine"
	"github.com/school-library/librarian/eventstore/oteladapters"
	"github.com/school-library/librarian/testutil/helper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testAPI struct {
	app     *fiber.App
	svc     *service.Service
	store   *memengine.EventStore
	clock   *helper.FixedClock
	logSpy  *helper.LogHandlerSpy
	baseCtx context.Context
}

func givenAPI(t *testing.T) testAPI {
	t.Helper()

	ctx := context.Background()
	store := memengine.NewEventStore()
	clock := helper.NewFixedClock(helper.Day(2024, time.September, 1))

	svc, err := service.Open(ctx, store, service.WithClock(clock))
	require.NoError(t, err)

	for _, book := range []service.NewBook{
		{ID: 1, ISBN: "978-0-452-28423-4", Title: "1984", Author: "George Orwell", TotalQuantity: 2},
		{ID: 2, ISBN: "978-0-06-112008-4", Title: "To Kill a Mockingbird", Author: "Harper Lee", TotalQuantity: 1},
		{ID: 3, ISBN: "978-0-7432-7356-5", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", TotalQuantity: 3},
	} {
		_, err = svc.AddBook(ctx, book)
		require.NoError(t, err)
	}

	for _, student := range []service.NewStudent{
		{ID: "S1", Name: "Ana Lima", ClassID: "1A", ClassName: "Class 1A"},
		{ID: "S2", Name: "Bruno Costa", ClassID: "1A", ClassName: "Class 1A"},
		{ID: "S3", Name: "Carla Dias", ClassID: "2B", ClassName: "Class 2B"},
	} {
		_, err = svc.EnrollStudent(ctx, student)
		require.NoError(t, err)
	}

	logSpy := helper.NewLogHandlerSpy(false)
	app := httpapi.New(svc, httpapi.WithLogger(slog.New(logSpy)))

	return testAPI{app: app, svc: svc, store: store, clock: clock, logSpy: logSpy, baseCtx: ctx}
}

func (api testAPI) do(t *testing.T, method, target string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	return api.send(t, req)
}

func (api testAPI) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))

	return v
}

type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type bookBody struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	BorrowedBy        []struct {
		StudentID   string `json:"student_id"`
		StudentName string `json:"student_name"`
	} `json:"borrowed_by"`
}

type lendReturnBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Student struct {
		StudentID   string `json:"student_id"`
		StudentName string `json:"student_name"`
	} `json:"student"`
	Book struct {
		BookID int64  `json:"book_id"`
		Title  string `json:"title"`
	} `json:"book"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

func Test_API_ListBooks(t *testing.T) {
	// arrange
	api := givenAPI(t)

	// act
	resp, raw := api.do(t, http.MethodGet, "/api/books", nil)

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	books := decode[[]bookBody](t, raw)
	require.Len(t, books, 3)
	assert.Equal(t, "1984", books[0].Title)
	assert.Equal(t, 2, books[0].AvailableQuantity)
	assert.Empty(t, books[0].BorrowedBy)
}

func Test_API_Lend_Success(t *testing.T) {
	// arrange
	api := givenAPI(t)

	// act
	resp, raw := api.do(t, http.MethodPost, "/api/lend", map[string]any{"student_id": "S1", "book_id": 3})

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	body := decode[lendReturnBody](t, raw)
	assert.True(t, body.Success)
	assert.Contains(t, body.Message, "The Great Gatsby")
	assert.Equal(t, "S1", body.Student.StudentID)
	assert.Equal(t, "Ana Lima", body.Student.StudentName)
	assert.Equal(t, int64(3), body.Book.BookID)
	assert.True(t, helper.Day(2024, time.September, 1).Equal(body.BorrowDate))
	assert.True(t, helper.Day(2024, time.September, 15).Equal(body.DueDate))
	assert.Nil(t, body.ReturnDate)

	book, err := api.svc.GetBook(3)
	require.NoError(t, err)
	assert.Equal(t, 2, book.AvailableQuantity())
}

func Test_API_Lend_ErrorStatus(t *testing.T) {
	testCases := []struct {
		description string
		body        map[string]any
		wantStatus  int
		wantMessage string
	}{
		{description: "unknown book", body: map[string]any{"student_id": "S1", "book_id": 99}, wantStatus: http.StatusNotFound, wantMessage: core.ErrBookNotFound.Error()},
		{description: "unknown student", body: map[string]any{"student_id": "S9", "book_id": 3}, wantStatus: http.StatusNotFound, wantMessage: core.ErrStudentNotFound.Error()},
		{description: "missing student id", body: map[string]any{"book_id": 3}, wantStatus: http.StatusBadRequest, wantMessage: "validation failed"},
		{description: "negative book id", body: map[string]any{"student_id": "S1", "book_id": -1}, wantStatus: http.StatusBadRequest, wantMessage: "validation failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// arrange
			api := givenAPI(t)

			// act
			resp, raw := api.do(t, http.MethodPost, "/api/lend", tc.body)

			// assert
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			body := decode[errorBody](t, raw)
			assert.False(t, body.Success)
			assert.Contains(t, body.Message, tc.wantMessage)
		})
	}
}

func Test_API_Lend_Conflicts(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S1", 1)
	require.NoError(t, err)

	// act
	duplicateResp, duplicateRaw := api.do(t, http.MethodPost, "/api/lend", map[string]any{"student_id": "S1", "book_id": 1})
	secondCopyResp, _ := api.do(t, http.MethodPost, "/api/lend", map[string]any{"student_id": "S2", "book_id": 1})
	outOfStockResp, outOfStockRaw := api.do(t, http.MethodPost, "/api/lend", map[string]any{"student_id": "S3", "book_id": 1})

	// assert
	assert.Equal(t, http.StatusConflict, duplicateResp.StatusCode)
	assert.Contains(t, decode[errorBody](t, duplicateRaw).Message, core.ErrDuplicateLoan.Error())
	assert.Equal(t, http.StatusOK, secondCopyResp.StatusCode)
	assert.Equal(t, http.StatusConflict, outOfStockResp.StatusCode)
	assert.Contains(t, decode[errorBody](t, outOfStockRaw).Message, core.ErrOutOfStock.Error())
}

func Test_API_Lend_MalformedBody(t *testing.T) {
	// arrange
	api := givenAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/lend", bytes.NewReader([]byte(`{"student_id":`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	// act
	resp, raw := api.send(t, req)

	// assert
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, decode[errorBody](t, raw).Success)
}

func Test_API_Return(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S2", 1)
	require.NoError(t, err)
	api.clock.Advance(3 * 24 * time.Hour)

	// act
	resp, raw := api.do(t, http.MethodPost, "/api/return", map[string]any{"student_id": "S2", "book_id": 1})
	noLoanResp, noLoanRaw := api.do(t, http.MethodPost, "/api/return", map[string]any{"student_id": "S9", "book_id": 3})

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	body := decode[lendReturnBody](t, raw)
	assert.True(t, body.Success)
	assert.Equal(t, "Bruno Costa", body.Student.StudentName)
	require.NotNil(t, body.ReturnDate)
	assert.True(t, helper.Day(2024, time.September, 4).Equal(*body.ReturnDate))
	assert.True(t, helper.Day(2024, time.September, 1).Equal(body.BorrowDate))

	assert.Equal(t, http.StatusConflict, noLoanResp.StatusCode)
	assert.Contains(t, decode[errorBody](t, noLoanRaw).Message, core.ErrNoActiveLoan.Error())
}

func Test_API_BookHistory(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S1", 1)
	require.NoError(t, err)
	_, err = api.svc.Return(api.baseCtx, "S1", 1)
	require.NoError(t, err)
	_, err = api.svc.Lend(api.baseCtx, "S3", 1)
	require.NoError(t, err)

	// act
	resp, raw := api.do(t, http.MethodGet, "/api/books/1/history", nil)
	notFoundResp, _ := api.do(t, http.MethodGet, "/api/books/42/history", nil)
	badIDResp, _ := api.do(t, http.MethodGet, "/api/books/abc/history", nil)

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[struct {
		BookID  int64 `json:"book_id"`
		History []struct {
			StudentID  string     `json:"student_id"`
			ReturnDate *time.Time `json:"return_date"`
		} `json:"history"`
	}](t, raw)
	assert.Equal(t, int64(1), history.BookID)
	require.Len(t, history.History, 2)
	assert.NotNil(t, history.History[0].ReturnDate)
	assert.Nil(t, history.History[1].ReturnDate)

	assert.Equal(t, http.StatusNotFound, notFoundResp.StatusCode)
	assert.Equal(t, http.StatusBadRequest, badIDResp.StatusCode)
}

func Test_API_BorrowedBooks_And_ClassBorrowed(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S1", 1)
	require.NoError(t, err)
	_, err = api.svc.Lend(api.baseCtx, "S3", 3)
	require.NoError(t, err)

	// act
	borrowedResp, borrowedRaw := api.do(t, http.MethodGet, "/api/borrowed-books", nil)
	classResp, classRaw := api.do(t, http.MethodGet, "/api/class/1A/borrowed", nil)
	unknownClassResp, _ := api.do(t, http.MethodGet, "/api/class/9Z/borrowed", nil)

	// assert
	require.Equal(t, http.StatusOK, borrowedResp.StatusCode)
	borrowed := decode[[]bookBody](t, borrowedRaw)
	require.Len(t, borrowed, 2)
	assert.Equal(t, "S1", borrowed[0].BorrowedBy[0].StudentID)

	require.Equal(t, http.StatusOK, classResp.StatusCode)
	class := decode[struct {
		ClassID       string `json:"class_id"`
		ClassName     string `json:"class_name"`
		BorrowedBooks []struct {
			BookID int64 `json:"book_id"`
		} `json:"borrowed_books"`
	}](t, classRaw)
	assert.Equal(t, "Class 1A", class.ClassName)
	require.Len(t, class.BorrowedBooks, 1)
	assert.Equal(t, int64(1), class.BorrowedBooks[0].BookID)

	assert.Equal(t, http.StatusNotFound, unknownClassResp.StatusCode)
}

func Test_API_StudentBorrowed(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S1", 1)
	require.NoError(t, err)
	_, err = api.svc.Return(api.baseCtx, "S1", 1)
	require.NoError(t, err)
	_, err = api.svc.Lend(api.baseCtx, "S1", 3)
	require.NoError(t, err)

	// act
	resp, raw := api.do(t, http.MethodGet, "/api/students/S1/borrowed", nil)
	unknownResp, _ := api.do(t, http.MethodGet, "/api/students/S9/borrowed", nil)

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := decode[struct {
		StudentName     string `json:"student_name"`
		BooksBorrowed   int    `json:"books_borrowed"`
		BooksReturned   int    `json:"books_returned"`
		CurrentBorrowed []struct {
			BookID int64 `json:"book_id"`
		} `json:"current_borrowed"`
		PastHistory []struct {
			BookID int64 `json:"book_id"`
		} `json:"past_history"`
	}](t, raw)
	assert.Equal(t, "Ana Lima", overview.StudentName)
	assert.Equal(t, 1, overview.BooksBorrowed)
	assert.Equal(t, 1, overview.BooksReturned)
	require.Len(t, overview.CurrentBorrowed, 1)
	assert.Equal(t, int64(3), overview.CurrentBorrowed[0].BookID)
	require.Len(t, overview.PastHistory, 1)
	assert.Equal(t, int64(1), overview.PastHistory[0].BookID)

	assert.Equal(t, http.StatusNotFound, unknownResp.StatusCode)
}

func Test_API_PathParams_AreURLDecoded(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.EnrollStudent(api.baseCtx, service.NewStudent{
		ID:        "S 9",
		Name:      "Dora Reis",
		ClassID:   "Grade 5",
		ClassName: "Grade 5",
	})
	require.NoError(t, err)
	_, err = api.svc.Lend(api.baseCtx, "S 9", 3)
	require.NoError(t, err)

	// act
	studentResp, studentRaw := api.do(t, http.MethodGet, "/api/students/S%209/borrowed", nil)
	classResp, classRaw := api.do(t, http.MethodGet, "/api/class/Grade%205/borrowed", nil)

	// assert
	require.Equal(t, http.StatusOK, studentResp.StatusCode, string(studentRaw))
	student := decode[struct {
		StudentID     string `json:"student_id"`
		BooksBorrowed int    `json:"books_borrowed"`
	}](t, studentRaw)
	assert.Equal(t, "S 9", student.StudentID)
	assert.Equal(t, 1, student.BooksBorrowed)

	require.Equal(t, http.StatusOK, classResp.StatusCode, string(classRaw))
	class := decode[struct {
		ClassID       string `json:"class_id"`
		BorrowedBooks []struct {
			BookID int64 `json:"book_id"`
		} `json:"borrowed_books"`
	}](t, classRaw)
	assert.Equal(t, "Grade 5", class.ClassID)
	require.Len(t, class.BorrowedBooks, 1)
	assert.Equal(t, int64(3), class.BorrowedBooks[0].BookID)
}

func Test_API_Overdue(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S2", 1)
	require.NoError(t, err)

	type overdueBody struct {
		BookID      int64 `json:"book_id"`
		DaysOverdue int   `json:"days_overdue"`
		Borrower    struct {
			StudentID string `json:"student_id"`
		} `json:"borrower"`
		Severity string `json:"severity"`
	}

	// act
	dateResp, dateRaw := api.do(t, http.MethodGet, "/api/overdue?as_of=2024-09-26", nil)
	rfcResp, rfcRaw := api.do(t, http.MethodGet, "/api/overdue?as_of=2024-09-26T12:00:00Z", nil)
	nowResp, nowRaw := api.do(t, http.MethodGet, "/api/overdue", nil)
	badResp, badRaw := api.do(t, http.MethodGet, "/api/overdue?as_of=yesterday", nil)

	// assert
	require.Equal(t, http.StatusOK, dateResp.StatusCode)
	entries := decode[[]overdueBody](t, dateRaw)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].BookID)
	assert.Equal(t, "S2", entries[0].Borrower.StudentID)
	assert.Equal(t, 11, entries[0].DaysOverdue)
	assert.Equal(t, "low", entries[0].Severity)

	require.Equal(t, http.StatusOK, rfcResp.StatusCode)
	assert.Equal(t, 11, decode[[]overdueBody](t, rfcRaw)[0].DaysOverdue)

	require.Equal(t, http.StatusOK, nowResp.StatusCode)
	assert.Empty(t, decode[[]overdueBody](t, nowRaw))

	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	assert.Contains(t, decode[errorBody](t, badRaw).Message, httpapi.ErrInvalidAsOf.Error())
}

func Test_API_ClassUsageReport(t *testing.T) {
	// arrange
	api := givenAPI(t)
	_, err := api.svc.Lend(api.baseCtx, "S1", 1)
	require.NoError(t, err)
	_, err = api.svc.Lend(api.baseCtx, "S2", 1)
	require.NoError(t, err)

	type usageBody struct {
		ClassID            string `json:"class_id"`
		TotalBooksBorrowed int    `json:"total_books_borrowed"`
		MostBorrowedBooks  []struct {
			BookID      int64 `json:"book_id"`
			BorrowCount int   `json:"borrow_count"`
		} `json:"most_borrowed_books"`
	}

	// act
	allResp, allRaw := api.do(t, http.MethodGet, "/api/reports/class-usage", nil)
	oneResp, oneRaw := api.do(t, http.MethodGet, "/api/reports/class-usage?class_id=1A", nil)
	unknownResp, _ := api.do(t, http.MethodGet, "/api/reports/class-usage?class_id=9Z", nil)

	// assert
	require.Equal(t, http.StatusOK, allResp.StatusCode)
	assert.Len(t, decode[[]usageBody](t, allRaw), 2)

	require.Equal(t, http.StatusOK, oneResp.StatusCode)
	reports := decode[[]usageBody](t, oneRaw)
	require.Len(t, reports, 1)
	assert.Equal(t, "1A", reports[0].ClassID)
	assert.Equal(t, 2, reports[0].TotalBooksBorrowed)
	require.NotEmpty(t, reports[0].MostBorrowedBooks)
	assert.Equal(t, int64(1), reports[0].MostBorrowedBooks[0].BookID)
	assert.Equal(t, 2, reports[0].MostBorrowedBooks[0].BorrowCount)

	assert.Equal(t, http.StatusNotFound, unknownResp.StatusCode)
}

func Test_API_Search(t *testing.T) {
	// arrange
	api := givenAPI(t)

	// act
	booksResp, booksRaw := api.do(t, http.MethodGet, "/api/books/search?q=1984", nil)
	shortResp, shortRaw := api.do(t, http.MethodGet, "/api/books/search?q=a", nil)
	studentsResp, studentsRaw := api.do(t, http.MethodGet, "/api/students/search?q=costa", nil)

	// assert
	require.Equal(t, http.StatusOK, booksResp.StatusCode)
	books := decode[[]bookBody](t, booksRaw)
	require.Len(t, books, 1)
	assert.Equal(t, int64(1), books[0].ID)

	require.Equal(t, http.StatusOK, shortResp.StatusCode)
	assert.Empty(t, decode[[]bookBody](t, shortRaw))
	assert.Equal(t, core.ErrQueryTooShort.Error(), shortResp.Header.Get("X-Search-Notice"))

	require.Equal(t, http.StatusOK, studentsResp.StatusCode)
	students := decode[[]struct {
		StudentID string `json:"student_id"`
	}](t, studentsRaw)
	require.Len(t, students, 1)
	assert.Equal(t, "S2", students[0].StudentID)
}

func Test_API_CatalogMaintenance(t *testing.T) {
	// arrange
	api := givenAPI(t)
	newBook := map[string]any{"id": 4, "isbn": "978-0-14-143951-8", "title": "Pride and Prejudice", "author": "Jane Austen", "total_quantity": 1}

	// act
	createdResp, createdRaw := api.do(t, http.MethodPost, "/api/books", newBook)
	againResp, _ := api.do(t, http.MethodPost, "/api/books", newBook)
	isbnResp, _ := api.do(t, http.MethodPost, "/api/books", map[string]any{"id": 5, "isbn": "9780141439518", "title": "Copy", "total_quantity": 1})
	invalidResp, invalidRaw := api.do(t, http.MethodPost, "/api/books", map[string]any{"id": 6, "isbn": "x", "total_quantity": 1})
	restockResp, restockRaw := api.do(t, http.MethodPost, "/api/books/4/restock", map[string]any{"total_quantity": 5})
	studentResp, _ := api.do(t, http.MethodPost, "/api/students", map[string]any{"student_id": "S7", "student_name": "Eva Reis", "class_id": "3C"})

	// assert
	require.Equal(t, http.StatusCreated, createdResp.StatusCode, string(createdRaw))
	assert.Equal(t, "Pride and Prejudice", decode[bookBody](t, createdRaw).Title)
	assert.Equal(t, http.StatusCreated, againResp.StatusCode)
	assert.Equal(t, http.StatusConflict, isbnResp.StatusCode)

	assert.Equal(t, http.StatusBadRequest, invalidResp.StatusCode)
	assert.Contains(t, decode[errorBody](t, invalidRaw).Errors, "Title")

	require.Equal(t, http.StatusOK, restockResp.StatusCode)
	assert.Equal(t, 5, decode[bookBody](t, restockRaw).AvailableQuantity)

	assert.Equal(t, http.StatusCreated, studentResp.StatusCode)
	student, err := api.svc.StudentBorrowed("S7")
	require.NoError(t, err)
	assert.Equal(t, "3C", student.Student.ClassName)
}

func Test_API_RequestID_BecomesCorrelationID(t *testing.T) {
	// arrange
	api := givenAPI(t)
	requestID := uuid.New()
	payload, err := json.Marshal(map[string]any{"student_id": "S1", "book_id": 1})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/lend", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Request-ID", requestID.String())

	// act
	resp, _ := api.send(t, req)

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, requestID.String(), resp.Header.Get("X-Request-ID"))

	storableEvents, _, err := api.store.Query(
		api.baseCtx,
		eventstore.BuildEventFilter().Matching().AnyEventTypeOf(core.BookLentToStudentEventType).Finalize(),
	)
	require.NoError(t, err)
	require.Len(t, storableEvents, 1)

	metadata, err := shell.EventMetadataFrom(storableEvents[0])
	require.NoError(t, err)
	assert.Equal(t, requestID.String(), metadata.CorrelationID)
	assert.Equal(t, requestID.String(), metadata.CausationID)

	assert.True(t, api.logSpy.HasInfoLogWithMessage(httpapi.LogMsgRequestCompleted).
		WithAttribute(httpapi.LogAttrRequestID, requestID.String()).
		WithAttribute(httpapi.LogAttrStatus, "200").
		WithDurationMS().
		Assert())
}

func Test_API_Health_And_UnknownRoute(t *testing.T) {
	// arrange
	api := givenAPI(t)

	// act
	healthResp, healthRaw := api.do(t, http.MethodGet, "/health", nil)
	unknownResp, unknownRaw := api.do(t, http.MethodGet, "/api/nope", nil)

	// assert
	require.Equal(t, http.StatusOK, healthResp.StatusCode)
	health := decode[struct {
		Status   string `json:"status"`
		Books    int    `json:"books"`
		Students int    `json:"students"`
	}](t, healthRaw)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Books)
	assert.Equal(t, 3, health.Students)

	assert.Equal(t, http.StatusNotFound, unknownResp.StatusCode)
	assert.False(t, decode[errorBody](t, unknownRaw).Success)
}

func Test_API_Metrics(t *testing.T) {
	// arrange
	reader := sdkmetric.NewManualReader()
	collector := oteladapters.NewMetricsCollector(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))

	svc, err := service.Open(context.Background(), memengine.NewEventStore(), service.WithMetrics(collector))
	require.NoError(t, err)
	_, err = svc.AddBook(context.Background(), service.NewBook{ID: 1, ISBN: "1", Title: "One", TotalQuantity: 1})
	require.NoError(t, err)

	app := httpapi.New(svc, httpapi.WithMetrics(func(ctx context.Context) (any, error) {
		return oteladapters.Snapshot(ctx, reader)
	}))
	api := testAPI{app: app, svc: svc}

	// act
	resp, raw := api.do(t, http.MethodGet, "/metrics", nil)

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	points := decode[[]oteladapters.Point](t, raw)
	assert.True(t, slices.ContainsFunc(points, func(p oteladapters.Point) bool {
		return p.Name == shell.CommandHandlerCallsMetric && p.Labels[shell.LogAttrStatus] == shell.StatusSuccess
	}), string(raw))

	noMetricsResp, _ := givenAPI(t).do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, noMetricsResp.StatusCode)
}

func Test_API_Tracing_ContinuesTheCallersTrace(t *testing.T) {
	// arrange
	exporter := tracetest.NewInMemoryExporter()
	collector := oteladapters.NewTracingCollector(
		sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)).Tracer("test"),
	)

	svc, err := service.Open(context.Background(), memengine.NewEventStore(), service.WithTracing(collector))
	require.NoError(t, err)
	_, err = svc.AddBook(context.Background(), service.NewBook{ID: 1, ISBN: "1", Title: "One", TotalQuantity: 1})
	require.NoError(t, err)
	_, err = svc.EnrollStudent(context.Background(), service.NewStudent{ID: "S1", Name: "Ana Lima", ClassID: "1A"})
	require.NoError(t, err)
	exporter.Reset()

	app := httpapi.New(svc, httpapi.WithTracing(collector), httpapi.WithPropagator(propagation.TraceContext{}))
	api := testAPI{app: app, svc: svc}

	const callerTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	const callerSpanID = "00f067aa0ba902b7"

	payload, err := json.Marshal(map[string]any{"student_id": "S1", "book_id": 1})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/lend", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("traceparent", "00-"+callerTraceID+"-"+callerSpanID+"-01")

	// act
	resp, raw := api.send(t, req)
	notFoundResp, _ := api.do(t, http.MethodGet, "/api/students/S9/borrowed", nil)

	// assert
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	require.Equal(t, http.StatusNotFound, notFoundResp.StatusCode)

	var requestSpans []tracetest.SpanStub
	var commandSpan tracetest.SpanStub
	for _, span := range exporter.GetSpans() {
		switch span.Name {
		case httpapi.SpanNameRequest:
			requestSpans = append(requestSpans, span)
		case shell.SpanNameCommandHandle:
			commandSpan = span
		}
	}
	require.Len(t, requestSpans, 2)

	lendSpan := requestSpans[0]
	assert.Equal(t, callerTraceID, lendSpan.SpanContext.TraceID().String())
	assert.Equal(t, callerSpanID, lendSpan.Parent.SpanID().String())
	assert.Contains(t, lendSpan.Attributes, attribute.String(httpapi.SpanAttrStatusCode, "200"))
	assert.Equal(t, codes.Ok, lendSpan.Status.Code)

	assert.Equal(t, lendSpan.SpanContext.SpanID(), commandSpan.Parent.SpanID())

	unknownStudentSpan := requestSpans[1]
	assert.False(t, unknownStudentSpan.Parent.IsValid())
	assert.Contains(t, unknownStudentSpan.Attributes, attribute.String(httpapi.SpanAttrStatusCode, "404"))
	assert.Contains(t, unknownStudentSpan.Attributes, attribute.String("status", shell.StatusRejected))
}

func Test_StatusFor(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{err: core.ErrBookNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("%w: student S9", core.ErrStudentNotFound), want: http.StatusNotFound},
		{err: core.ErrOutOfStock, want: http.StatusConflict},
		{err: errors.Join(errors.New("append"), eventstore.ErrConcurrencyConflict), want: http.StatusConflict},
		{err: core.ErrNegativeQuantity, want: http.StatusBadRequest},
		{err: httpapi.ErrInvalidAsOf, want: http.StatusBadRequest},
		{err: fiber.ErrMethodNotAllowed, want: http.StatusMethodNotAllowed},
		{err: fmt.Errorf("%w: book 1", service.ErrReadModelOutOfSync), want: http.StatusInternalServerError},
		{err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, httpapi.StatusFor(tc.err))
		})
	}
}

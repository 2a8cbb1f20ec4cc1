package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/school-library/librarian/circulation/readmodel/search"
	"github.com/school-library/librarian/circulation/service"
	"github.com/school-library/librarian/circulation/shared/core"
)

func (s *server) health(c *fiber.Ctx) error {
	stats := s.circulation.Stats()

	return c.JSON(healthResponse{
		Status:      "ok",
		Books:       stats.Books,
		Students:    stats.Students,
		ActiveLoans: stats.ActiveLoans,
		TotalLoans:  stats.TotalLoans,
	})
}

func (s *server) metrics(c *fiber.Ctx) error {
	snapshot, err := s.metricsSnapshot(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(snapshot)
}

/***** books *****/

func (s *server) listBooks(c *fiber.Ctx) error {
	return c.JSON(toBookResponses(s.circulation.ListBooks()))
}

func (s *server) bookHistory(c *fiber.Ctx) error {
	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	history, err := s.circulation.GetBookHistory(bookID)
	if err != nil {
		return err
	}

	return c.JSON(toBookHistoryResponse(history))
}

func (s *server) borrowedBooks(c *fiber.Ctx) error {
	return c.JSON(toBookResponses(s.circulation.ListBorrowedBooks()))
}

// searchBooks answers short queries with an empty list and the reason in X-Search-Notice.
func (s *server) searchBooks(c *fiber.Ctx) error {
	query := c.Query("q")
	if err := search.ValidateQuery(query); err != nil {
		c.Set(headerSearchNotice, err.Error())
	}

	return c.JSON(toBookResponses(s.circulation.SearchBooks(query)))
}

func (s *server) addBook(c *fiber.Ctx) error {
	var req addBookRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	book, err := s.circulation.AddBook(c.UserContext(), service.NewBook{
		ID:            req.ID,
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		TotalQuantity: req.TotalQuantity,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toBookResponse(book))
}

func (s *server) restockBook(c *fiber.Ctx) error {
	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	var req restockRequest
	if err = s.parseBody(c, &req); err != nil {
		return err
	}

	book, err := s.circulation.RestockBook(c.UserContext(), bookID, req.TotalQuantity)
	if err != nil {
		return err
	}

	return c.JSON(toBookResponse(book))
}

/***** lending *****/

func (s *server) lend(c *fiber.Ctx) error {
	var req loanRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.circulation.Lend(c.UserContext(), req.StudentID, req.BookID)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("%s borrowed %q, due %s", result.Student.Name, result.Book.Title, result.DueDate.Format(core.DateLayout))

	return c.JSON(toLendReturnResponse(message, result))
}

func (s *server) returnBook(c *fiber.Ctx) error {
	var req loanRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.circulation.Return(c.UserContext(), req.StudentID, req.BookID)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("%s returned %q", result.Student.Name, result.Book.Title)

	return c.JSON(toLendReturnResponse(message, result))
}

func (s *server) classBorrowed(c *fiber.Ctx) error {
	result, err := s.circulation.ClassBorrowed(strings.TrimSpace(c.Params("classID")))
	if err != nil {
		return err
	}

	return c.JSON(toClassBorrowResponse(result))
}

/***** students *****/

func (s *server) enrollStudent(c *fiber.Ctx) error {
	var req enrollStudentRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	student, err := s.circulation.EnrollStudent(c.UserContext(), service.NewStudent{
		ID:        req.StudentID,
		Name:      req.StudentName,
		ClassID:   req.ClassID,
		ClassName: req.ClassName,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toStudentResponse(student))
}

func (s *server) studentBorrowed(c *fiber.Ctx) error {
	result, err := s.circulation.StudentBorrowed(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.JSON(toStudentBorrowResponse(result))
}

func (s *server) searchStudents(c *fiber.Ctx) error {
	query := c.Query("q")
	if err := search.ValidateQuery(query); err != nil {
		c.Set(headerSearchNotice, err.Error())
	}

	return c.JSON(toStudentResponses(s.circulation.SearchStudents(query)))
}

/***** reports *****/

func (s *server) overdueReport(c *fiber.Ctx) error {
	asOf, err := parseAsOf(c.Query("as_of"))
	if err != nil {
		return err
	}

	return c.JSON(toOverdueResponses(s.circulation.OverdueReport(asOf)))
}

func (s *server) classUsageReport(c *fiber.Ctx) error {
	reports, err := s.circulation.ClassUsageReport(strings.TrimSpace(c.Query("class_id")))
	if err != nil {
		return err
	}

	return c.JSON(toClassUsageResponses(reports))
}

/***** helpers *****/

const headerSearchNotice = "X-Search-Notice"

func (s *server) parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errors.Join(ErrMalformedBody, err)
	}

	return s.validate.Struct(req)
}

func bookIDParam(c *fiber.Ctx) (core.BookIDInt, error) {
	bookID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: book id %q is not a number", ErrInvalidPathParam, c.Params("id"))
	}

	return bookID, nil
}

// parseAsOf accepts what core.ParseDate does. Empty means now.
func parseAsOf(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}

	asOf, err := core.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidAsOf, raw)
	}

	return asOf, nil
}

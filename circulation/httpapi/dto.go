package httpapi

import (
	"time"

	"github.com/school-library/librarian/circulation/features/query/classborrowed"
	"github.com/school-library/librarian/circulation/features/query/classusage"
	"github.com/school-library/librarian/circulation/features/query/overdue"
	"github.com/school-library/librarian/circulation/features/query/studentborrowed"
	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/service"
	"github.com/school-library/librarian/circulation/shared/core"
)

/***** requests *****/

type loanRequest struct {
	StudentID core.StudentIDString `json:"student_id" validate:"required"`
	BookID    core.BookIDInt       `json:"book_id"    validate:"required,gt=0"`
}

type addBookRequest struct {
	ID            core.BookIDInt  `json:"id"             validate:"required,gt=0"`
	ISBN          core.ISBNString `json:"isbn"           validate:"required"`
	Title         string          `json:"title"          validate:"required"`
	Author        string          `json:"author"`
	TotalQuantity int             `json:"total_quantity" validate:"gte=0"`
}

type restockRequest struct {
	TotalQuantity int `json:"total_quantity" validate:"gte=0"`
}

type enrollStudentRequest struct {
	StudentID   core.StudentIDString `json:"student_id"   validate:"required"`
	StudentName string               `json:"student_name" validate:"required"`
	ClassID     core.ClassIDString   `json:"class_id"     validate:"required"`
	ClassName   string               `json:"class_name"`
}

/***** responses *****/

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type borrowerResponse struct {
	StudentID   core.StudentIDString `json:"student_id"`
	StudentName string               `json:"student_name"`
	ClassID     core.ClassIDString   `json:"class_id,omitempty"`
	BorrowDate  time.Time            `json:"borrow_date"`
	DueDate     time.Time            `json:"due_date"`
	ReturnDate  *time.Time           `json:"return_date,omitempty"`
}

type bookResponse struct {
	ID                core.BookIDInt     `json:"id"`
	Title             string             `json:"title"`
	Author            string             `json:"author"`
	ISBN              core.ISBNString    `json:"isbn"`
	TotalQuantity     int                `json:"total_quantity"`
	AvailableQuantity int                `json:"available_quantity"`
	BorrowedBy        []borrowerResponse `json:"borrowed_by"`
}

type bookHistoryResponse struct {
	BookID  core.BookIDInt     `json:"book_id"`
	Title   string             `json:"title"`
	History []borrowerResponse `json:"history"`
}

type classBorrowedBookResponse struct {
	BookID     core.BookIDInt     `json:"book_id"`
	Title      string             `json:"title"`
	BorrowedBy []borrowerResponse `json:"borrowed_by"`
}

type classBorrowResponse struct {
	ClassID       core.ClassIDString          `json:"class_id"`
	ClassName     string                      `json:"class_name"`
	BorrowedBooks []classBorrowedBookResponse `json:"borrowed_books"`
}

type studentRefResponse struct {
	StudentID   core.StudentIDString `json:"student_id"`
	StudentName string               `json:"student_name"`
}

type bookRefResponse struct {
	BookID core.BookIDInt `json:"book_id"`
	Title  string         `json:"title"`
}

type lendReturnResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Student    studentRefResponse `json:"student"`
	Book       bookRefResponse    `json:"book"`
	BorrowDate time.Time          `json:"borrow_date"`
	DueDate    time.Time          `json:"due_date"`
	ReturnDate *time.Time         `json:"return_date,omitempty"`
}

type studentLoanResponse struct {
	BookID     core.BookIDInt `json:"book_id"`
	Title      string         `json:"title"`
	BorrowDate time.Time      `json:"borrow_date"`
	DueDate    time.Time      `json:"due_date"`
	ReturnDate *time.Time     `json:"return_date,omitempty"`
}

type studentBorrowResponse struct {
	StudentID       core.StudentIDString  `json:"student_id"`
	StudentName     string                `json:"student_name"`
	ClassID         core.ClassIDString    `json:"class_id"`
	BooksBorrowed   int                   `json:"books_borrowed"`
	BooksReturned   int                   `json:"books_returned"`
	CurrentBorrowed []studentLoanResponse `json:"current_borrowed"`
	PastHistory     []studentLoanResponse `json:"past_history"`
}

type overdueResponse struct {
	BookID      core.BookIDInt   `json:"book_id"`
	Title       string           `json:"title"`
	Borrower    borrowerResponse `json:"borrower"`
	DueDate     time.Time        `json:"due_date"`
	DaysOverdue int              `json:"days_overdue"`
	Severity    overdue.Severity `json:"severity"`
}

type bookUsageResponse struct {
	BookID      core.BookIDInt `json:"book_id"`
	Title       string         `json:"title"`
	BorrowCount int            `json:"borrow_count"`
}

type classUsageResponse struct {
	ClassID            core.ClassIDString  `json:"class_id"`
	ClassName          string              `json:"class_name"`
	StudentCount       int                 `json:"student_count"`
	TotalBooksBorrowed int                 `json:"total_books_borrowed"`
	ActiveLoans        int                 `json:"active_loans"`
	MostBorrowedBooks  []bookUsageResponse `json:"most_borrowed_books"`
}

type studentResponse struct {
	StudentID   core.StudentIDString `json:"student_id"`
	StudentName string               `json:"student_name"`
	ClassID     core.ClassIDString   `json:"class_id"`
	ClassName   string               `json:"class_name"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Books       int    `json:"books"`
	Students    int    `json:"students"`
	ActiveLoans int    `json:"active_loans"`
	TotalLoans  int    `json:"total_loans"`
}

/***** mapping *****/

func toBorrowerResponse(borrower catalog.Borrower) borrowerResponse {
	return borrowerResponse{
		StudentID:   borrower.StudentID,
		StudentName: borrower.StudentName,
		ClassID:     borrower.ClassID,
		BorrowDate:  borrower.BorrowDate,
		DueDate:     borrower.DueDate,
	}
}

func toBorrowerResponses(borrowers []catalog.Borrower) []borrowerResponse {
	responses := make([]borrowerResponse, 0, len(borrowers))
	for _, borrower := range borrowers {
		responses = append(responses, toBorrowerResponse(borrower))
	}

	return responses
}

func toBookResponse(book catalog.Book) bookResponse {
	return bookResponse{
		ID:                book.ID,
		Title:             book.Title,
		Author:            book.Author,
		ISBN:              book.ISBN,
		TotalQuantity:     book.TotalQuantity,
		AvailableQuantity: book.AvailableQuantity(),
		BorrowedBy:        toBorrowerResponses(book.BorrowedBy),
	}
}

func toBookResponses(books []catalog.Book) []bookResponse {
	responses := make([]bookResponse, 0, len(books))
	for _, book := range books {
		responses = append(responses, toBookResponse(book))
	}

	return responses
}

func toBookHistoryResponse(history service.BookHistory) bookHistoryResponse {
	response := bookHistoryResponse{
		BookID:  history.Book.ID,
		Title:   history.Book.Title,
		History: make([]borrowerResponse, 0, len(history.History)),
	}

	for _, entry := range history.History {
		response.History = append(response.History, borrowerResponse{
			StudentID:   entry.StudentID,
			StudentName: entry.StudentName,
			BorrowDate:  entry.BorrowDate,
			DueDate:     entry.DueDate,
			ReturnDate:  entry.ReturnDate,
		})
	}

	return response
}

func toClassBorrowResponse(result classborrowed.ClassBorrow) classBorrowResponse {
	response := classBorrowResponse{
		ClassID:       result.ClassID,
		ClassName:     result.ClassName,
		BorrowedBooks: make([]classBorrowedBookResponse, 0, len(result.BorrowedBooks)),
	}

	for _, book := range result.BorrowedBooks {
		response.BorrowedBooks = append(response.BorrowedBooks, classBorrowedBookResponse{
			BookID:     book.BookID,
			Title:      book.Title,
			BorrowedBy: toBorrowerResponses(book.BorrowedBy),
		})
	}

	return response
}

func toLendReturnResponse(message string, result service.LendReturnResult) lendReturnResponse {
	return lendReturnResponse{
		Success:    true,
		Message:    message,
		Student:    studentRefResponse{StudentID: result.Student.ID, StudentName: result.Student.Name},
		Book:       bookRefResponse{BookID: result.Book.ID, Title: result.Book.Title},
		BorrowDate: result.BorrowDate,
		DueDate:    result.DueDate,
		ReturnDate: result.ReturnDate,
	}
}

func toStudentLoanResponses(loans []studentborrowed.BorrowedBook) []studentLoanResponse {
	responses := make([]studentLoanResponse, 0, len(loans))
	for _, loan := range loans {
		responses = append(responses, studentLoanResponse(loan))
	}

	return responses
}

func toStudentBorrowResponse(result studentborrowed.StudentBorrowOverview) studentBorrowResponse {
	return studentBorrowResponse{
		StudentID:       result.Student.ID,
		StudentName:     result.Student.Name,
		ClassID:         result.Student.ClassID,
		BooksBorrowed:   result.BooksBorrowed,
		BooksReturned:   result.BooksReturned,
		CurrentBorrowed: toStudentLoanResponses(result.CurrentBorrowed),
		PastHistory:     toStudentLoanResponses(result.PastHistory),
	}
}

func toOverdueResponses(entries []overdue.Entry) []overdueResponse {
	responses := make([]overdueResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, overdueResponse{
			BookID: entry.BookID,
			Title:  entry.Title,
			Borrower: borrowerResponse{
				StudentID:   entry.StudentID,
				StudentName: entry.StudentName,
				ClassID:     entry.ClassID,
				BorrowDate:  entry.BorrowDate,
				DueDate:     entry.DueDate,
			},
			DueDate:     entry.DueDate,
			DaysOverdue: entry.DaysOverdue,
			Severity:    entry.Severity,
		})
	}

	return responses
}

func toClassUsageResponses(reports []classusage.Report) []classUsageResponse {
	responses := make([]classUsageResponse, 0, len(reports))
	for _, report := range reports {
		usage := make([]bookUsageResponse, 0, len(report.MostBorrowedBooks))
		for _, book := range report.MostBorrowedBooks {
			usage = append(usage, bookUsageResponse(book))
		}

		responses = append(responses, classUsageResponse{
			ClassID:            report.ClassID,
			ClassName:          report.ClassName,
			StudentCount:       report.StudentCount,
			TotalBooksBorrowed: report.TotalBooksBorrowed,
			ActiveLoans:        report.ActiveLoans,
			MostBorrowedBooks:  usage,
		})
	}

	return responses
}

func toStudentResponse(student roster.Student) studentResponse {
	return studentResponse{
		StudentID:   student.ID,
		StudentName: student.Name,
		ClassID:     student.ClassID,
		ClassName:   student.ClassName,
	}
}

func toStudentResponses(students []roster.Student) []studentResponse {
	responses := make([]studentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, toStudentResponse(student))
	}

	return responses
}

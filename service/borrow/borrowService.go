package borrowsvc

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/OMARxKHALID/LMS-server/model"
	borrowrepo "github.com/OMARxKHALID/LMS-server/repository/borrow"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidDate     ErrCode = "INVALID_DATE"
	ErrUserNotFound    ErrCode = "USER_NOT_FOUND"
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrNoStock         ErrCode = "NO_STOCK"
	ErrDuplicateBorrow ErrCode = "DUPLICATE_BORROW"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Record = repository shape
type Record = borrowrepo.Record

type Repo interface {
	Insert(ctx context.Context, b *model.Borrow) error
	GetByID(ctx context.Context, id int64) (*model.Borrow, error)
	Complete(ctx context.Context, id int64, returnedAt time.Time, fine, borrowPrice float64) error
	ListRecords(ctx context.Context) ([]Record, error)
}

type BookRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Book, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	// Borrow reserves one copy for the user until expectedReturn and
	// quotes the borrow price for the whole period.
	Borrow(ctx context.Context, userID, bookID int64, expectedReturn time.Time) (*model.Borrow, error)

	// Return settles an open borrow: late fine or early refund, never
	// both, and the copy goes back on the shelf.
	Return(ctx context.Context, borrowID int64) (*model.Borrow, error)

	// Records lists all borrows with user and book details.
	Records(ctx context.Context) ([]Record, error)
}

type service struct {
	r   Repo
	br  BookRepo
	ur  UserRepo
	now func() time.Time
}

func New(r Repo, br BookRepo, ur UserRepo) Service {
	return &service{r: r, br: br, ur: ur, now: time.Now}
}

// NewWithClock pins "now" for tests.
func NewWithClock(r Repo, br BookRepo, ur UserRepo, now func() time.Time) Service {
	return &service{r: r, br: br, ur: ur, now: now}
}

func (s *service) Borrow(ctx context.Context, userID, bookID int64, expectedReturn time.Time) (*model.Borrow, error) {
	now := s.now()
	if expectedReturn.IsZero() || !expectedReturn.After(now) {
		return nil, makeErr(ErrInvalidDate)
	}

	if _, err := s.ur.GetByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	book, err := s.br.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	if book.AvailableCopies <= 0 {
		return nil, makeErr(ErrNoStock)
	}

	days := ceilDays(now, expectedReturn)
	borrow := &model.Borrow{
		BorrowedBy:         userID,
		BorrowedBook:       bookID,
		BorrowedDate:       now,
		ExpectedReturnDate: expectedReturn,
		Status:             model.BorrowOpen,
		TotalBorrowPrice:   round2(float64(days) * book.BorrowPrice),
		TotalPrice:         book.Price,
	}

	if err := s.r.Insert(ctx, borrow); err != nil {
		switch {
		case errors.Is(err, borrowrepo.ErrNoStock):
			return nil, makeErr(ErrNoStock)
		case errors.Is(err, borrowrepo.ErrDuplicateBorrow):
			return nil, makeErr(ErrDuplicateBorrow)
		}
		return nil, err
	}
	return borrow, nil
}

func (s *service) Return(ctx context.Context, borrowID int64) (*model.Borrow, error) {
	borrow, err := s.r.GetByID(ctx, borrowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if borrow.Status == model.BorrowReturned {
		return nil, makeErr(ErrAlreadyReturned)
	}

	book, err := s.br.GetByID(ctx, borrow.BorrowedBook)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}

	now := s.now()
	fine := 0.0
	price := borrow.TotalBorrowPrice

	// Late fine and early refund are mutually exclusive.
	if lateDays := floorDays(borrow.ExpectedReturnDate, now); lateDays > 0 {
		fine = round2(float64(lateDays) * book.BorrowFine)
	} else if now.Before(borrow.ExpectedReturnDate) {
		totalDays := ceilDays(borrow.BorrowedDate, borrow.ExpectedReturnDate)
		unusedDays := int(borrow.ExpectedReturnDate.Sub(now).Hours() / 24)
		if totalDays > 0 && unusedDays > 0 {
			daily := borrow.TotalBorrowPrice / float64(totalDays)
			price = round2(math.Max(0, borrow.TotalBorrowPrice-float64(unusedDays)*daily))
		}
	}

	if err := s.r.Complete(ctx, borrow.ID, now, fine, price); err != nil {
		if errors.Is(err, borrowrepo.ErrNotOpen) {
			return nil, makeErr(ErrAlreadyReturned)
		}
		return nil, err
	}

	borrow.Status = model.BorrowReturned
	borrow.ReturnDate = &now
	borrow.TotalBorrowedFine = fine
	borrow.TotalBorrowPrice = price
	return borrow, nil
}

func (s *service) Records(ctx context.Context) ([]Record, error) {
	return s.r.ListRecords(ctx)
}

// ceilDays counts started days between from and to, charging partial
// days in full.
func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// floorDays counts whole calendar days from a to b, midnight to
// midnight; zero or negative means b is not past a.
func floorDays(a, b time.Time) int {
	return int(midnight(b).Sub(midnight(a)).Hours() / 24)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

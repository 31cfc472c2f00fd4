package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/OMARxKHALID/LMS-server/model"
)

var (
	ErrBadInput    = errors.New("title, author and isbn are required")
	ErrInvalidISBN = errors.New("invalid isbn format")
	ErrISBNTaken   = errors.New("book with this isbn already exists")
	ErrNotFound    = errors.New("book not found")
	ErrInUse       = errors.New("book is referenced by borrow or purchase records")
)

// ISBN-10 or ISBN-13, digits only
var isbnRe = regexp.MustCompile(`^(97(8|9))?\d{9}(\d|X)$`)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

type UpdateReq struct {
	Title       string
	Author      string
	ISBN        string
	Description string
	Publisher   string
	Category    string
	TotalCopies int64
	Price       float64
	BorrowPrice float64
	BorrowFine  float64
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	Get(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id int64, req UpdateReq) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.Title == "" || b.Author == "" || b.ISBN == "" {
		return nil, ErrBadInput
	}
	if !isbnRe.MatchString(b.ISBN) {
		return nil, ErrInvalidISBN
	}
	if b.TotalCopies <= 0 {
		b.TotalCopies = 1
	}
	b.AvailableCopies = b.TotalCopies

	if err := s.r.Create(ctx, b); err != nil {
		if derr := mapPgErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *service) List(ctx context.Context) ([]model.Book, error) {
	return s.r.List(ctx)
}

func (s *service) Update(ctx context.Context, id int64, req UpdateReq) (*model.Book, error) {
	b, err := s.r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.ISBN != "" && !isbnRe.MatchString(req.ISBN) {
		return nil, ErrInvalidISBN
	}

	// A change of total_copies keeps the number of copies currently out
	// on loan or sold: available = new_total - (old_total - old_available).
	if req.TotalCopies > 0 && req.TotalCopies != b.TotalCopies {
		out := b.TotalCopies - b.AvailableCopies
		avail := req.TotalCopies - out
		if avail < 0 {
			avail = 0
		}
		b.TotalCopies = req.TotalCopies
		b.AvailableCopies = avail
	}
	if req.Title != "" {
		b.Title = req.Title
	}
	if req.Author != "" {
		b.Author = req.Author
	}
	if req.ISBN != "" {
		b.ISBN = req.ISBN
	}
	if req.Description != "" {
		b.Description = req.Description
	}
	if req.Publisher != "" {
		b.Publisher = req.Publisher
	}
	if req.Category != "" {
		b.Category = req.Category
	}
	if req.Price > 0 {
		b.Price = req.Price
	}
	if req.BorrowPrice > 0 {
		b.BorrowPrice = req.BorrowPrice
	}
	if req.BorrowFine > 0 {
		b.BorrowFine = req.BorrowFine
	}

	if err := s.r.Update(ctx, b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if derr := mapPgErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.r.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if derr := mapPgErr(err); derr != nil {
			return derr
		}
	}
	return err
}

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if strings.Contains(strings.ToLower(pgErr.ConstraintName), "isbn") {
			return ErrISBNTaken
		}
	case pgerrcode.ForeignKeyViolation:
		// Borrows and transactions reference books with ON DELETE RESTRICT.
		return ErrInUse
	}
	return nil
}

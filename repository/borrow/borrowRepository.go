package borrowrepo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/OMARxKHALID/LMS-server/model"
)

var (
	// ErrNoStock: the guarded stock decrement matched no row.
	ErrNoStock = errors.New("no available copies")
	// ErrDuplicateBorrow: the partial unique index on open borrows fired.
	ErrDuplicateBorrow = errors.New("open borrow already exists for user and book")
	// ErrNotOpen: the borrow was already settled when Complete ran.
	ErrNotOpen = errors.New("borrow is not open")
)

type Record struct {
	BorrowID   int64      `json:"borrow_id"`
	UserID     int64      `json:"user_id"`
	UserName   string     `json:"user_name"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	Status     string     `json:"status"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Price      float64    `json:"price"`
	Fine       float64    `json:"fine"`
}

type Repo interface {
	// Insert reserves one copy and creates the borrow in one transaction.
	Insert(ctx context.Context, b *model.Borrow) error
	GetByID(ctx context.Context, id int64) (*model.Borrow, error)
	// Complete settles an open borrow and releases its copy in one
	// transaction. The WHERE status='borrowed' guard makes a second
	// concurrent return lose with ErrNotOpen.
	Complete(ctx context.Context, id int64, returnedAt time.Time, fine, borrowPrice float64) error
	ListRecords(ctx context.Context) ([]Record, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, b *model.Borrow) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin borrow tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Guard: only reserve while a copy is left.
	const reserve = `
UPDATE books
SET available_copies = available_copies - 1
WHERE id = $1
  AND available_copies > 0`
	res, err := tx.ExecContext(ctx, reserve, b.BorrowedBook)
	if err != nil {
		return errors.Wrap(err, "reserve copy")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoStock
	}

	const ins = `
INSERT INTO borrows (borrowed_by, borrowed_book, borrowed_date, expected_return_date,
                     status, total_borrow_price, total_price)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id`
	err = tx.QueryRowContext(ctx, ins,
		b.BorrowedBy, b.BorrowedBook, b.BorrowedDate, b.ExpectedReturnDate,
		b.Status, b.TotalBorrowPrice, b.TotalPrice,
	).Scan(&b.ID)
	if err != nil {
		if isOpenBorrowConflict(err) {
			return ErrDuplicateBorrow
		}
		return errors.Wrap(err, "insert borrow")
	}
	return tx.Commit()
}

func isOpenBorrowConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		strings.Contains(strings.ToLower(pgErr.ConstraintName), "open")
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Borrow, error) {
	const q = `
SELECT id, borrowed_by, borrowed_book, borrowed_date, expected_return_date,
       return_date, status, total_borrow_price, total_borrowed_fine, total_price
FROM borrows
WHERE id = $1`
	b := &model.Borrow{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.BorrowedBy, &b.BorrowedBook, &b.BorrowedDate, &b.ExpectedReturnDate,
		&b.ReturnDate, &b.Status, &b.TotalBorrowPrice, &b.TotalBorrowedFine, &b.TotalPrice,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Complete(ctx context.Context, id int64, returnedAt time.Time, fine, borrowPrice float64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin return tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const settle = `
UPDATE borrows
SET status = 'returned',
    return_date = $2,
    total_borrowed_fine = $3,
    total_borrow_price = $4
WHERE id = $1
  AND status = 'borrowed'`
	res, err := tx.ExecContext(ctx, settle, id, returnedAt, fine, borrowPrice)
	if err != nil {
		return errors.Wrap(err, "settle borrow")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotOpen
	}

	// Release the copy, capped at total_copies.
	const release = `
UPDATE books
SET available_copies = available_copies + 1
WHERE id = (SELECT borrowed_book FROM borrows WHERE id = $1)
  AND available_copies < total_copies`
	res, err = tx.ExecContext(ctx, release, id)
	if err != nil {
		return errors.Wrap(err, "release copy")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("release copy: available_copies already at total_copies")
	}
	return tx.Commit()
}

func (r *repo) ListRecords(ctx context.Context) ([]Record, error) {
	const q = `
SELECT br.id, br.borrowed_by, u.user_name, br.borrowed_book, b.title,
       br.status, br.borrowed_date, br.expected_return_date, br.return_date,
       br.total_borrow_price, br.total_borrowed_fine
FROM borrows br
JOIN users u ON u.id = br.borrowed_by
JOIN books b ON b.id = br.borrowed_book
ORDER BY br.borrowed_date DESC, br.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list borrow records")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.BorrowID, &rec.UserID, &rec.UserName, &rec.BookID, &rec.BookTitle,
			&rec.Status, &rec.BorrowedAt, &rec.DueAt, &rec.ReturnedAt,
			&rec.Price, &rec.Fine,
		); err != nil {
			return nil, errors.Wrap(err, "scan borrow record")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

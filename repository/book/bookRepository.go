package bookrepo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/OMARxKHALID/LMS-server/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const bookCols = `id, title, author, isbn, description, publisher, category,
       total_copies, available_copies, price, borrow_price, borrow_fine,
       is_purchased, purchased_date, created_at`

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (title, author, isbn, description, publisher, category,
                   total_copies, available_copies, price, borrow_price, borrow_fine)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Description, b.Publisher, b.Category,
		b.TotalCopies, b.AvailableCopies, b.Price, b.BorrowPrice, b.BorrowFine,
	).Scan(&b.ID, &b.CreatedAt)
	return errors.Wrap(err, "insert book")
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id=$1`
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Publisher, &b.Category,
		&b.TotalCopies, &b.AvailableCopies, &b.Price, &b.BorrowPrice, &b.BorrowFine,
		&b.IsPurchased, &b.PurchasedDate, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Publisher, &b.Category,
			&b.TotalCopies, &b.AvailableCopies, &b.Price, &b.BorrowPrice, &b.BorrowFine,
			&b.IsPurchased, &b.PurchasedDate, &b.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan book")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
UPDATE books
SET title=$2, author=$3, isbn=$4, description=$5, publisher=$6, category=$7,
    total_copies=$8, available_copies=$9, price=$10, borrow_price=$11, borrow_fine=$12
WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Author, b.ISBN, b.Description, b.Publisher, b.Category,
		b.TotalCopies, b.AvailableCopies, b.Price, b.BorrowPrice, b.BorrowFine,
	)
	if err != nil {
		return errors.Wrap(err, "update book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

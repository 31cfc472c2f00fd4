package earningsrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/pkg/errors"
)

const dialectPostgres = "postgres"

// Row is one earning event inside a window: either a borrow (amount =
// total_borrow_price keyed by borrowed_date) or a successful purchase
// transaction (amount = total_price keyed by created_at).
type Row struct {
	Date     time.Time
	Amount   float64
	BookID   int64
	Title    string
	Category string
}

type Repo interface {
	// BorrowEarnings returns rows for borrows whose borrowed_date falls
	// in [from, to).
	BorrowEarnings(ctx context.Context, from, to time.Time) ([]Row, error)
	// TransactionEarnings returns rows for successful transactions whose
	// created_at falls in [from, to).
	TransactionEarnings(ctx context.Context, from, to time.Time) ([]Row, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) BorrowEarnings(ctx context.Context, from, to time.Time) ([]Row, error) {
	ds := goqu.Dialect(dialectPostgres).
		From(goqu.T("borrows").As("br")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("br.borrowed_book")))).
		Where(
			goqu.I("br.borrowed_date").Gte(from),
			goqu.I("br.borrowed_date").Lt(to),
		).
		Select(
			goqu.I("br.borrowed_date"),
			goqu.I("br.total_borrow_price"),
			goqu.I("b.id"),
			goqu.I("b.title"),
			goqu.I("b.category"),
		).
		Order(goqu.I("br.borrowed_date").Asc(), goqu.I("br.id").Asc())

	return r.query(ctx, ds, "borrow earnings")
}

func (r *repo) TransactionEarnings(ctx context.Context, from, to time.Time) ([]Row, error) {
	ds := goqu.Dialect(dialectPostgres).
		From(goqu.T("transactions").As("t")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("t.book_id")))).
		Where(
			goqu.I("t.status").Eq("success"),
			goqu.I("t.created_at").Gte(from),
			goqu.I("t.created_at").Lt(to),
		).
		Select(
			goqu.I("t.created_at"),
			goqu.I("t.total_price"),
			goqu.I("b.id"),
			goqu.I("b.title"),
			goqu.I("b.category"),
		).
		Order(goqu.I("t.created_at").Asc(), goqu.I("t.id").Asc())

	return r.query(ctx, ds, "transaction earnings")
}

func (r *repo) query(ctx context.Context, ds *goqu.SelectDataset, what string) ([]Row, error) {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s query", what)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", what)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Date, &row.Amount, &row.BookID, &row.Title, &row.Category); err != nil {
			return nil, errors.Wrapf(err, "scan %s row", what)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

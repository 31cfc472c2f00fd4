package userrepo

import (
	"context"
	"database/sql"

	"github.com/OMARxKHALID/LMS-server/model"
)

// Repo is read-only on purpose: the wallet balance is only ever
// mutated through guarded UPDATEs inside the purchase and installment
// transactions, never through a plain save here.
type Repo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
SELECT id, user_name, email, full_name, wallet_balance, status, created_at
FROM users
WHERE id = $1`
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.UserName, &u.Email, &u.FullName, &u.WalletBalance, &u.Status, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

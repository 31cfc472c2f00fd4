package transactionrepo

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
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrNoStock           = errors.New("not enough copies available")
	// ErrActivePlan: the partial unique index on active plans fired.
	ErrActivePlan = errors.New("active installment plan already exists for user and book")
)

type Repo interface {
	// PurchaseFull debits the wallet, takes the stock, marks the book
	// purchased and records the transaction, all in one tx.
	PurchaseFull(ctx context.Context, t *model.Transaction, purchasedAt time.Time) error
	// PurchaseInstallment does the same for the first installment: the
	// wallet is debited by one installment amount, the plan is created
	// with payment 1 already in its history.
	PurchaseInstallment(ctx context.Context, plan *model.InstallmentPlan, t *model.Transaction) error
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

// Guard: only debit while the balance covers the amount.
const debitWallet = `
UPDATE users
SET wallet_balance = wallet_balance - $2
WHERE id = $1
  AND wallet_balance >= $2`

const takeStock = `
UPDATE books
SET available_copies = available_copies - $2,
    is_purchased = TRUE,
    purchased_date = $3
WHERE id = $1
  AND available_copies >= $2`

const insertTx = `
INSERT INTO transactions (user_id, book_id, quantity, total_price, status,
                          payment_type, installment_plan_id, payment_number, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`

func (r *repo) PurchaseFull(ctx context.Context, t *model.Transaction, purchasedAt time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin purchase tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = debit(ctx, tx, t.UserID, t.TotalPrice); err != nil {
		return err
	}
	if err = take(ctx, tx, t.BookID, t.Quantity, purchasedAt); err != nil {
		return err
	}
	if err = insert(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) PurchaseInstallment(ctx context.Context, plan *model.InstallmentPlan, t *model.Transaction) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin installment purchase tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// First installment is paid at purchase time.
	if err = debit(ctx, tx, t.UserID, plan.AmountPerInstallment); err != nil {
		return err
	}
	if err = take(ctx, tx, t.BookID, t.Quantity, plan.StartDate); err != nil {
		return err
	}

	const insPlan = `
INSERT INTO installment_plans (user_id, book_id, quantity, plan_months, total_amount,
                               amount_per_installment, paid_installments, total_installments,
                               start_date, next_payment_date, status, is_completed)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id`
	err = tx.QueryRowContext(ctx, insPlan,
		plan.UserID, plan.BookID, plan.Quantity, plan.PlanMonths, plan.TotalAmount,
		plan.AmountPerInstallment, plan.PaidInstallments, plan.TotalInstallments,
		plan.StartDate, plan.NextPaymentDate, plan.Status, plan.IsCompleted,
	).Scan(&plan.ID)
	if err != nil {
		if isActivePlanConflict(err) {
			return ErrActivePlan
		}
		return errors.Wrap(err, "insert installment plan")
	}

	const insPayment = `
INSERT INTO installment_payments (plan_id, payment_number, amount, paid_at, status)
VALUES ($1,1,$2,$3,'success')`
	if _, err = tx.ExecContext(ctx, insPayment, plan.ID, plan.AmountPerInstallment, plan.StartDate); err != nil {
		return errors.Wrap(err, "insert first installment payment")
	}

	t.InstallmentPlanID = &plan.ID
	if err = insert(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func debit(ctx context.Context, tx *sql.Tx, userID int64, amount float64) error {
	res, err := tx.ExecContext(ctx, debitWallet, userID, amount)
	if err != nil {
		return errors.Wrap(err, "debit wallet")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func take(ctx context.Context, tx *sql.Tx, bookID, qty int64, purchasedAt time.Time) error {
	res, err := tx.ExecContext(ctx, takeStock, bookID, qty, purchasedAt)
	if err != nil {
		return errors.Wrap(err, "take stock")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoStock
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	err := tx.QueryRowContext(ctx, insertTx,
		t.UserID, t.BookID, t.Quantity, t.TotalPrice, t.Status,
		t.PaymentType, t.InstallmentPlanID, t.PaymentNumber, t.CreatedAt,
	).Scan(&t.ID)
	return errors.Wrap(err, "insert transaction")
}

func isActivePlanConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		strings.Contains(strings.ToLower(pgErr.ConstraintName), "active")
}

const txCols = `id, user_id, book_id, quantity, total_price, status,
       payment_type, installment_plan_id, payment_number, created_at`

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	const q = `SELECT ` + txCols + ` FROM transactions WHERE id=$1`
	t := &model.Transaction{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.UserID, &t.BookID, &t.Quantity, &t.TotalPrice, &t.Status,
		&t.PaymentType, &t.InstallmentPlanID, &t.PaymentNumber, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	const q = `SELECT ` + txCols + ` FROM transactions WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.BookID, &t.Quantity, &t.TotalPrice, &t.Status,
			&t.PaymentType, &t.InstallmentPlanID, &t.PaymentNumber, &t.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan transaction")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

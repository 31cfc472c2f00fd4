package installmentrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/OMARxKHALID/LMS-server/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrNotActive: the guarded plan update matched no row, either the
	// plan left the active state or a concurrent payment advanced it.
	ErrNotActive = errors.New("plan is not active at the expected installment")
)

// ApplyPaymentParams carries one installment payment. PaymentNumber is
// the ordinal being paid; the update only matches while the plan still
// sits at PaymentNumber-1 paid installments.
type ApplyPaymentParams struct {
	PlanID          int64
	UserID          int64
	BookID          int64
	Quantity        int64
	Amount          float64
	PaymentNumber   int
	PaidAt          time.Time
	NextPaymentDate time.Time
	Completes       bool
}

type Repo interface {
	GetPlan(ctx context.Context, id int64) (*model.InstallmentPlan, error)
	// ApplyPayment debits the wallet, advances the plan and records both
	// the history row and the payment transaction in one tx.
	ApplyPayment(ctx context.Context, p ApplyPaymentParams) error
	ListPayments(ctx context.Context, planID int64) ([]model.PlanPayment, error)
	ListPlansByUser(ctx context.Context, userID int64) ([]model.InstallmentPlan, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const planCols = `id, user_id, book_id, quantity, plan_months, total_amount,
       amount_per_installment, paid_installments, total_installments,
       start_date, next_payment_date, status, is_completed`

func (r *repo) GetPlan(ctx context.Context, id int64) (*model.InstallmentPlan, error) {
	const q = `SELECT ` + planCols + ` FROM installment_plans WHERE id=$1`
	p := &model.InstallmentPlan{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.UserID, &p.BookID, &p.Quantity, &p.PlanMonths, &p.TotalAmount,
		&p.AmountPerInstallment, &p.PaidInstallments, &p.TotalInstallments,
		&p.StartDate, &p.NextPaymentDate, &p.Status, &p.IsCompleted,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repo) ApplyPayment(ctx context.Context, p ApplyPaymentParams) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin installment tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const debit = `
UPDATE users
SET wallet_balance = wallet_balance - $2
WHERE id = $1
  AND wallet_balance >= $2`
	res, err := tx.ExecContext(ctx, debit, p.UserID, p.Amount)
	if err != nil {
		return errors.Wrap(err, "debit wallet")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientFunds
	}

	const advance = `
UPDATE installment_plans
SET paid_installments = paid_installments + 1,
    next_payment_date = $3,
    status = CASE WHEN $4 THEN 'completed' ELSE status END,
    is_completed = $4
WHERE id = $1
  AND status = 'active'
  AND paid_installments = $2 - 1`
	res, err = tx.ExecContext(ctx, advance, p.PlanID, p.PaymentNumber, p.NextPaymentDate, p.Completes)
	if err != nil {
		return errors.Wrap(err, "advance plan")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotActive
	}

	const insPayment = `
INSERT INTO installment_payments (plan_id, payment_number, amount, paid_at, status)
VALUES ($1,$2,$3,$4,'success')`
	if _, err = tx.ExecContext(ctx, insPayment, p.PlanID, p.PaymentNumber, p.Amount, p.PaidAt); err != nil {
		return errors.Wrap(err, "insert installment payment")
	}

	const insTx = `
INSERT INTO transactions (user_id, book_id, quantity, total_price, status,
                          payment_type, installment_plan_id, payment_number, created_at)
VALUES ($1,$2,$3,$4,'success','installment',$5,$6,$7)`
	if _, err = tx.ExecContext(ctx, insTx,
		p.UserID, p.BookID, p.Quantity, p.Amount, p.PlanID, p.PaymentNumber, p.PaidAt,
	); err != nil {
		return errors.Wrap(err, "insert payment transaction")
	}
	return tx.Commit()
}

func (r *repo) ListPayments(ctx context.Context, planID int64) ([]model.PlanPayment, error) {
	const q = `
SELECT id, plan_id, payment_number, amount, paid_at, status
FROM installment_payments
WHERE plan_id = $1
ORDER BY payment_number`
	rows, err := r.db.QueryContext(ctx, q, planID)
	if err != nil {
		return nil, errors.Wrap(err, "list installment payments")
	}
	defer rows.Close()

	var out []model.PlanPayment
	for rows.Next() {
		var pp model.PlanPayment
		if err := rows.Scan(&pp.ID, &pp.PlanID, &pp.PaymentNumber, &pp.Amount, &pp.PaidAt, &pp.Status); err != nil {
			return nil, errors.Wrap(err, "scan installment payment")
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

func (r *repo) ListPlansByUser(ctx context.Context, userID int64) ([]model.InstallmentPlan, error) {
	const q = `SELECT ` + planCols + ` FROM installment_plans WHERE user_id=$1 ORDER BY start_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list plans")
	}
	defer rows.Close()

	var out []model.InstallmentPlan
	for rows.Next() {
		var p model.InstallmentPlan
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.BookID, &p.Quantity, &p.PlanMonths, &p.TotalAmount,
			&p.AmountPerInstallment, &p.PaidInstallments, &p.TotalInstallments,
			&p.StartDate, &p.NextPaymentDate, &p.Status, &p.IsCompleted,
		); err != nil {
			return nil, errors.Wrap(err, "scan plan")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package installmentsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/OMARxKHALID/LMS-server/model"
	installmentrepo "github.com/OMARxKHALID/LMS-server/repository/installment"
)

type ErrCode string

const (
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrAlreadyCompleted  ErrCode = "ALREADY_COMPLETED"
	ErrPlanNotActive     ErrCode = "PLAN_NOT_ACTIVE"
	ErrInsufficientFunds ErrCode = "INSUFFICIENT_FUNDS"
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

// Detail is a plan with its payment history.
type Detail struct {
	Plan     *model.InstallmentPlan `json:"plan"`
	Payments []model.PlanPayment    `json:"payments"`
}

type Repo interface {
	GetPlan(ctx context.Context, id int64) (*model.InstallmentPlan, error)
	ApplyPayment(ctx context.Context, p installmentrepo.ApplyPaymentParams) error
	ListPayments(ctx context.Context, planID int64) ([]model.PlanPayment, error)
	ListPlansByUser(ctx context.Context, userID int64) ([]model.InstallmentPlan, error)
}

type Service interface {
	// Pay debits one installment from the user's wallet and advances
	// the plan; the plan completes on the final payment.
	Pay(ctx context.Context, planID int64) (*model.InstallmentPlan, error)

	// Get returns the plan with its ordered payment history.
	Get(ctx context.Context, planID int64) (*Detail, error)

	// PlansByUser lists a user's plans, newest first.
	PlansByUser(ctx context.Context, userID int64) ([]model.InstallmentPlan, error)
}

type service struct {
	r   Repo
	now func() time.Time
}

func New(r Repo) Service { return &service{r: r, now: time.Now} }

// NewWithClock pins "now" for tests.
func NewWithClock(r Repo, now func() time.Time) Service {
	return &service{r: r, now: now}
}

func (s *service) Pay(ctx context.Context, planID int64) (*model.InstallmentPlan, error) {
	plan, err := s.r.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if plan.IsCompleted || plan.Status == model.PlanCompleted {
		return nil, makeErr(ErrAlreadyCompleted)
	}
	if plan.Status != model.PlanActive {
		return nil, makeErr(ErrPlanNotActive)
	}

	number := plan.PaidInstallments + 1
	completes := number == plan.TotalInstallments
	next := plan.NextPaymentDate.AddDate(0, 1, 0)
	now := s.now()

	err = s.r.ApplyPayment(ctx, installmentrepo.ApplyPaymentParams{
		PlanID:          plan.ID,
		UserID:          plan.UserID,
		BookID:          plan.BookID,
		Quantity:        plan.Quantity,
		Amount:          plan.AmountPerInstallment,
		PaymentNumber:   number,
		PaidAt:          now,
		NextPaymentDate: next,
		Completes:       completes,
	})
	if err != nil {
		switch {
		case errors.Is(err, installmentrepo.ErrInsufficientFunds):
			return nil, makeErr(ErrInsufficientFunds)
		case errors.Is(err, installmentrepo.ErrNotActive):
			// Lost the race: a concurrent payment moved the plan on, or
			// it left the active state.
			return nil, makeErr(ErrPlanNotActive)
		}
		return nil, err
	}

	plan.PaidInstallments = number
	plan.NextPaymentDate = next
	if completes {
		plan.Status = model.PlanCompleted
		plan.IsCompleted = true
	}
	return plan, nil
}

func (s *service) Get(ctx context.Context, planID int64) (*Detail, error) {
	plan, err := s.r.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	payments, err := s.r.ListPayments(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &Detail{Plan: plan, Payments: payments}, nil
}

func (s *service) PlansByUser(ctx context.Context, userID int64) ([]model.InstallmentPlan, error) {
	return s.r.ListPlansByUser(ctx, userID)
}

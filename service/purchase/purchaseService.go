package purchasesvc

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/OMARxKHALID/LMS-server/model"
	transactionrepo "github.com/OMARxKHALID/LMS-server/repository/transaction"
)

// interest applied to the principal of every installment plan
const installmentInterest = 0.05

var validPlanMonths = map[int]bool{3: true, 6: true, 12: true}

type ErrCode string

const (
	ErrInvalidPayment    ErrCode = "INVALID_PAYMENT"
	ErrUserNotFound      ErrCode = "USER_NOT_FOUND"
	ErrBookNotFound      ErrCode = "BOOK_NOT_FOUND"
	ErrNoStock           ErrCode = "NO_STOCK"
	ErrInsufficientFunds ErrCode = "INSUFFICIENT_FUNDS"
	ErrActivePlan        ErrCode = "DUPLICATE_ACTIVE_PLAN"
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

// Result is what one purchase produced: always a transaction, plus the
// plan when the payment was an installment one.
type Result struct {
	Transaction *model.Transaction     `json:"transaction"`
	Plan        *model.InstallmentPlan `json:"installment_plan,omitempty"`
}

type Repo interface {
	PurchaseFull(ctx context.Context, t *model.Transaction, purchasedAt time.Time) error
	PurchaseInstallment(ctx context.Context, plan *model.InstallmentPlan, t *model.Transaction) error
}

type BookRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Book, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	Purchase(ctx context.Context, userID, bookID, quantity int64, pay model.Payment) (*Result, error)
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

func (s *service) Purchase(ctx context.Context, userID, bookID, quantity int64, pay model.Payment) (*Result, error) {
	if quantity < 1 || pay == nil {
		return nil, makeErr(ErrInvalidPayment)
	}
	inst, isInstallment := pay.(model.InstallmentPayment)
	if isInstallment && !validPlanMonths[inst.Months] {
		return nil, makeErr(ErrInvalidPayment)
	}

	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
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
	if book.AvailableCopies < quantity {
		return nil, makeErr(ErrNoStock)
	}

	totalPrice := round2(book.Price * float64(quantity))
	if isInstallment {
		return s.purchaseInstallment(ctx, user, book, quantity, totalPrice, inst.Months)
	}
	return s.purchaseFull(ctx, user, book, quantity, totalPrice)
}

func (s *service) purchaseFull(ctx context.Context, user *model.User, book *model.Book, quantity int64, totalPrice float64) (*Result, error) {
	if user.WalletBalance < totalPrice {
		return nil, makeErr(ErrInsufficientFunds)
	}

	now := s.now()
	t := &model.Transaction{
		UserID:      user.ID,
		BookID:      book.ID,
		Quantity:    quantity,
		TotalPrice:  totalPrice,
		Status:      model.TxSuccess,
		PaymentType: model.PaymentFull,
		CreatedAt:   now,
	}
	if err := s.r.PurchaseFull(ctx, t, now); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return &Result{Transaction: t}, nil
}

func (s *service) purchaseInstallment(ctx context.Context, user *model.User, book *model.Book, quantity int64, totalPrice float64, months int) (*Result, error) {
	totalAmount := round2(totalPrice * (1 + installmentInterest))
	perInstallment := round2(totalAmount / float64(months))
	if user.WalletBalance < perInstallment {
		return nil, makeErr(ErrInsufficientFunds)
	}

	now := s.now()
	plan := &model.InstallmentPlan{
		UserID:               user.ID,
		BookID:               book.ID,
		Quantity:             quantity,
		PlanMonths:           months,
		TotalAmount:          totalAmount,
		AmountPerInstallment: perInstallment,
		PaidInstallments:     1,
		TotalInstallments:    months,
		StartDate:            now,
		NextPaymentDate:      now.AddDate(0, 1, 0),
		Status:               model.PlanActive,
	}
	first := 1
	t := &model.Transaction{
		UserID:        user.ID,
		BookID:        book.ID,
		Quantity:      quantity,
		TotalPrice:    perInstallment,
		Status:        model.TxSuccess,
		PaymentType:   model.PaymentInstallment,
		PaymentNumber: &first,
		CreatedAt:     now,
	}
	if err := s.r.PurchaseInstallment(ctx, plan, t); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return &Result{Transaction: t, Plan: plan}, nil
}

func (s *service) mapRepoErr(err error) error {
	switch {
	case errors.Is(err, transactionrepo.ErrInsufficientFunds):
		return makeErr(ErrInsufficientFunds)
	case errors.Is(err, transactionrepo.ErrNoStock):
		return makeErr(ErrNoStock)
	case errors.Is(err, transactionrepo.ErrActivePlan):
		return makeErr(ErrActivePlan)
	}
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

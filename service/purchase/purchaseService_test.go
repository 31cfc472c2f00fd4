package purchasesvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OMARxKHALID/LMS-server/model"
	transactionrepo "github.com/OMARxKHALID/LMS-server/repository/transaction"
	purchasesvc "github.com/OMARxKHALID/LMS-server/service/purchase"
)

type repoMock struct {
	fullFn        func(ctx context.Context, t *model.Transaction, purchasedAt time.Time) error
	installmentFn func(ctx context.Context, plan *model.InstallmentPlan, t *model.Transaction) error
}

func (m *repoMock) PurchaseFull(ctx context.Context, t *model.Transaction, purchasedAt time.Time) error {
	if m.fullFn == nil {
		t.ID = 1
		return nil
	}
	return m.fullFn(ctx, t, purchasedAt)
}

func (m *repoMock) PurchaseInstallment(ctx context.Context, plan *model.InstallmentPlan, t *model.Transaction) error {
	if m.installmentFn == nil {
		plan.ID = 1
		t.ID = 1
		return nil
	}
	return m.installmentFn(ctx, plan, t)
}

type bookRepoMock struct {
	book *model.Book
}

func (m *bookRepoMock) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.book == nil {
		return nil, sql.ErrNoRows
	}
	return m.book, nil
}

type userRepoMock struct {
	user *model.User
}

func (m *userRepoMock) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.user == nil {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func newService(r *repoMock, user *model.User, book *model.Book) purchasesvc.Service {
	return purchasesvc.NewWithClock(r, &bookRepoMock{book: book}, &userRepoMock{user: user}, fixedClock)
}

func TestPurchase_Validation(t *testing.T) {
	s := newService(&repoMock{}, &model.User{ID: 1, WalletBalance: 1000}, &model.Book{ID: 2, Price: 50, AvailableCopies: 5})

	_, err := s.Purchase(context.Background(), 1, 2, 0, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrInvalidPayment, purchasesvc.Code(err))

	_, err = s.Purchase(context.Background(), 1, 2, 1, nil)
	require.Equal(t, purchasesvc.ErrInvalidPayment, purchasesvc.Code(err))

	_, err = s.Purchase(context.Background(), 1, 2, 1, model.InstallmentPayment{Months: 5})
	require.Equal(t, purchasesvc.ErrInvalidPayment, purchasesvc.Code(err))
}

func TestPurchase_NotFound(t *testing.T) {
	s := newService(&repoMock{}, nil, &model.Book{ID: 2, Price: 50, AvailableCopies: 5})
	_, err := s.Purchase(context.Background(), 1, 2, 1, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrUserNotFound, purchasesvc.Code(err))

	s = newService(&repoMock{}, &model.User{ID: 1, WalletBalance: 1000}, nil)
	_, err = s.Purchase(context.Background(), 1, 2, 1, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrBookNotFound, purchasesvc.Code(err))
}

func TestPurchase_NoStock(t *testing.T) {
	s := newService(&repoMock{}, &model.User{ID: 1, WalletBalance: 1000}, &model.Book{ID: 2, Price: 50, AvailableCopies: 2})
	_, err := s.Purchase(context.Background(), 1, 2, 3, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrNoStock, purchasesvc.Code(err))
}

func TestPurchaseFull_Success(t *testing.T) {
	var captured *model.Transaction
	r := &repoMock{fullFn: func(ctx context.Context, tx *model.Transaction, purchasedAt time.Time) error {
		captured = tx
		tx.ID = 9
		require.Equal(t, now, purchasedAt)
		return nil
	}}
	s := newService(r, &model.User{ID: 1, WalletBalance: 200}, &model.Book{ID: 2, Price: 50, AvailableCopies: 5})

	out, err := s.Purchase(context.Background(), 1, 2, 3, model.FullPayment{})
	require.NoError(t, err)
	require.Nil(t, out.Plan)
	require.Equal(t, int64(9), out.Transaction.ID)
	require.Equal(t, 150.0, captured.TotalPrice)
	require.Equal(t, int64(3), captured.Quantity)
	require.Equal(t, model.TxSuccess, captured.Status)
	require.Equal(t, model.PaymentFull, captured.PaymentType)
	require.Nil(t, captured.PaymentNumber)
}

func TestPurchaseFull_InsufficientFunds(t *testing.T) {
	called := false
	r := &repoMock{fullFn: func(ctx context.Context, tx *model.Transaction, purchasedAt time.Time) error {
		called = true
		return nil
	}}
	s := newService(r, &model.User{ID: 1, WalletBalance: 149.99}, &model.Book{ID: 2, Price: 50, AvailableCopies: 5})

	_, err := s.Purchase(context.Background(), 1, 2, 3, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrInsufficientFunds, purchasesvc.Code(err))
	require.False(t, called)
}

func TestPurchaseInstallment_Success(t *testing.T) {
	// 1200 over 12 months at 5% interest -> 1260 total, 105 a month
	var plan *model.InstallmentPlan
	var tx *model.Transaction
	r := &repoMock{installmentFn: func(ctx context.Context, p *model.InstallmentPlan, t *model.Transaction) error {
		plan, tx = p, t
		p.ID = 4
		return nil
	}}
	s := newService(r, &model.User{ID: 1, WalletBalance: 110}, &model.Book{ID: 2, Price: 1200, AvailableCopies: 1})

	out, err := s.Purchase(context.Background(), 1, 2, 1, model.InstallmentPayment{Months: 12})
	require.NoError(t, err)
	require.Equal(t, plan, out.Plan)

	require.Equal(t, 1260.0, plan.TotalAmount)
	require.Equal(t, 105.0, plan.AmountPerInstallment)
	require.Equal(t, 12, plan.PlanMonths)
	require.Equal(t, 12, plan.TotalInstallments)
	require.Equal(t, 1, plan.PaidInstallments)
	require.Equal(t, model.PlanActive, plan.Status)
	require.Equal(t, now, plan.StartDate)
	require.Equal(t, now.AddDate(0, 1, 0), plan.NextPaymentDate)

	require.Equal(t, 105.0, tx.TotalPrice)
	require.Equal(t, model.PaymentInstallment, tx.PaymentType)
	require.NotNil(t, tx.PaymentNumber)
	require.Equal(t, 1, *tx.PaymentNumber)
}

func TestPurchaseInstallment_FirstInstallmentFunds(t *testing.T) {
	// wallet only needs to cover the first installment, not the total
	s := newService(&repoMock{}, &model.User{ID: 1, WalletBalance: 105}, &model.Book{ID: 2, Price: 1200, AvailableCopies: 1})
	_, err := s.Purchase(context.Background(), 1, 2, 1, model.InstallmentPayment{Months: 12})
	require.NoError(t, err)

	s = newService(&repoMock{}, &model.User{ID: 1, WalletBalance: 104.99}, &model.Book{ID: 2, Price: 1200, AvailableCopies: 1})
	_, err = s.Purchase(context.Background(), 1, 2, 1, model.InstallmentPayment{Months: 12})
	require.Equal(t, purchasesvc.ErrInsufficientFunds, purchasesvc.Code(err))
}

func TestPurchase_RepoConflicts(t *testing.T) {
	user := &model.User{ID: 1, WalletBalance: 10000}
	book := &model.Book{ID: 2, Price: 50, AvailableCopies: 5}

	r := &repoMock{fullFn: func(ctx context.Context, tx *model.Transaction, purchasedAt time.Time) error {
		return transactionrepo.ErrInsufficientFunds
	}}
	_, err := newService(r, user, book).Purchase(context.Background(), 1, 2, 1, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrInsufficientFunds, purchasesvc.Code(err))

	r = &repoMock{fullFn: func(ctx context.Context, tx *model.Transaction, purchasedAt time.Time) error {
		return transactionrepo.ErrNoStock
	}}
	_, err = newService(r, user, book).Purchase(context.Background(), 1, 2, 1, model.FullPayment{})
	require.Equal(t, purchasesvc.ErrNoStock, purchasesvc.Code(err))

	r = &repoMock{installmentFn: func(ctx context.Context, p *model.InstallmentPlan, tx *model.Transaction) error {
		return transactionrepo.ErrActivePlan
	}}
	_, err = newService(r, user, book).Purchase(context.Background(), 1, 2, 1, model.InstallmentPayment{Months: 3})
	require.Equal(t, purchasesvc.ErrActivePlan, purchasesvc.Code(err))
}

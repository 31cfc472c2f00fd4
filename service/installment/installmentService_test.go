package installmentsvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OMARxKHALID/LMS-server/model"
	installmentrepo "github.com/OMARxKHALID/LMS-server/repository/installment"
	installmentsvc "github.com/OMARxKHALID/LMS-server/service/installment"
)

type repoMock struct {
	getFn          func(ctx context.Context, id int64) (*model.InstallmentPlan, error)
	applyFn        func(ctx context.Context, p installmentrepo.ApplyPaymentParams) error
	listPaymentsFn func(ctx context.Context, planID int64) ([]model.PlanPayment, error)
	listPlansFn    func(ctx context.Context, userID int64) ([]model.InstallmentPlan, error)
}

func (m *repoMock) GetPlan(ctx context.Context, id int64) (*model.InstallmentPlan, error) {
	return m.getFn(ctx, id)
}

func (m *repoMock) ApplyPayment(ctx context.Context, p installmentrepo.ApplyPaymentParams) error {
	if m.applyFn == nil {
		return nil
	}
	return m.applyFn(ctx, p)
}

func (m *repoMock) ListPayments(ctx context.Context, planID int64) ([]model.PlanPayment, error) {
	return m.listPaymentsFn(ctx, planID)
}

func (m *repoMock) ListPlansByUser(ctx context.Context, userID int64) ([]model.InstallmentPlan, error) {
	return m.listPlansFn(ctx, userID)
}

var now = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func activePlan() *model.InstallmentPlan {
	return &model.InstallmentPlan{
		ID:                   3,
		UserID:               1,
		BookID:               2,
		Quantity:             1,
		PlanMonths:           12,
		TotalAmount:          1260,
		AmountPerInstallment: 105,
		PaidInstallments:     4,
		TotalInstallments:    12,
		StartDate:            now.AddDate(0, -4, 0),
		NextPaymentDate:      now.AddDate(0, 0, 3),
		Status:               model.PlanActive,
	}
}

func TestPay_AdvancesPlan(t *testing.T) {
	plan := activePlan()
	var params installmentrepo.ApplyPaymentParams
	r := &repoMock{
		getFn:   func(ctx context.Context, id int64) (*model.InstallmentPlan, error) { return plan, nil },
		applyFn: func(ctx context.Context, p installmentrepo.ApplyPaymentParams) error { params = p; return nil },
	}
	s := installmentsvc.NewWithClock(r, fixedClock)

	out, err := s.Pay(context.Background(), 3)
	require.NoError(t, err)

	require.Equal(t, int64(3), params.PlanID)
	require.Equal(t, 105.0, params.Amount)
	require.Equal(t, 5, params.PaymentNumber)
	require.Equal(t, now, params.PaidAt)
	require.False(t, params.Completes)

	require.Equal(t, 5, out.PaidInstallments)
	require.Equal(t, model.PlanActive, out.Status)
	require.False(t, out.IsCompleted)
	// next due date moves a month past the previous one
	require.Equal(t, now.AddDate(0, 1, 3), out.NextPaymentDate)
}

func TestPay_FinalPaymentCompletes(t *testing.T) {
	plan := activePlan()
	plan.PaidInstallments = 11
	var params installmentrepo.ApplyPaymentParams
	r := &repoMock{
		getFn:   func(ctx context.Context, id int64) (*model.InstallmentPlan, error) { return plan, nil },
		applyFn: func(ctx context.Context, p installmentrepo.ApplyPaymentParams) error { params = p; return nil },
	}
	s := installmentsvc.NewWithClock(r, fixedClock)

	out, err := s.Pay(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 12, params.PaymentNumber)
	require.True(t, params.Completes)
	require.Equal(t, model.PlanCompleted, out.Status)
	require.True(t, out.IsCompleted)
}

func TestPay_AlreadyCompleted(t *testing.T) {
	plan := activePlan()
	plan.PaidInstallments = 12
	plan.Status = model.PlanCompleted
	plan.IsCompleted = true
	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.InstallmentPlan, error) { return plan, nil }}
	s := installmentsvc.NewWithClock(r, fixedClock)

	_, err := s.Pay(context.Background(), 3)
	require.Equal(t, installmentsvc.ErrAlreadyCompleted, installmentsvc.Code(err))
}

func TestPay_NotActive(t *testing.T) {
	plan := activePlan()
	plan.Status = model.PlanDefaulted
	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.InstallmentPlan, error) { return plan, nil }}
	s := installmentsvc.NewWithClock(r, fixedClock)

	_, err := s.Pay(context.Background(), 3)
	require.Equal(t, installmentsvc.ErrPlanNotActive, installmentsvc.Code(err))
}

func TestPay_RepoErrors(t *testing.T) {
	r := &repoMock{
		getFn: func(ctx context.Context, id int64) (*model.InstallmentPlan, error) { return activePlan(), nil },
		applyFn: func(ctx context.Context, p installmentrepo.ApplyPaymentParams) error {
			return installmentrepo.ErrInsufficientFunds
		},
	}
	_, err := installmentsvc.NewWithClock(r, fixedClock).Pay(context.Background(), 3)
	require.Equal(t, installmentsvc.ErrInsufficientFunds, installmentsvc.Code(err))

	// concurrent payment won the guarded update
	r.applyFn = func(ctx context.Context, p installmentrepo.ApplyPaymentParams) error {
		return installmentrepo.ErrNotActive
	}
	_, err = installmentsvc.NewWithClock(r, fixedClock).Pay(context.Background(), 3)
	require.Equal(t, installmentsvc.ErrPlanNotActive, installmentsvc.Code(err))
}

func TestPay_NotFound(t *testing.T) {
	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.InstallmentPlan, error) {
		return nil, sql.ErrNoRows
	}}
	_, err := installmentsvc.NewWithClock(r, fixedClock).Pay(context.Background(), 99)
	require.Equal(t, installmentsvc.ErrNotFound, installmentsvc.Code(err))
}

func TestGet_Detail(t *testing.T) {
	plan := activePlan()
	payments := []model.PlanPayment{{ID: 1, PlanID: 3, PaymentNumber: 1, Amount: 105}}
	r := &repoMock{
		getFn:          func(ctx context.Context, id int64) (*model.InstallmentPlan, error) { return plan, nil },
		listPaymentsFn: func(ctx context.Context, planID int64) ([]model.PlanPayment, error) { return payments, nil },
	}
	out, err := installmentsvc.NewWithClock(r, fixedClock).Get(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, plan, out.Plan)
	require.Len(t, out.Payments, 1)
}

func TestGet_NotFound(t *testing.T) {
	r := &repoMock{getFn: func(ctx context.Context, id int64) (*model.InstallmentPlan, error) {
		return nil, sql.ErrNoRows
	}}
	_, err := installmentsvc.NewWithClock(r, fixedClock).Get(context.Background(), 99)
	require.Equal(t, installmentsvc.ErrNotFound, installmentsvc.Code(err))
}

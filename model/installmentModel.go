// model/installmentModel.go
package model

import "time"

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanDefaulted PlanStatus = "defaulted"
	PlanCancelled PlanStatus = "cancelled"
)

type InstallmentPlan struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	BookID               int64      `json:"book_id"`
	Quantity             int64      `json:"quantity"`
	PlanMonths           int        `json:"plan_months"` // 3, 6 or 12
	TotalAmount          float64    `json:"total_amount"`
	AmountPerInstallment float64    `json:"amount_per_installment"`
	PaidInstallments     int        `json:"paid_installments"`
	TotalInstallments    int        `json:"total_installments"`
	StartDate            time.Time  `json:"start_date"`
	NextPaymentDate      time.Time  `json:"next_payment_date"`
	Status               PlanStatus `json:"status"`
	IsCompleted          bool       `json:"is_completed"`
}

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// PlanPayment is one row of a plan's payment history, ordered by
// PaymentNumber.
type PlanPayment struct {
	ID            int64         `json:"id"`
	PlanID        int64         `json:"plan_id"`
	PaymentNumber int           `json:"payment_number"`
	Amount        float64       `json:"amount"`
	PaidAt        time.Time     `json:"paid_at"`
	Status        PaymentStatus `json:"status"`
}

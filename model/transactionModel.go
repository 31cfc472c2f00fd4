// model/transactionModel.go
package model

import "time"

type TransactionStatus string

const (
	TxPending TransactionStatus = "pending"
	TxSuccess TransactionStatus = "success"
	TxFailed  TransactionStatus = "failed"
)

type PaymentType string

const (
	PaymentFull        PaymentType = "full"
	PaymentInstallment PaymentType = "installment"
)

type Transaction struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	BookID            int64             `json:"book_id"`
	Quantity          int64             `json:"quantity"`
	TotalPrice        float64           `json:"total_price"`
	Status            TransactionStatus `json:"status"`
	PaymentType       PaymentType       `json:"payment_type"`
	InstallmentPlanID *int64            `json:"installment_plan_id,omitempty"`
	PaymentNumber     *int              `json:"payment_number,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Payment is the payment choice for a purchase. Using a closed set of
// concrete types instead of an enum plus optional months keeps
// installment fields off full payments entirely.
type Payment interface {
	PaymentType() PaymentType
}

type FullPayment struct{}

func (FullPayment) PaymentType() PaymentType { return PaymentFull }

type InstallmentPayment struct {
	Months int // 3, 6 or 12
}

func (InstallmentPayment) PaymentType() PaymentType { return PaymentInstallment }

// model/borrowModel.go
package model

import "time"

type BorrowStatus string

const (
	BorrowOpen     BorrowStatus = "borrowed"
	BorrowReturned BorrowStatus = "returned"
)

// Borrow is one loan of one copy. TotalBorrowPrice is agreed at borrow
// time (days x borrow_price) and only ever shrinks, on an early return.
// TotalBorrowedFine is written once, when the loan is settled.
type Borrow struct {
	ID                 int64        `json:"id"`
	BorrowedBy         int64        `json:"borrowed_by"`
	BorrowedBook       int64        `json:"borrowed_book"`
	BorrowedDate       time.Time    `json:"borrowed_date"`
	ExpectedReturnDate time.Time    `json:"expected_return_date"`
	ReturnDate         *time.Time   `json:"return_date,omitempty"`
	Status             BorrowStatus `json:"status"`
	TotalBorrowPrice   float64      `json:"total_borrow_price"`
	TotalBorrowedFine  float64      `json:"total_borrowed_fine"`
	TotalPrice         float64      `json:"total_price"`
}

// TotalPricePaid is what the borrower owes after settlement.
func (b *Borrow) TotalPricePaid() float64 {
	return b.TotalBorrowPrice + b.TotalBorrowedFine
}

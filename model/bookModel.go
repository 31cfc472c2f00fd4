// model/bookModel.go
package model

import "time"

type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            string     `json:"isbn"`
	Description     string     `json:"description,omitempty"`
	Publisher       string     `json:"publisher,omitempty"`
	Category        string     `json:"category"`
	TotalCopies     int64      `json:"total_copies"`
	AvailableCopies int64      `json:"available_copies"`
	Price           float64    `json:"price"`
	BorrowPrice     float64    `json:"borrow_price"`
	BorrowFine      float64    `json:"borrow_fine"`
	IsPurchased     bool       `json:"is_purchased"`
	PurchasedDate   *time.Time `json:"purchased_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

package borrow

type BorrowReq struct {
	BorrowedBy         int64  `json:"borrowed_by" validate:"required,gt=0"`
	BorrowedBook       int64  `json:"borrowed_book" validate:"required,gt=0"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"required"`
}

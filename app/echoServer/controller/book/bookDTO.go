package book

type CreateBookReq struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	ISBN        string  `json:"isbn" validate:"required"`
	Description string  `json:"description"`
	Publisher   string  `json:"publisher"`
	Category    string  `json:"category"`
	TotalCopies int64   `json:"total_copies" validate:"omitempty,gt=0"`
	Price       float64 `json:"price" validate:"omitempty,gte=0"`
	BorrowPrice float64 `json:"borrow_price" validate:"omitempty,gte=0"`
	BorrowFine  float64 `json:"borrow_fine" validate:"omitempty,gte=0"`
}

type UpdateBookReq struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        string  `json:"isbn"`
	Description string  `json:"description"`
	Publisher   string  `json:"publisher"`
	Category    string  `json:"category"`
	TotalCopies int64   `json:"total_copies" validate:"omitempty,gt=0"`
	Price       float64 `json:"price" validate:"omitempty,gte=0"`
	BorrowPrice float64 `json:"borrow_price" validate:"omitempty,gte=0"`
	BorrowFine  float64 `json:"borrow_fine" validate:"omitempty,gte=0"`
}

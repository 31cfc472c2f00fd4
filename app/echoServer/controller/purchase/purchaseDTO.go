package purchase

type PurchaseReq struct {
	UserID            int64  `json:"user_id" validate:"required,gt=0"`
	BookID            int64  `json:"book_id" validate:"required,gt=0"`
	Quantity          int64  `json:"quantity" validate:"required,gte=1"`
	PaymentType       string `json:"payment_type" validate:"required,oneof=full installment"`
	InstallmentMonths *int   `json:"installment_months,omitempty" validate:"omitempty,oneof=3 6 12"`
}

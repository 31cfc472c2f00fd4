package purchase

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/OMARxKHALID/LMS-server/model"
	ps "github.com/OMARxKHALID/LMS-server/service/purchase"
)

type Controller struct {
	Svc ps.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/books/purchase
func (h *Controller) Purchase(c echo.Context) error {
	var req PurchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	var pay model.Payment
	switch req.PaymentType {
	case "full":
		pay = model.FullPayment{}
	case "installment":
		if req.InstallmentMonths == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "installment_months is required for installment payment"})
		}
		pay = model.InstallmentPayment{Months: *req.InstallmentMonths}
	}

	out, err := h.Svc.Purchase(c.Request().Context(), req.UserID, req.BookID, req.Quantity, pay)
	if err != nil {
		switch ps.Code(err) {
		case ps.ErrInvalidPayment:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payment"})
		case ps.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case ps.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case ps.ErrNoStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": "not enough copies available"})
		case ps.ErrInsufficientFunds:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "insufficient wallet balance"})
		case ps.ErrActivePlan:
			return c.JSON(http.StatusConflict, echo.Map{"message": "active installment plan already exists for this book"})
		default:
			h.Log.Error("purchase", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

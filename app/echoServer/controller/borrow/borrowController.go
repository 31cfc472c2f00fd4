package borrow

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	bs "github.com/OMARxKHALID/LMS-server/service/borrow"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/borrow
func (h *Controller) Borrow(c echo.Context) error {
	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	due, err := parseDate(req.ExpectedReturnDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid expected return date"})
	}

	out, err := h.Svc.Borrow(c.Request().Context(), req.BorrowedBy, req.BorrowedBook, due)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrInvalidDate:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid expected return date"})
		case bs.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrNoStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no available copies"})
		case bs.ErrDuplicateBorrow:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book already borrowed by this user"})
		default:
			h.Log.Error("borrow", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "book borrowed successfully", "borrow": out})
}

// PUT /v1/borrow/return/:borrowId
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("borrowId"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrow record not found"})
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book already returned"})
		default:
			h.Log.Error("return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":          "book returned successfully",
		"borrow":           out,
		"total_price_paid": out.TotalPricePaid(),
	})
}

// GET /v1/borrow/records
func (h *Controller) Records(c echo.Context) error {
	rows, err := h.Svc.Records(c.Request().Context())
	if err != nil {
		h.Log.Error("borrow records", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

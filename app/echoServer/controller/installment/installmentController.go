package installment

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/OMARxKHALID/LMS-server/app/echoServer/jwtx"
	is "github.com/OMARxKHALID/LMS-server/service/installment"
)

type Controller struct {
	Svc is.Service
	Log *slog.Logger
}

// POST /v1/installments/:planId/pay
func (h *Controller) Pay(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("planId"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	plan, err := h.Svc.Pay(c.Request().Context(), id)
	if err != nil {
		switch is.Code(err) {
		case is.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "installment plan not found"})
		case is.ErrAlreadyCompleted:
			return c.JSON(http.StatusConflict, echo.Map{"message": "installment plan already completed"})
		case is.ErrPlanNotActive:
			return c.JSON(http.StatusConflict, echo.Map{"message": "installment plan is not active"})
		case is.ErrInsufficientFunds:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "insufficient wallet balance"})
		default:
			h.Log.Error("installment pay", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "installment paid", "plan": plan})
}

// GET /v1/installments/my
func (h *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	plans, err := h.Svc.PlansByUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my plans", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": plans})
}

// GET /v1/installments/:planId
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("planId"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if is.Code(err) == is.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "installment plan not found"})
		}
		h.Log.Error("installment detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

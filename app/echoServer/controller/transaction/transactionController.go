package transaction

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/OMARxKHALID/LMS-server/app/echoServer/jwtx"
	"github.com/OMARxKHALID/LMS-server/model"
)

// Repo is consumed directly: transaction reads are passthroughs with
// no business rules worth a service layer.
type Repo interface {
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
}

type Controller struct {
	Repo Repo
	Log  *slog.Logger
}

// GET /v1/transactions/my
func (h *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Repo.ListByUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my transactions", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/transactions/:transactionId
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("transactionId"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	t, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "transaction not found"})
		}
		h.Log.Error("transaction detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, t)
}

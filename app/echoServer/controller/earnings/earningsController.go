package earnings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	es "github.com/OMARxKHALID/LMS-server/service/earnings"
)

type Controller struct {
	Svc es.Service
	Log *slog.Logger
}

// GET /v1/earnings?timeframe=week|month|year
func (h *Controller) Get(c echo.Context) error {
	tf := es.Timeframe(c.QueryParam("timeframe"))
	if tf == "" {
		tf = es.Month
	}

	rep, err := h.Svc.Report(c.Request().Context(), tf)
	if err != nil {
		if errors.Is(err, es.ErrBadTimeframe) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "timeframe must be week, month or year"})
		}
		h.Log.Error("earnings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rep)
}

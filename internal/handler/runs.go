package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/showtime-inventory-bench/internal/model"
	"github.com/iliyamo/showtime-inventory-bench/internal/repository"
)

// RunLister reads recorded generation runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]model.Run, error)
}

// RunsHandler serves the run telemetry history.
type RunsHandler struct {
	Runs RunLister
}

func NewRunsHandler(runs RunLister) *RunsHandler {
	return &RunsHandler{Runs: runs}
}

// List: GET /v1/runs?limit=N (default 20, max 200)
func (h *RunsHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	runs, err := h.Runs.Recent(ctx, limit)
	if errors.Is(err, repository.ErrRunsDisabled) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":   "runs_disabled",
			"message": "no database configured",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "database_error",
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": runs, "total": len(runs), "limit": limit})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
	"github.com/iliyamo/showtime-inventory-bench/internal/service"
)

// BulkHandler exposes the one-shot façade. Nothing it produces is kept.
type BulkHandler struct {
	Svc *service.InventoryService
}

func NewBulkHandler(svc *service.InventoryService) *BulkHandler {
	return &BulkHandler{Svc: svc}
}

type bulkQuery struct {
	Shape string `query:"shape" validate:"omitempty,oneof=flat tree"`
}

// Generate: POST /v1/inventory/generate?shape=flat|tree with the raw params
// as body. shape=flat (default) returns the flat response, shape=tree the
// reduced tree.
func (h *BulkHandler) Generate(c echo.Context) error {
	var q bulkQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return respondError(c, badBody(err))
	}
	if err := c.Validate(&q); err != nil {
		return respondError(c, err)
	}
	var raw inventory.RawParams
	if err := bind(c, &raw); err != nil {
		return respondError(c, err)
	}

	withTree := q.Shape == "tree"
	res, err := h.Svc.GenerateBulk(c.Request().Context(), &raw, withTree)
	if err != nil {
		return respondError(c, err)
	}
	if withTree {
		return c.JSON(http.StatusOK, echo.Map{
			"currency":       res.Response.Currency,
			"generatedAtIso": res.Response.GeneratedAt,
			"days":           res.Response.Days,
			"tree":           res.Tree,
			"timings":        res.Timings,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"response": res.Response, "timings": res.Timings})
}

// Reduce: POST /v1/inventory/reduce with a flat response as body.
func (h *BulkHandler) Reduce(c echo.Context) error {
	var resp inventory.Response
	if err := bind(c, &resp); err != nil {
		return respondError(c, err)
	}
	tree := h.Svc.Reduce(&resp)
	return c.JSON(http.StatusOK, echo.Map{"tree": tree, "shows": tree.Shows()})
}

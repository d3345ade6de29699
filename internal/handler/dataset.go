package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
	"github.com/iliyamo/showtime-inventory-bench/internal/service"
)

// DatasetHandler exposes the stateful façade: dataset creation, index
// lookups, slice queries and teardown.
type DatasetHandler struct {
	Svc *service.InventoryService
}

func NewDatasetHandler(svc *service.InventoryService) *DatasetHandler {
	return &DatasetHandler{Svc: svc}
}

// ----- DTOs -----

type createOptions struct {
	DatasetID string `json:"datasetId" validate:"omitempty,max=128,printascii"`
	Overwrite bool   `json:"overwrite"`
}
type createDatasetReq struct {
	Params  *inventory.RawParams `json:"params"`
	Options createOptions        `json:"options"`
}
type datasetPath struct {
	ID string `param:"id" validate:"required"`
}
type formatsPath struct {
	ID       string `param:"id" validate:"required"`
	Language string `param:"lang" validate:"required"`
}
type datesPath struct {
	ID       string `param:"id" validate:"required"`
	Language string `param:"lang" validate:"required"`
	Format   string `param:"fmt" validate:"required"`
}
type sliceReq struct {
	ID       string `param:"id" validate:"required"`
	Language string `query:"language" validate:"required"`
	Format   string `query:"format" validate:"required"`
	Date     string `query:"date" validate:"required"`
}

// Create: POST /v1/datasets with {"params": {...}, "options": {"datasetId", "overwrite"}}.
func (h *DatasetHandler) Create(c echo.Context) error {
	var req createDatasetReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	res, err := h.Svc.GenerateAndIndex(c.Request().Context(), req.Params, service.GenerateOptions{
		DatasetID: req.Options.DatasetID,
		Overwrite: req.Options.Overwrite,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// List: GET /v1/datasets
func (h *DatasetHandler) List(c echo.Context) error {
	items := h.Svc.ListDatasets()
	return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// Languages: GET /v1/datasets/:id/languages
func (h *DatasetHandler) Languages(c echo.Context) error {
	var req datasetPath
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	langs, err := h.Svc.GetLanguages(req.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"datasetId": req.ID, "languages": langs})
}

// Formats: GET /v1/datasets/:id/languages/:lang/formats
func (h *DatasetHandler) Formats(c echo.Context) error {
	var req formatsPath
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	formats, err := h.Svc.GetFormats(req.ID, req.Language)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"datasetId": req.ID, "languageCode": req.Language, "formats": formats})
}

// Dates: GET /v1/datasets/:id/languages/:lang/formats/:fmt/dates
func (h *DatasetHandler) Dates(c echo.Context) error {
	var req datesPath
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	dates, err := h.Svc.GetDates(req.ID, req.Language, req.Format)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"datasetId":    req.ID,
		"languageCode": req.Language,
		"formatCode":   req.Format,
		"dates":        dates,
	})
}

// Inventory: GET /v1/datasets/:id/inventory?language=&format=&date=
func (h *DatasetHandler) Inventory(c echo.Context) error {
	var req sliceReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	slice, err := h.Svc.GetInventoryFor(req.ID, req.Language, req.Format, req.Date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, slice)
}

// Destroy: DELETE /v1/datasets/:id. Unknown ids answer 200 with removed=false.
func (h *DatasetHandler) Destroy(c echo.Context) error {
	var req datasetPath
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	removed, err := h.Svc.DestroyDataset(c.Request().Context(), req.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"datasetId": req.ID, "removed": removed})
}

// Clear: DELETE /v1/datasets
func (h *DatasetHandler) Clear(c echo.Context) error {
	ids := h.Svc.ClearDatasets(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"removed": ids, "total": len(ids)})
}

package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
	"github.com/iliyamo/showtime-inventory-bench/internal/service"
)

// errBadBody marks a request body or query that could not be decoded.
var errBadBody = errors.New("invalid body")

// statusOf maps an error to its HTTP status and stable error code.
func statusOf(err error) (int, string) {
	switch {
	case service.IsConflict(err):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, "invalid_body"
	}
	code := inventory.Code(err)
	switch code {
	case "missing_parameter", "invalid_date", "invalid_range":
		return http.StatusBadRequest, code
	case "not_found":
		return http.StatusNotFound, code
	}
	return http.StatusInternalServerError, code
}

// respondError writes {"error": code, "message": detail}.
func respondError(c echo.Context, err error) error {
	status, code := statusOf(err)
	return c.JSON(status, echo.Map{"error": code, "message": err.Error()})
}

// bind decodes the request into dst and validates it with the registered
// validator.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return badBody(err)
	}
	return c.Validate(dst)
}

// badBody wraps a binder failure in errBadBody, keeping echo's message.
func badBody(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Errorf("%w: %v", errBadBody, he.Message)
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}

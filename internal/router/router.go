package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/showtime-inventory-bench/internal/handler"
	"github.com/iliyamo/showtime-inventory-bench/internal/middleware"
	"github.com/iliyamo/showtime-inventory-bench/internal/utils"
)

// Deps bundles what RegisterRoutes wires onto the echo instance. JWTSecret
// empty disables operator authentication; Metrics nil skips /metrics.
type Deps struct {
	Datasets  *handler.DatasetHandler
	Bulk      *handler.BulkHandler
	Runs      *handler.RunsHandler
	Auth      *handler.AuthHandler
	JWTSecret string
	Cache     echo.MiddlewareFunc // slice response cache
	RateLimit echo.MiddlewareFunc // token bucket on generation endpoints
	Metrics   http.Handler
}

// RegisterRoutes installs the validator and every route of the API.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Validator = handler.NewValidator()
	cache := orPass(d.Cache)
	limit := orPass(d.RateLimit)

	// Mutating dataset routes require an operator token when auth is enabled
	operator := []echo.MiddlewareFunc{}
	if d.JWTSecret != "" {
		operator = append(operator, middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(utils.RoleOperator))
	}

	e.GET("/healthz", handler.Health)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	if d.Auth != nil {
		e.POST("/v1/auth/token", d.Auth.Token)
	}

	if ds := d.Datasets; ds != nil {
		g := e.Group("/v1/datasets")
		g.POST("", ds.Create, append(operator, limit)...)
		g.GET("", ds.List)
		g.DELETE("", ds.Clear, operator...)
		g.GET("/:id/languages", ds.Languages)
		g.GET("/:id/languages/:lang/formats", ds.Formats)
		g.GET("/:id/languages/:lang/formats/:fmt/dates", ds.Dates)
		g.GET("/:id/inventory", ds.Inventory, cache)
		g.DELETE("/:id", ds.Destroy, operator...)
	}

	if b := d.Bulk; b != nil {
		g := e.Group("/v1/inventory")
		g.POST("/generate", b.Generate, limit)
		g.POST("/reduce", b.Reduce)
	}

	if d.Runs != nil {
		e.GET("/v1/runs", d.Runs.List)
	}
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}

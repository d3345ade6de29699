package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/showtime-inventory-bench/internal/metrics"
)

// RequestLogger logs one line per request and feeds the HTTP metrics. The
// route label is echo's registered path so ids do not explode cardinality.
func RequestLogger(log zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err) // commit the response so the status below is final
			}
			elapsed := time.Since(start)

			req, res := c.Request(), c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			if m != nil {
				m.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(res.Status)).Inc()
				m.HTTPDuration.WithLabelValues(req.Method, route).Observe(elapsed.Seconds())
			}

			ev := log.Info()
			switch {
			case res.Status >= 500:
				ev = log.Error().Err(err)
			case res.Status >= 400:
				ev = log.Warn()
			}
			ev.Str("method", req.Method).
				Str("route", route).
				Str("uri", req.RequestURI).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("latency", elapsed).
				Str("ip", c.RealIP()).
				Str("cache", res.Header().Get("X-Cache")).
				Msg("request")
			return nil
		}
	}
}

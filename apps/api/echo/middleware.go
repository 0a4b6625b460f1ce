package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	metricsvc "github.com/trezcool/academia/services/metrics"
)

// metricsMiddleware records every request by route template, so that ids do not blow up the label cardinality.
func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err) // write the status before it is recorded
			}

			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequest(ctx.Request().Method, path, ctx.Response().Status, time.Since(start).Seconds())
			return nil
		}
	}
}

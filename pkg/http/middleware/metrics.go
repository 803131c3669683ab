package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// RequestObserver receives one sample per served request.
type RequestObserver interface {
	RecordRequest(route, method string, status int, seconds float64)
}

// Metrics records request counts and latency. The route template is used
// as label, never the raw URL, to keep cardinality bounded.
func Metrics(obs RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.RecordRequest(route, c.Request().Method, status, time.Since(start).Seconds())
			return err
		}
	}
}

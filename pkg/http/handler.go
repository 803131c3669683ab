package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler registers its routes on the preview server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc lets a plain function act as a Handler.
type HandlerFunc func(e *echo.Echo)

func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }

// Handlers registers every member in order. Nil members are skipped.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

// Health serves GET /healthz for liveness probes of the serve mode.
var Health = HandlerFunc(func(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return c.String(http.StatusOK, "ok")
	})
})

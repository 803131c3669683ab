package api

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"FGReport/internal/domain/models"
	"FGReport/internal/services/ratelimit"
	"FGReport/internal/usecase"
	xhttp "FGReport/pkg/http"
	xlogger "FGReport/pkg/logger"
)

// Runner starts pipeline runs and reports their status.
type Runner interface {
	Run(ctx context.Context, opts models.RunOptions) (*models.RunResult, error)
	LastStatus(ctx context.Context) (*models.RunResult, error)
}

// IndexLister lists published reports.
type IndexLister interface {
	List(ctx context.Context) ([]models.ReportIndexEntry, error)
}

// ReportsEchoHandler serves the report API of the preview server.
type ReportsEchoHandler struct {
	logger  *xlogger.Logger
	runner  Runner
	index   IndexLister
	limiter *ratelimit.Limiter
}

// HandlerOption configures ReportsEchoHandler.
type HandlerOption func(*ReportsEchoHandler)

// WithRunLimiter throttles run triggers per client IP.
func WithRunLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *ReportsEchoHandler) {
		h.limiter = l
	}
}

func NewReportsEchoHandler(logger *xlogger.Logger, runner Runner, index IndexLister, opts ...HandlerOption) *ReportsEchoHandler {
	h := &ReportsEchoHandler{logger: logger, runner: runner, index: index}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/reports", h.Reports)
	g.GET("/status", h.Status)
	g.POST("/runs", h.TriggerRun)
}

// Reports lists the rolling report index.
func (h *ReportsEchoHandler) Reports(c echo.Context) error {
	entries, err := h.index.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list reports", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if entries == nil {
		entries = []models.ReportIndexEntry{}
	}
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

// Status returns the last recorded run.
func (h *ReportsEchoHandler) Status(c echo.Context) error {
	res, err := h.runner.LastStatus(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNoStatus) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no run recorded yet"))
		}
		h.logger.Error("read run status", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

// TriggerRun runs the pipeline synchronously. The run outlives a dropped
// client connection.
func (h *ReportsEchoHandler) TriggerRun(c echo.Context) error {
	if h.limiter != nil {
		ip := c.RealIP()
		if !h.limiter.Allow(ip) {
			wait := int(math.Ceil(h.limiter.RetryAfter(ip).Seconds()))
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(wait))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many run requests").WithParam("retry_after", wait))
		}
	}

	req := &models.RunOptions{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Trigger = "api"

	res, err := h.runner.Run(context.WithoutCancel(c.Request().Context()), *req)
	switch {
	case errors.Is(err, usecase.ErrRunInProgress):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("a run is already in progress").WithError(err))
	case err != nil:
		h.logger.Error("api run failed", xlogger.Error(err))
		appErr := xhttp.UnprocessableError("run failed").WithError(err)
		if res != nil {
			appErr.WithParam("run_id", res.RunID)
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.CreatedResponse(c, res)
}

var _ xhttp.Handler = (*ReportsEchoHandler)(nil)

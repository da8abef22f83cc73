package api

import (
	"net/http"

	models "ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	"ARSPull/internal/services/ars"
	"ARSPull/internal/usecase"
	xhttp "ARSPull/pkg/http"
	xlogger "ARSPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler exposes the stabilizer over HTTP: stored signals,
// on-demand processing, drawdown state, and the outcome feed.
type SignalsEchoHandler struct {
	logger *xlogger.Logger
	store  domrepo.SignalStore
	proc   *usecase.SignalProcessor
	guard  *ars.DrawdownGuard
}

func NewSignalsEchoHandler(logger *xlogger.Logger, store domrepo.SignalStore, proc *usecase.SignalProcessor, guard *ars.DrawdownGuard) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, store: store, proc: proc, guard: guard}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/signals", h.ListSignals)
	g.POST("/signals/process", h.ProcessSignal)
	g.GET("/drawdown", h.Drawdown)
	g.POST("/outcomes", h.RecordOutcome)
}

// Health reports store reachability.
func (h *SignalsEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// ListSignals returns the most recent processed signals, optionally
// filtered by direction.
func (h *SignalsEchoHandler) ListSignals(c echo.Context) error {
	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.store.Latest(c.Request().Context(), req.Limit, models.Direction(req.Direction))
	if err != nil {
		h.logger.Error("list signals error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

// ProcessSignal runs one caller-supplied raw signal through the pipeline
// and returns the decision record. Useful for replay and what-if calls.
func (h *SignalsEchoHandler) ProcessSignal(c echo.Context) error {
	req := &models.ProcessSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.proc.Process(c.Request().Context(), req.RawSignal())
	if err != nil {
		h.logger.Error("process signal error",
			xlogger.String("market_id", req.MarketID),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

// Drawdown returns the current guard state.
func (h *SignalsEchoHandler) Drawdown(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.guard.Snapshot())
}

// RecordOutcome folds one realized P&L delta into the drawdown state.
// Normally settlements arrive via the Kafka feed; this endpoint is the
// manual/backfill path.
func (h *SignalsEchoHandler) RecordOutcome(c echo.Context) error {
	req := &models.RecordOutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.guard.RecordOutcome(req.PnLDelta)
	return xhttp.SuccessResponse(c, h.guard.Snapshot())
}

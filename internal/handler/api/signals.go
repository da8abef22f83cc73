package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	models "ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	icache "ARSPull/internal/service/cache"
	"ARSPull/internal/service/metrics"
	"ARSPull/internal/service/ratelimit"
	"ARSPull/internal/services/ars"
	applogger "ARSPull/pkg/logger"
)

// SignalsHandler serves the plain net/http surface: cached latest signals
// and the drawdown snapshot. The Echo handler carries the mutating routes.
type SignalsHandler struct {
	store domrepo.SignalStore
	guard *ars.DrawdownGuard
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewSignalsHandler(store domrepo.SignalStore, guard *ars.DrawdownGuard) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{store: store, guard: guard, rl: ratelimit.New()}
}

func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *SignalsHandler) Latest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "latest"
		defer func() { metrics.SignalsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		limit := parseInt(r.URL.Query().Get("limit"), 50)
		if limit > 500 {
			limit = 500
		}
		direction := models.Direction(r.URL.Query().Get("direction"))
		if direction != "" && !direction.Valid() {
			http.Error(w, "direction must be yes or no", http.StatusBadRequest)
			return
		}
		if !h.rl.Allow(r.RemoteAddr+":latest", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.latest rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "signals:latest:" + strconv.Itoa(limit) + ":" + string(direction)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("signals.latest cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("signals.latest cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("signals.latest write_error", applogger.Error(err))
				}
				return
			}
		}
		res, err := h.store.Latest(r.Context(), limit, direction)
		if err != nil {
			metrics.SignalsErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.latest error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("signals.latest marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 15*time.Second); err != nil && h.l != nil {
				h.l.Warn("signals.latest cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("signals.latest write_error", applogger.Error(err))
		}
	}
}

func (h *SignalsHandler) Drawdown() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "drawdown"
		defer func() { metrics.SignalsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if !h.rl.Allow(r.RemoteAddr+":drawdown", 5, 2) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.guard.Snapshot()); err != nil {
			metrics.SignalsErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.drawdown encode_error", applogger.Error(err))
			}
		}
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

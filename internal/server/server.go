package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/fincalc/internal/advisor"
	"github.com/iwvelando/fincalc/internal/cache"
	"github.com/iwvelando/fincalc/internal/history"
	"github.com/iwvelando/fincalc/internal/observability"
	"github.com/iwvelando/fincalc/internal/report"
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

// Analyzer produces commentary on a calculation. *advisor.Advisor satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req advisor.Request) (string, error)
	Model() string
}

// Options wires the handler's collaborators. Every field is optional.
type Options struct {
	MaxUploadSize int64
	Version       string

	// History defaults to an in-memory store.
	History history.Store
	// Cache defaults to no caching.
	Cache cache.Cache
	// Metrics defaults to a private registry.
	Metrics *observability.Metrics
	// Limiter applies to /api routes when set.
	Limiter *RateLimiter
	// Advisor enables /api/advice when set.
	Advisor Analyzer
	// PDF enables PDF export when set.
	PDF report.PDFRenderer
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string

	history history.Store
	cache   cache.Cache
	metrics *observability.Metrics
	limiter *RateLimiter
	advisor Analyzer
	pdf     report.PDFRenderer
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	return newHandler(logger, opts).routes()
}

func newHandler(logger *zap.Logger, opts Options) *handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		history:       opts.History,
		cache:         opts.Cache,
		metrics:       opts.Metrics,
		limiter:       opts.Limiter,
		advisor:       opts.Advisor,
		pdf:           opts.PDF,
	}
	if h.history == nil {
		h.history = history.NewMemoryStore()
	}
	if h.cache == nil {
		h.cache = cache.Noop{}
	}
	if h.metrics == nil {
		h.metrics = observability.NewMetrics("")
	}
	return h
}

func (h *handler) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.rateLimit)
		}

		r.Get("/version", h.handleVersion)
		r.Get("/templates", h.handleTemplates)

		r.Post("/calculate", h.handleCalculate)
		r.Post("/sensitivity", h.handleSensitivity)
		r.Post("/compare", h.handleCompare)
		r.Post("/goal-seek", h.handleGoalSeek)
		r.Post("/scenarios", h.handleScenarios)
		r.Post("/export/{format}", h.handleExport)
		r.Post("/advice", h.handleAdvice)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.handleHistoryList)
			r.Post("/", h.handleHistorySave)
			r.Delete("/", h.handleHistoryClear)
			r.Get("/{id}", h.handleHistoryGet)
			r.Delete("/{id}", h.handleHistoryDelete)
		})

		r.Get("/live", h.handleLive)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusNotFound, "not found", "server.notFound")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "server.methodNotAllowed")
	})

	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type templatesResponse struct {
	Names     []string                  `json:"names"`
	Templates map[string]pricing.Inputs `json:"templates"`
}

func (h *handler) handleTemplates(w http.ResponseWriter, r *http.Request) {
	names := pricing.TemplateNames()
	resp := templatesResponse{Names: names, Templates: make(map[string]pricing.Inputs, len(names))}
	for _, name := range names {
		inputs, _ := pricing.Template(name)
		resp.Templates[name] = inputs
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields so typos in input names surface as errors.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge, "request body too large", op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, "failed to decode request: "+err.Error(), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

// elapsed formats a duration for responses.
func elapsed(start time.Time) string {
	return time.Since(start).String()
}

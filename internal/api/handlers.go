package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

// handlers builds a fresh controller per request or socket, so screens never
// share records.
type handlers struct {
	catalog core.Catalog
	logger  *slog.Logger
}

// NewRouter returns the chi router with every route mounted.
func NewRouter(catalog core.Catalog, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{catalog: catalog, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api/movies", func(r chi.Router) {
		r.Get("/", h.getPopular)
		r.Get("/{id}", h.getDetail)
	})

	r.Route("/ws/movies", func(r chi.Router) {
		r.Get("/", h.popularSocket)
		r.Get("/{id}", h.detailSocket)
	})

	return r
}

func (h *handlers) getPopular(w http.ResponseWriter, r *http.Request) {
	list := viewstate.NewList(h.catalog, config.LoggerFromContext(r.Context()))
	defer list.Deactivate()

	state, _ := viewstate.Final(list.Activate(r.Context()))
	writeJSON(w, statusFor(state.Kind), state)
}

func (h *handlers) getDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	detail := viewstate.NewDetail(h.catalog, config.LoggerFromContext(r.Context()))
	defer detail.Deactivate()

	state, _ := viewstate.Final(detail.Activate(r.Context(), id))
	writeJSON(w, statusFor(state.Kind), state)
}

// statusFor maps a settled state onto an HTTP status code.
func statusFor(kind viewstate.ErrorKind) int {
	switch kind {
	case viewstate.KindNone:
		return http.StatusOK
	case viewstate.KindNotFound:
		return http.StatusNotFound
	case viewstate.KindNetwork, viewstate.KindUpstream:
		return http.StatusBadGateway
	case viewstate.KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie id %q", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"kind": "bad_request", "message": err.Error()},
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// requestLogger logs one line per request and stores a request-scoped logger in the context.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(config.ContextWithLogger(r.Context(), reqLogger)))

			reqLogger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

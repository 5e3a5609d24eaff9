package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Validator is shared by handlers; validator caches struct metadata per instance.
var Validator = validator.New(validator.WithRequiredStructEnabled())

// DefaultHandlerTimeout bounds a handler when NewRouter is given no timeout.
const DefaultHandlerTimeout = 60 * time.Second

// NewRouter returns the router used by the similarity service and the worker health
// endpoint. Each request gets an id that handlers and Fail attach to their logs.
// handlerTimeout should exceed the similarity client's own deadline so a slow provider
// surfaces as a 502 from the handler rather than a bare 503 from the middleware.
func NewRouter(log *slog.Logger, handlerTimeout time.Duration) *chi.Mux {
	if handlerTimeout <= 0 {
		handlerTimeout = DefaultHandlerTimeout
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(handlerTimeout))
	r.Use(Recoverer(log))
	r.Use(RequestLogger(log))

	return r
}

// WriteJSON encodes body before touching w, so an unencodable value becomes a 500
// instead of a truncated response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(buf, '\n'))
}

// HealthHandler returns a simple health check endpoint.
func HealthHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Warn("healthz write failed", "err", err)
		}
	}
}

// ServeHealth runs a router that only answers /healthz until ctx is done.
// Workers run it next to their subscription.
func ServeHealth(ctx context.Context, log *slog.Logger, port int, service string) error {
	r := NewRouter(log, 0)
	r.Get("/healthz", HealthHandler(log))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}

	errCh := make(chan error, 1)
	go func() {
		log.Info("health server listening", "service", service, "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// RequestLogger logs one line per request. Server errors log at error, client errors
// at warn, and health checks only at debug.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			case r.URL.Path == "/healthz":
				level = slog.LevelDebug
			}
			log.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Recoverer turns a handler panic into the same JSON error body Fail writes.
func Recoverer(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					Fail(log, w, r, "internal error", fmt.Errorf("panic: %v", rec), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error     string   `json:"error"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Fail logs err and writes message as an ErrorBody. A zero status means 500.
// Only message reaches the client; err stays in the log.
func Fail(log *slog.Logger, w http.ResponseWriter, r *http.Request, message string, err error, status int) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	requestID := middleware.GetReqID(r.Context())
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	log.Log(r.Context(), level, message, "status", status, "request_id", requestID, "err", err)
	WriteJSON(w, status, ErrorBody{Error: message, RequestID: requestID})
}

// ValidationError writes a 400 listing each failed field.
func ValidationError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Fail(log, w, r, "invalid payload", err, http.StatusBadRequest)
		return
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	requestID := middleware.GetReqID(r.Context())
	log.Warn("validation failed", "fields", fields, "request_id", requestID)
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: "validation failed", Fields: fields, RequestID: requestID})
}

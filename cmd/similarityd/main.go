package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"similarity-checker/internal/app"
	"similarity-checker/internal/httputil"
	"similarity-checker/internal/similarity"
)

type compareRequest struct {
	Text1 string `json:"text1" validate:"required,max=4000"`
	Text2 string `json:"text2" validate:"required,max=4000"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	timeout := deps.Config.RequestTimeout
	if timeout <= 0 {
		timeout = similarity.DefaultTimeout
	}
	r := httputil.NewRouter(deps.Log, timeout+5*time.Second)
	r.Post("/api/compare", compareHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("similarity service listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func compareHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req compareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, r, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, r, err)
			return
		}

		requestID := middleware.GetReqID(r.Context())
		log := deps.Log.With("request_id", requestID)

		score, err := deps.Comparer.Compare(r.Context(), req.Text1, req.Text2)
		if err != nil {
			message, status := describeFailure(err)
			httputil.Fail(log, w, r, message, err, status)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"score":      score,
			"request_id": requestID,
		})
	}
}

// describeFailure maps a comparison error to a client-facing message and status.
func describeFailure(err error) (string, int) {
	switch {
	case errors.Is(err, similarity.ErrInvalidInput):
		return "both texts must be non-blank", http.StatusBadRequest
	case errors.Is(err, similarity.ErrTransport):
		return "similarity provider unavailable", http.StatusBadGateway
	case errors.Is(err, similarity.ErrParse), errors.Is(err, similarity.ErrOutOfRange):
		return "unable to calculate similarity", http.StatusBadGateway
	default:
		return "internal error", http.StatusInternalServerError
	}
}

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecovererReturns500(t *testing.T) {
	r := NewRouter(discardLogger(), 0)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		path     string
		status   int
		expected string
	}{
		{"/api/compare", http.StatusOK, "INFO"},
		{"/api/compare", http.StatusBadRequest, "WARN"},
		{"/api/compare", http.StatusBadGateway, "ERROR"},
		{"/healthz", http.StatusOK, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"_"+http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expected, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]any{"score": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEqual(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(discardLogger())(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Text1 string `validate:"required"`
		Text2 string `validate:"required,max=3"`
	}
	err := Validator.Struct(payload{Text2: "toolong"})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discardLogger(), w, httptest.NewRequest(http.MethodPost, "/api/compare", nil), err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	assert.ElementsMatch(t, []string{"text1 failed required", "text2 failed max"}, body.Fields)
}

func TestFail(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	r := NewRouter(log, 0)
	r.Get("/upstream", func(w http.ResponseWriter, r *http.Request) {
		Fail(log, w, r, "similarity provider unavailable", errors.New("status 503 from provider"), http.StatusBadGateway)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/upstream", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "similarity provider unavailable", body.Error)
	assert.NotEmpty(t, body.RequestID)
	assert.NotContains(t, w.Body.String(), "status 503")
	assert.Contains(t, buf.String(), body.RequestID)
}

func TestFailDefaultsTo500(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(discardLogger(), w, httptest.NewRequest(http.MethodGet, "/", nil), "oops", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServeHealthStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeHealth(ctx, discardLogger(), 0, "test") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHealth did not return after cancel")
	}
}

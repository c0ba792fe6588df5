package response

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/feed"
	"github.com/askboard/askboard-server/internal/store"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	OK(w, map[string]string{"id": "q-1"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, float64(1), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": "q-1"}, body["data"])
	assert.NotContains(t, body, "code")
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, domainerrors.ValidationWithDetails("All fields are required.", map[string]string{"title": "required"}), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "All fields are required.", body["message"])
	assert.Equal(t, map[string]any{"title": "required"}, body["details"])
	assert.NotContains(t, body, "data")
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()

	TooManyRequests(w, "", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, w)["code"])
}

func TestHandleError_Unknown(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, fmt.Errorf("disk on fire"), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "internal server error", body["message"])
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code domainerrors.Code
	}{
		{"domain", domainerrors.NotFound("question not found"), domainerrors.CodeNotFound},
		{"wrapped domain", fmt.Errorf("ctx: %w", domainerrors.TokenExpired("expired")), domainerrors.CodeTokenExpired},
		{"store not found", store.ErrQuestionNotFound, domainerrors.CodeNotFound},
		{"store conflict", fmt.Errorf("create: %w", store.ErrEmailExists), domainerrors.CodeAlreadyExists},
		{"store invalid", store.ErrInvalidInput, domainerrors.CodeValidation},
		{"store unauthorized", store.ErrSessionExpired, domainerrors.CodeUnauthorized},
		{"store busy", fmt.Errorf("cast vote: %w", store.ErrBusy), domainerrors.CodeConflict},
		{"invalid filter", fmt.Errorf("%w: %q", feed.ErrInvalidFilter, "popular"), domainerrors.CodeInvalidQuery},
		{"invalid sort", feed.ErrInvalidSort, domainerrors.CodeInvalidQuery},
		{"fetch", &feed.FetchError{Err: context.DeadlineExceeded}, domainerrors.CodeFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
		})
	}

	assert.Nil(t, FromError(nil))
	assert.Nil(t, FromError(fmt.Errorf("plain")))
	assert.True(t, domainerrors.CodeConflict.Retryable())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, domainerrors.CodeValidation, StatusCode(http.StatusUnprocessableEntity))
	assert.Equal(t, domainerrors.CodeNotFound, StatusCode(http.StatusNotFound))
	assert.Equal(t, domainerrors.CodeInternal, StatusCode(http.StatusTeapot))
}

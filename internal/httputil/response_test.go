package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, map[string]int{"frames": 42})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"frames":42}`, rec.Body.String())
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteJSONError(rec, http.StatusBadRequest, "bad deadzone")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad deadzone"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	MethodNotAllowed(rec)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Smoothing float64 `json:"smoothing"`
	}

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"smoothing":0.4}`))
		var p payload
		require.NoError(t, ReadJSON(req, &p))
		assert.InDelta(t, 0.4, p.Smoothing, 1e-9)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"smothing":0.4}`))
		var p payload
		assert.Error(t, ReadJSON(req, &p))
	})

	t.Run("trailing data rejected", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"smoothing":0.4}{}`))
		var p payload
		assert.Error(t, ReadJSON(req, &p))
	})
}

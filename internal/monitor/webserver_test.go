package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/driftline/internal/db"
	"github.com/banshee-data/driftline/internal/drift"
	"github.com/banshee-data/driftline/internal/profile"
	"github.com/banshee-data/driftline/internal/session"
)

func newTestServer(t *testing.T, p *profile.ControllerProfile) (*WebServer, *http.ServeMux, *db.DB) {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "monitor_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	runner := session.NewRunner(session.NewSyntheticSource(1), session.Config{
		LeftConfig:  drift.NewStickRuntimeConfig(0, 0, 0.1, 0.1),
		RightConfig: drift.NewStickRuntimeConfig(0, 0, 0.1, 0.1),
	})

	ws := NewWebServer(WebServerConfig{
		Address: "127.0.0.1:0",
		Runner:  runner,
		DB:      database,
		Profile: p,
		Plotter: NewMetricsPlotter(),
	})
	return ws, ws.setupRoutes(), database
}

func testProfile() *profile.ControllerProfile {
	axis := func(a int) profile.AxisCalibration {
		return profile.AxisCalibration{Axis: a, Center: 0.01, Deadzone: 0.06}
	}
	return &profile.ControllerProfile{
		ControllerName: "Monitor Pad",
		ControllerGUID: "monitor-guid",
		GeneratedAt:    "2026-08-29T10:00:00Z",
		AxisCount:      6,
		Left:           profile.StickCalibration{X: axis(0), Y: axis(1)},
		Right:          profile.StickCalibration{X: axis(2), Y: axis(3)},
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	ws, mux, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ws.runner.ID(), body["session_id"])
}

func TestHandleMetrics(t *testing.T) {
	t.Parallel()
	ws, mux, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, ws.runner.ID(), snap.SessionID)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drift/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleConfigRoundTrip(t *testing.T) {
	t.Parallel()
	_, mux, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc configDoc
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.InDelta(t, drift.DefaultSmoothing, doc.Left.Smoothing, 1e-9)

	doc.Left.Smoothing = 0.6
	doc.Right.ResponseGamma = 1.4
	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drift/config", strings.NewReader(string(payload))))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.InDelta(t, 0.6, doc.Left.Smoothing, 1e-9)
	assert.InDelta(t, 1.4, doc.Right.ResponseGamma, 1e-9)
}

func TestHandleConfigPartialUpdate(t *testing.T) {
	t.Parallel()
	_, mux, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drift/config", strings.NewReader(`{"left":{"anti_deadzone":0.05}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc configDoc
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.InDelta(t, 0.05, doc.Left.AntiDeadzone, 1e-9)
	// Untouched fields keep their values.
	assert.InDelta(t, drift.DefaultSmoothing, doc.Left.Smoothing, 1e-9)
	assert.InDelta(t, 0.1, doc.Left.DeadzoneX, 1e-9)
	assert.InDelta(t, drift.DefaultAntiDeadzone, doc.Right.AntiDeadzone, 1e-9)
}

func TestHandleConfigRejectsBadJSON(t *testing.T) {
	t.Parallel()
	_, mux, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drift/config", strings.NewReader(`{"left":{"smothing":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleProfile(t *testing.T) {
	t.Parallel()

	t.Run("with profile", func(t *testing.T) {
		t.Parallel()
		_, mux, _ := newTestServer(t, testProfile())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/profile", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "good", body["quality"])
	})

	t.Run("without profile", func(t *testing.T) {
		t.Parallel()
		_, mux, _ := newTestServer(t, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/profile", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleReset(t *testing.T) {
	t.Parallel()
	_, mux, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drift/reset", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func seedRollups(t *testing.T, database *db.DB, sessionID string, n int) {
	t.Helper()
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, database.RecordRollup(session.Rollup{
			SessionID:       sessionID,
			Side:            []string{"left", "right"}[i%2],
			Frames:          int64((i + 1) * 60),
			At:              base.Add(time.Duration(i) * time.Second),
			WindowSize:      60,
			DriftMean:       5.0 + float64(i),
			JitterMean:      1.0,
			SuppressionMean: 80.0,
		}))
	}
}

func TestHandleRollups(t *testing.T) {
	t.Parallel()
	ws, mux, database := newTestServer(t, nil)
	seedRollups(t, database, ws.runner.ID(), 4)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/rollups", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var rollups []session.Rollup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rollups))
	assert.Len(t, rollups, 4)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drift/rollups?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rollups))
	assert.Len(t, rollups, 2)
}

func TestHandleMetricsChart(t *testing.T) {
	t.Parallel()

	t.Run("renders html", func(t *testing.T) {
		t.Parallel()
		ws, mux, database := newTestServer(t, nil)
		seedRollups(t, database, ws.runner.ID(), 6)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/drift/chart", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "echarts")
	})

	t.Run("fixed series order with uneven sides", func(t *testing.T) {
		t.Parallel()
		ws, mux, database := newTestServer(t, nil)

		base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
		for i, frames := range []int64{60, 120, 180} {
			require.NoError(t, database.RecordRollup(session.Rollup{
				SessionID: ws.runner.ID(), Side: "left", Frames: frames,
				At: base.Add(time.Duration(i) * time.Second), WindowSize: 60,
			}))
		}
		require.NoError(t, database.RecordRollup(session.Rollup{
			SessionID: ws.runner.ID(), Side: "right", Frames: 60,
			At: base, WindowSize: 60,
		}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/drift/chart", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		leftAt := strings.Index(body, "left drift")
		rightAt := strings.Index(body, "right drift")
		require.NotEqual(t, -1, leftAt)
		require.NotEqual(t, -1, rightAt)
		assert.Less(t, leftAt, rightAt)
		// The x-axis covers the longer (left) series.
		assert.Contains(t, body, "180")
	})

	t.Run("empty session", func(t *testing.T) {
		t.Parallel()
		_, mux, _ := newTestServer(t, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/drift/chart", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// Package monitor exposes a running compensation session over HTTP: live
// metrics and config endpoints for the UI collaborator, debug charts, and
// PNG metric timelines for offline inspection.
package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/driftline/internal/db"
	"github.com/banshee-data/driftline/internal/drift"
	"github.com/banshee-data/driftline/internal/httputil"
	"github.com/banshee-data/driftline/internal/profile"
	"github.com/banshee-data/driftline/internal/session"
	"github.com/banshee-data/driftline/internal/version"
)

// WebServer handles the HTTP interface for a compensation session. It
// serves health checks, live metrics, the active profile and runtime
// config, and debugging charts.
type WebServer struct {
	address string
	runner  *session.Runner
	db      *db.DB
	server  *http.Server

	mu         sync.Mutex
	profileDoc *profile.ControllerProfile
	plotter    *MetricsPlotter
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Runner  *session.Runner
	DB      *db.DB

	// Profile is the calibration profile the session was started with,
	// if any.
	Profile *profile.ControllerProfile

	// Plotter, when set, is exposed on the debug endpoints so a run can
	// be captured to PNG timelines.
	Plotter *MetricsPlotter
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:    config.Address,
		runner:     config.Runner,
		db:         config.DB,
		profileDoc: config.Profile,
		plotter:    config.Plotter,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// plotSamplePeriod is the plotter polling interval. Faster than any
// sensible session rate; repeated frames are deduplicated on observe.
const plotSamplePeriod = 5 * time.Millisecond

// Start begins the HTTP server in a goroutine and shuts it down when the
// context is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	if ws.plotter != nil && ws.runner != nil {
		go ws.samplePlotter(ctx)
	}

	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// samplePlotter feeds session snapshots into the plotter while the
// server runs. The plotter drops observations unless a recording has
// been started via /debug/drift/plots.
func (ws *WebServer) samplePlotter(ctx context.Context) {
	ticker := time.NewTicker(plotSamplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ws.plotter.Observe(ws.runner.Snapshot())
		}
	}
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/healthz", ws.handleHealth)
	mux.HandleFunc("/api/drift/metrics", ws.handleMetrics)
	mux.HandleFunc("/api/drift/profile", ws.handleProfile)
	mux.HandleFunc("/api/drift/config", ws.handleConfig)
	mux.HandleFunc("/api/drift/reset", ws.handleReset)
	mux.HandleFunc("/api/drift/rollups", ws.handleRollups)
	mux.HandleFunc("/debug/drift/chart", ws.handleMetricsChart)
	mux.HandleFunc("/debug/drift/plots", ws.handlePlots)

	if ws.db != nil {
		ws.db.AttachDebug(mux)
	}

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
	}
	if ws.runner != nil {
		status["session_id"] = ws.runner.ID()
		status["frames"] = ws.runner.Snapshot().Frames
	}
	httputil.WriteJSONOK(w, status)
}

// handleMetrics returns the latest processed frame pair with per-stick
// metrics.
func (ws *WebServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.runner == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no session running")
		return
	}
	httputil.WriteJSONOK(w, ws.runner.Snapshot())
}

// handleProfile returns the calibration profile the session started with.
func (ws *WebServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	ws.mu.Lock()
	p := ws.profileDoc
	ws.mu.Unlock()
	if p == nil {
		httputil.NotFound(w, "no profile loaded")
		return
	}
	tier, findings := profile.Quality(*p)
	httputil.WriteJSONOK(w, map[string]interface{}{
		"profile":  p,
		"quality":  tier,
		"findings": findings,
	})
}

// configDoc is the wire shape of the per-stick runtime configs.
type configDoc struct {
	Left  drift.StickRuntimeConfig `json:"left"`
	Right drift.StickRuntimeConfig `json:"right"`
}

// handleConfig reads or updates the live runtime configs. A POST body is
// decoded over the current values, so partial documents only touch the
// fields they name; out-of-range values are clamped by the pipeline
// rather than rejected here.
func (ws *WebServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if ws.runner == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no session running")
		return
	}

	switch r.Method {
	case http.MethodGet:
		left, right := ws.runner.Configs()
		httputil.WriteJSONOK(w, configDoc{Left: left, Right: right})

	case http.MethodPost:
		left, right := ws.runner.Configs()
		doc := configDoc{Left: left, Right: right}
		if err := httputil.ReadJSON(r, &doc); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		ws.runner.UpdateConfigs(doc.Left, doc.Right)
		httputil.WriteJSONOK(w, map[string]string{"status": "updated"})

	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleReset discards smoothing, history and adaptive state for both
// sticks.
func (ws *WebServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.runner == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no session running")
		return
	}
	ws.runner.Reset()
	httputil.WriteJSONOK(w, map[string]string{"status": "reset"})
}

// handleRollups returns stored windowed rollups for the current session.
// Query params:
//
//	session_id (optional, defaults to the running session)
//	limit (optional, default 100)
func (ws *WebServer) handleRollups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "no database configured for rollup lookup")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" && ws.runner != nil {
		sessionID = ws.runner.ID()
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rollups, err := ws.db.RecentRollups(sessionID, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get rollups: %v", err))
		return
	}
	httputil.WriteJSONOK(w, rollups)
}

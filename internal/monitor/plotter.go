package monitor

import (
	"fmt"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/driftline/internal/httputil"
	"github.com/banshee-data/driftline/internal/security"
	"github.com/banshee-data/driftline/internal/session"
)

// MetricsPlotter records per-frame stick metrics over a run and renders
// them to PNG timelines afterwards. Sampling is cheap enough to call once
// per snapshot poll; rendering happens only on GeneratePlots.
type MetricsPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	samples map[string][]metricSample // side -> samples
}

// metricSample is one snapshot of a stick's metrics.
type metricSample struct {
	Frame       int64
	DriftIndex  float64
	JitterIndex float64
	Suppression float64
}

// NewMetricsPlotter creates an idle plotter. Call Start to begin
// recording.
func NewMetricsPlotter() *MetricsPlotter {
	return &MetricsPlotter{samples: make(map[string][]metricSample)}
}

// Start initialises the plotter for a new run, writing output under
// outputDir.
func (mp *MetricsPlotter) Start(outputDir string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	mp.outputDir = outputDir
	mp.enabled = true
	mp.samples = make(map[string][]metricSample)
	return nil
}

// Stop disables sampling. Call GeneratePlots to produce output files.
func (mp *MetricsPlotter) Stop() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (mp *MetricsPlotter) IsEnabled() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.enabled
}

// Observe captures both sticks' metrics from a session snapshot. Repeated
// observations of the same frame are deduplicated.
func (mp *MetricsPlotter) Observe(snap session.Snapshot) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if !mp.enabled {
		return
	}

	if last := mp.samples["left"]; len(last) > 0 && last[len(last)-1].Frame == snap.Frames {
		return
	}

	mp.samples["left"] = append(mp.samples["left"], metricSample{
		Frame:       snap.Frames,
		DriftIndex:  snap.Left.Metrics.DriftIndex,
		JitterIndex: snap.Left.Metrics.JitterIndex,
		Suppression: snap.Left.Metrics.Suppression,
	})
	mp.samples["right"] = append(mp.samples["right"], metricSample{
		Frame:       snap.Frames,
		DriftIndex:  snap.Right.Metrics.DriftIndex,
		JitterIndex: snap.Right.Metrics.JitterIndex,
		Suppression: snap.Right.Metrics.Suppression,
	})
}

// SampleCount returns the number of recorded frames.
func (mp *MetricsPlotter) SampleCount() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.samples["left"])
}

// GeneratePlots renders one PNG per stick side and returns the number of
// files written.
func (mp *MetricsPlotter) GeneratePlots() (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}

	plotCount := 0
	for _, side := range []string{"left", "right"} {
		samples := mp.samples[side]
		if len(samples) == 0 {
			continue
		}
		if err := mp.generateSidePlot(side, samples); err != nil {
			return plotCount, fmt.Errorf("side %s: %w", side, err)
		}
		plotCount++
	}

	return plotCount, nil
}

// generateSidePlot creates one timeline with drift, jitter and suppression
// lines for a stick.
func (mp *MetricsPlotter) generateSidePlot(side string, samples []metricSample) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s stick - drift metrics", side)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Index / %"

	driftPts := make(plotter.XYs, 0, len(samples))
	jitterPts := make(plotter.XYs, 0, len(samples))
	suppressionPts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		driftPts = append(driftPts, plotter.XY{X: float64(s.Frame), Y: s.DriftIndex})
		jitterPts = append(jitterPts, plotter.XY{X: float64(s.Frame), Y: s.JitterIndex})
		suppressionPts = append(suppressionPts, plotter.XY{X: float64(s.Frame), Y: s.Suppression})
	}

	lines := []struct {
		label  string
		points plotter.XYs
		color  color.RGBA
	}{
		{"drift index", driftPts, color.RGBA{R: 220, G: 60, B: 60, A: 255}},
		{"jitter index", jitterPts, color.RGBA{R: 60, G: 120, B: 220, A: 255}},
		{"suppression %", suppressionPts, color.RGBA{R: 60, G: 180, B: 90, A: 255}},
	}
	for _, l := range lines {
		line, err := plotter.NewLine(l.points)
		if err != nil {
			return err
		}
		line.Color = l.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(l.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	outFile := filepath.Join(mp.outputDir, fmt.Sprintf("metrics_%s.png", side))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

// handlePlots controls the metrics plotter over HTTP. POST with an
// "action" query param of start, stop or generate; start also accepts
// "dir" for the output directory.
func (ws *WebServer) handlePlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.plotter == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no plotter configured")
		return
	}

	switch action := r.URL.Query().Get("action"); action {
	case "start":
		dir := r.URL.Query().Get("dir")
		if dir == "" {
			dir = "plots"
		}
		if err := security.ValidateExportPath(dir); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if err := ws.plotter.Start(dir); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"status": "recording", "dir": dir})

	case "stop":
		ws.plotter.Stop()
		httputil.WriteJSONOK(w, map[string]interface{}{"status": "stopped", "frames": ws.plotter.SampleCount()})

	case "generate":
		ws.plotter.Stop()
		count, err := ws.plotter.GeneratePlots()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{"status": "generated", "plots": count})

	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown action %q", action))
	}
}

package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/driftline/internal/httputil"
	"github.com/banshee-data/driftline/internal/session"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleMetricsChart renders a quick line chart (HTML) of the stored
// rollups using go-echarts. This is a debugging-only endpoint (no auth) to
// eyeball drift and suppression trends without the UI collaborator.
// Query params:
//   - session_id (optional; defaults to the running session)
//   - limit (optional; default 120 windows)
func (ws *WebServer) handleMetricsChart(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "no database configured for chart lookup")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" && ws.runner != nil {
		sessionID = ws.runner.ID()
	}

	limit := 120
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 2000 {
			limit = v
		}
	}

	rollups, err := ws.db.RecentRollups(sessionID, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get rollups: %v", err))
		return
	}
	if len(rollups) == 0 {
		httputil.NotFound(w, "no rollups recorded for session")
		return
	}

	// RecentRollups returns newest first; plot oldest to newest.
	bySide := map[string][]session.Rollup{}
	for i := len(rollups) - 1; i >= 0; i-- {
		rollup := rollups[i]
		bySide[rollup.Side] = append(bySide[rollup.Side], rollup)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Drift Metrics", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Stick Drift Metrics", Subtitle: fmt.Sprintf("session=%s windows=%d", sessionID, len(rollups))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frames"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Index / %"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	// Fixed side order keeps the series stable across renders; the x-axis
	// comes from whichever side recorded more windows.
	sides := []string{"left", "right"}
	var axis []string
	for _, side := range sides {
		if len(bySide[side]) > len(axis) {
			axis = axis[:0]
			for _, rollup := range bySide[side] {
				axis = append(axis, strconv.FormatInt(rollup.Frames, 10))
			}
		}
	}
	line.SetXAxis(axis)

	for _, side := range sides {
		sideRollups := bySide[side]
		if len(sideRollups) == 0 {
			continue
		}

		var driftData, jitterData, suppressionData []opts.LineData
		for _, rollup := range sideRollups {
			driftData = append(driftData, opts.LineData{Value: rollup.DriftMean})
			jitterData = append(jitterData, opts.LineData{Value: rollup.JitterMean})
			suppressionData = append(suppressionData, opts.LineData{Value: rollup.SuppressionMean})
		}

		line.AddSeries(side+" drift", driftData)
		line.AddSeries(side+" jitter", jitterData)
		line.AddSeries(side+" suppression", suppressionData)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

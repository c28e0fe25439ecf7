package db

import (
	"fmt"

	"github.com/banshee-data/driftline/internal/session"
)

// RecordRollup stores one windowed metrics rollup. DB satisfies
// session.RollupSink so a Runner can be pointed straight at the store.
func (db *DB) RecordRollup(rollup session.Rollup) error {
	_, err := db.Exec(
		`INSERT INTO session_metrics (
			session_id, side, frames, window_size,
			drift_mean, drift_stddev, jitter_mean, jitter_stddev,
			suppression_mean, suppression_stddev, neutral_p95, corrected_p95,
			timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rollup.SessionID, rollup.Side, rollup.Frames, rollup.WindowSize,
		rollup.DriftMean, rollup.DriftStdDev, rollup.JitterMean, rollup.JitterStdDev,
		rollup.SuppressionMean, rollup.SuppressionStdDev,
		rollup.NeutralP95Last, rollup.CorrectedP95Last,
		rollup.At,
	)
	if err != nil {
		return fmt.Errorf("failed to record rollup for session %s: %w", rollup.SessionID, err)
	}
	return nil
}

// RecentRollups returns up to limit rollups for a session, newest first.
// An empty sessionID returns rollups across all sessions.
func (db *DB) RecentRollups(sessionID string, limit int) ([]session.Rollup, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT session_id, side, frames, window_size,
			drift_mean, drift_stddev, jitter_mean, jitter_stddev,
			suppression_mean, suppression_stddev, neutral_p95, corrected_p95,
			timestamp
		FROM session_metrics`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rollups: %w", err)
	}
	defer rows.Close()

	var rollups []session.Rollup
	for rows.Next() {
		var r session.Rollup
		if err := rows.Scan(
			&r.SessionID, &r.Side, &r.Frames, &r.WindowSize,
			&r.DriftMean, &r.DriftStdDev, &r.JitterMean, &r.JitterStdDev,
			&r.SuppressionMean, &r.SuppressionStdDev,
			&r.NeutralP95Last, &r.CorrectedP95Last,
			&r.At,
		); err != nil {
			return nil, err
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}

// SessionSummary aggregates a whole session's rollups into single numbers
// for the CLI and the monitor API.
type SessionSummary struct {
	SessionID       string  `json:"session_id"`
	Side            string  `json:"side"`
	Windows         int64   `json:"windows"`
	DriftMean       float64 `json:"drift_mean"`
	JitterMean      float64 `json:"jitter_mean"`
	SuppressionMean float64 `json:"suppression_mean"`
	MaxFrames       int64   `json:"max_frames"`
}

// SummariseSession reduces a session's stored rollups to one row per side.
func (db *DB) SummariseSession(sessionID string) ([]SessionSummary, error) {
	rows, err := db.Query(
		`SELECT session_id, side, COUNT(*),
			AVG(drift_mean), AVG(jitter_mean), AVG(suppression_mean), MAX(frames)
		FROM session_metrics
		WHERE session_id = ?
		GROUP BY side
		ORDER BY side`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(
			&s.SessionID, &s.Side, &s.Windows,
			&s.DriftMean, &s.JitterMean, &s.SuppressionMean, &s.MaxFrames,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

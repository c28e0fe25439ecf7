package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/driftline/internal/profile"
)

// ErrProfileNotFound is returned when no stored profile matches the GUID.
var ErrProfileNotFound = errors.New("profile not found")

// StoredProfile is a profile row together with its bookkeeping columns.
type StoredProfile struct {
	Profile   profile.ControllerProfile
	Quality   profile.Tier
	UpdatedAt time.Time
}

// SaveProfile upserts a calibration profile keyed by controller GUID. The
// full JSON document is stored alongside the indexed columns so the exact
// on-disk shape survives a round trip.
func (db *DB) SaveProfile(p profile.ControllerProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	tier, _ := profile.Quality(p)

	_, err = db.Exec(
		`INSERT INTO profiles (guid, name, quality, document, generated_at, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(guid) DO UPDATE SET
			name = excluded.name,
			quality = excluded.quality,
			document = excluded.document,
			generated_at = excluded.generated_at,
			updated_at = CURRENT_TIMESTAMP`,
		p.ControllerGUID, p.ControllerName, string(tier), string(doc), p.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.ControllerGUID, err)
	}
	return nil
}

// GetProfile loads the stored profile for a controller GUID.
func (db *DB) GetProfile(guid string) (StoredProfile, error) {
	var stored StoredProfile
	var doc string
	var quality string

	err := db.QueryRow(
		`SELECT document, quality, updated_at FROM profiles WHERE guid = ?`, guid,
	).Scan(&doc, &quality, &stored.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredProfile{}, ErrProfileNotFound
	}
	if err != nil {
		return StoredProfile{}, fmt.Errorf("failed to load profile %s: %w", guid, err)
	}

	if err := json.Unmarshal([]byte(doc), &stored.Profile); err != nil {
		return StoredProfile{}, fmt.Errorf("failed to decode profile %s: %w", guid, err)
	}
	stored.Quality = profile.Tier(quality)
	return stored, nil
}

// ListProfiles returns all stored profiles ordered by most recent update.
func (db *DB) ListProfiles() ([]StoredProfile, error) {
	rows, err := db.Query(
		`SELECT document, quality, updated_at FROM profiles ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []StoredProfile
	for rows.Next() {
		var stored StoredProfile
		var doc string
		var quality string
		if err := rows.Scan(&doc, &quality, &stored.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(doc), &stored.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode stored profile: %w", err)
		}
		stored.Quality = profile.Tier(quality)
		profiles = append(profiles, stored)
	}
	return profiles, rows.Err()
}

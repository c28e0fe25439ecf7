package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the default directory for stored profile documents.
const DefaultDir = "profiles"

// Slugify lowercases a controller name and replaces every character
// outside [a-z0-9] with a dash, collapsing runs. An empty result falls
// back to "controller".
func Slugify(value string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(value) {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune(ch + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	text := b.String()
	for strings.Contains(text, "--") {
		text = strings.ReplaceAll(text, "--", "-")
	}
	text = strings.Trim(text, "-")
	if text == "" {
		return "controller"
	}
	return text
}

// PathFor returns the canonical profile path for a controller inside dir:
// <slug>_<guid prefix>.json.
func PathFor(dir string, info ControllerInfo) string {
	guid := info.GUID
	if len(guid) > 8 {
		guid = guid[:8]
	}
	if guid == "" {
		guid = "unknown"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", Slugify(info.Name), guid))
}

// Save writes a profile document, creating the directory if needed.
func Save(p ControllerProfile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("profile: create directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: encode: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("profile: write %s: %w", path, err)
	}
	return nil
}

// Load reads and validates a profile document.
func Load(path string) (ControllerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ControllerProfile{}, fmt.Errorf("profile: read %s: %w", path, err)
	}

	var p ControllerProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return ControllerProfile{}, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	return p, nil
}

// List returns every profile document path under dir, sorted. A missing
// directory is not an error; it simply yields no paths.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile: list %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// FindMatching scans dir for a stored profile matching the controller,
// preferring a GUID match over a name match. Returns "" when none match.
func FindMatching(dir string, info ControllerInfo) (string, error) {
	paths, err := List(dir)
	if err != nil {
		return "", err
	}

	nameMatch := ""
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			continue
		}
		if info.GUID != "" && p.ControllerGUID == info.GUID {
			return path, nil
		}
		if nameMatch == "" && p.ControllerName == info.Name {
			nameMatch = path
		}
	}
	return nameMatch, nil
}

// Matches reports whether a profile belongs to the given controller.
func Matches(p ControllerProfile, info ControllerInfo) bool {
	if info.GUID != "" && p.ControllerGUID == info.GUID {
		return true
	}
	return p.ControllerName == info.Name
}

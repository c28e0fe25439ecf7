package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	t.Parallel()
	safeDir := t.TempDir()

	t.Run("path inside is accepted", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidatePathWithinDirectory(filepath.Join(safeDir, "out.png"), safeDir))
	})

	t.Run("nested path inside is accepted", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidatePathWithinDirectory(filepath.Join(safeDir, "run", "out.png"), safeDir))
	})

	t.Run("dotdot escape is rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidatePathWithinDirectory(filepath.Join(safeDir, "..", "escape.png"), safeDir))
	})

	t.Run("absolute path outside is rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidatePathWithinDirectory("/etc/passwd", safeDir))
	})

	t.Run("symlinked parent is rejected", func(t *testing.T) {
		t.Parallel()
		outside := t.TempDir()
		link := filepath.Join(safeDir, "sneaky")
		require.NoError(t, os.Symlink(outside, link))
		assert.Error(t, ValidatePathWithinDirectory(filepath.Join(link, "out.png"), safeDir))
	})
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	t.Parallel()
	dirA := t.TempDir()
	dirB := t.TempDir()

	assert.NoError(t, ValidatePathWithinAllowedDirs(filepath.Join(dirB, "x"), []string{dirA, dirB}))
	assert.Error(t, ValidatePathWithinAllowedDirs("/etc/passwd", []string{dirA, dirB}))
	assert.Error(t, ValidatePathWithinAllowedDirs(filepath.Join(dirA, "x"), nil))
}

func TestValidateExportPath(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateExportPath(filepath.Join(os.TempDir(), "export.png")))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.NoError(t, ValidateExportPath(filepath.Join(cwd, "export.png")))

	assert.Error(t, ValidateExportPath("/etc/export.png"))
}

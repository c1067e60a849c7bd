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

	dir := t.TempDir()

	t.Run("inside", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidatePathWithinDirectory(filepath.Join(dir, "out.json"), dir))
		assert.NoError(t, ValidatePathWithinDirectory(filepath.Join(dir, "sub", "out.json"), dir))
	})

	t.Run("escape via dotdot", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidatePathWithinDirectory(filepath.Join(dir, "..", "out.json"), dir))
	})

	t.Run("unrelated absolute path", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidatePathWithinDirectory("/etc/passwd", dir))
	})

	t.Run("symlinked parent escapes", func(t *testing.T) {
		t.Parallel()
		outside := t.TempDir()
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(outside, link))
		assert.Error(t, ValidatePathWithinDirectory(filepath.Join(link, "out.json"), dir))
	})
}

func TestValidateExportPath(t *testing.T) {
	t.Parallel()

	// t.TempDir lives under the system temp directory.
	assert.NoError(t, ValidateExportPath(filepath.Join(t.TempDir(), "report.html")))
	assert.NoError(t, ValidateExportPath("report.html"))
	assert.Error(t, ValidateExportPath("/etc/report.html"))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "morning-commute_01.json", SanitizeFilename("morning-commute_01.json"))
	assert.Equal(t, "a_b", SanitizeFilename("a//??b"))
	assert.Equal(t, "unknown", SanitizeFilename(""))
	assert.Equal(t, "unknown", SanitizeFilename("///"))
	assert.LessOrEqual(t, len(SanitizeFilename(string(make([]byte, 400)))), 128)
}

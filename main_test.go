package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/behavior.report/internal/motion/replay"
)

func TestResolveConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults when nothing given", func(t *testing.T) {
		t.Parallel()
		cfg, name, err := resolveConfig("", "")
		require.NoError(t, err)
		assert.Equal(t, "defaults", name)
		assert.Equal(t, 6.5, cfg.Resolve().AccelerationThreshold)
	})

	t.Run("preset", func(t *testing.T) {
		t.Parallel()
		cfg, name, err := resolveConfig("sensitive", "")
		require.NoError(t, err)
		assert.Equal(t, "sensitive", name)
		assert.Equal(t, 4.5, cfg.Resolve().AccelerationThreshold)
	})

	t.Run("unknown preset", func(t *testing.T) {
		t.Parallel()
		_, _, err := resolveConfig("bogus", "")
		assert.Error(t, err)
	})

	t.Run("preset and config are exclusive", func(t *testing.T) {
		t.Parallel()
		_, _, err := resolveConfig("sensitive", "some.json")
		assert.Error(t, err)
	})
}

func TestLoadSessions(t *testing.T) {
	t.Parallel()

	t.Run("missing dir flag", func(t *testing.T) {
		t.Parallel()
		_, err := loadSessions("")
		assert.Error(t, err)
	})

	t.Run("empty dir", func(t *testing.T) {
		t.Parallel()
		_, err := loadSessions(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("loads generated session", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cfg := replay.DefaultGeneratorConfig()
		cfg.DurationMs = 5_000
		session, err := replay.GenerateSession("trip", replay.SessionSafe, cfg)
		require.NoError(t, err)
		require.NoError(t, replay.SaveSession(session, filepath.Join(dir, "trip.json")))

		sessions, err := loadSessions(dir)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "trip", sessions[0].Name)
	})
}

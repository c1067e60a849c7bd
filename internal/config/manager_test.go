package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&DetectionConfig{AccelerationThreshold: ptrFloat64(4.0)}))

	m := NewManager(store, EmptyDetectionConfig())
	require.NoError(t, m.Load())

	s := m.Current()
	assert.Equal(t, 4.0, s.AccelerationThreshold)
	assert.Equal(t, -7.0, s.BrakingThreshold, "unpersisted field keeps default")
}

func TestManagerLoadMissingRecordUsesDefaults(t *testing.T) {
	t.Parallel()

	m := NewManager(NewMemoryStore(), EmptyDetectionConfig())
	require.NoError(t, m.Load())
	assert.Equal(t, 6.5, m.Current().AccelerationThreshold)
}

func TestManagerSave(t *testing.T) {
	t.Parallel()

	t.Run("rejects out-of-range update without mutation", func(t *testing.T) {
		t.Parallel()
		m := NewManager(NewMemoryStore(), EmptyDetectionConfig())

		err := m.Save(&DetectionConfig{AccelerationThreshold: ptrFloat64(25)})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Violations, 1)
		assert.Contains(t, verr.Violations[0], "acceleration_threshold")

		assert.Equal(t, 6.5, m.Current().AccelerationThreshold, "settings must be untouched")
	})

	t.Run("persists and applies valid update", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore()
		m := NewManager(store, EmptyDetectionConfig())

		require.NoError(t, m.Save(&DetectionConfig{BrakingThreshold: ptrFloat64(-5.0)}))
		assert.Equal(t, -5.0, m.Current().BrakingThreshold)

		persisted, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, -5.0, persisted.GetBrakingThreshold())
	})

	t.Run("surfaces persistence failure and keeps old settings", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore()
		store.FailNext = errors.New("disk full")
		m := NewManager(store, EmptyDetectionConfig())

		err := m.Save(&DetectionConfig{BrakingThreshold: ptrFloat64(-5.0)})
		require.Error(t, err)
		assert.Equal(t, -7.0, m.Current().BrakingThreshold)
	})
}

func TestManagerNotifiesInRegistrationOrder(t *testing.T) {
	t.Parallel()

	m := NewManager(NewMemoryStore(), EmptyDetectionConfig())

	var order []string
	m.Subscribe(func(s Settings) { order = append(order, "first") })
	unsub := m.Subscribe(func(s Settings) { order = append(order, "second") })
	m.Subscribe(func(s Settings) { order = append(order, "third") })

	require.NoError(t, m.Save(&DetectionConfig{AlertCooldownMs: ptrInt(4000)}))
	assert.Equal(t, []string{"first", "second", "third"}, order)

	order = nil
	unsub()
	require.NoError(t, m.Save(&DetectionConfig{AlertCooldownMs: ptrInt(3000)}))
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestManagerSubscriberSeesMergedSnapshot(t *testing.T) {
	t.Parallel()

	m := NewManager(NewMemoryStore(), EmptyDetectionConfig())

	var got Settings
	m.Subscribe(func(s Settings) { got = s })

	require.NoError(t, m.Save(&DetectionConfig{MovingAverageWindow: ptrInt(9)}))
	assert.Equal(t, 9, got.MovingAverageWindow)
	assert.Equal(t, 6.5, got.AccelerationThreshold)
}

func TestManagerResetToDefaults(t *testing.T) {
	t.Parallel()

	m := NewManager(NewMemoryStore(), EmptyDetectionConfig())
	require.NoError(t, m.Save(&DetectionConfig{AccelerationThreshold: ptrFloat64(3.0)}))
	require.Equal(t, 3.0, m.Current().AccelerationThreshold)

	var notified bool
	m.Subscribe(func(s Settings) { notified = true })

	require.NoError(t, m.ResetToDefaults())
	assert.Equal(t, 6.5, m.Current().AccelerationThreshold)
	assert.True(t, notified)
}

func TestManagerValidateSettingsDoesNotMutate(t *testing.T) {
	t.Parallel()

	m := NewManager(NewMemoryStore(), EmptyDetectionConfig())

	violations := m.ValidateSettings(&DetectionConfig{
		AccelerationThreshold: ptrFloat64(25),
		SamplingRateMs:        ptrInt(10),
	})
	assert.Len(t, violations, 2)
	assert.Equal(t, 6.5, m.Current().AccelerationThreshold)
	assert.Equal(t, 100, m.Current().SamplingRateMs)

	assert.Empty(t, m.ValidateSettings(&DetectionConfig{AccelerationThreshold: ptrFloat64(5)}))
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewFileStore(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	cfg := &DetectionConfig{AccelerationThreshold: ptrFloat64(5.5), MovingAverageWindow: ptrInt(7)}
	require.NoError(t, store.Save(cfg))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 5.5, loaded.GetAccelerationThreshold())
	assert.Equal(t, 7, loaded.GetMovingAverageWindow())
	assert.Nil(t, loaded.BrakingThreshold, "unset fields stay unset on disk")
}

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/behavior.report/internal/monitoring"
)

// Listener receives the resolved settings snapshot after every successful
// save or reset. Notification is synchronous, in registration order, on the
// caller's goroutine. A consumer whose buffer shape depends on a changed
// parameter (moving_average_window) must reset its filter on notification.
type Listener func(Settings)

// Manager is the process-lifetime authority for detection settings. It is an
// explicit context object handed to pipeline constructors rather than
// ambient global state, with the listener list injectable via Subscribe.
type Manager struct {
	mu       sync.Mutex
	store    Store
	defaults *DetectionConfig
	current  *DetectionConfig
	nextID   int
	order    []int
	byID     map[int]Listener
}

// NewManager creates a settings manager over the given store. The defaults
// config is the fallback for any field never persisted; pass
// MustLoadDefaultConfig() or a config loaded from the defaults file.
func NewManager(store Store, defaults *DetectionConfig) *Manager {
	if defaults == nil {
		defaults = EmptyDetectionConfig()
	}
	return &Manager{
		store:    store,
		defaults: defaults.Clone(),
		current:  defaults.Clone(),
		byID:     make(map[int]Listener),
	}
}

// Load merges the persisted record over the defaults. A missing record is
// not an error: the defaults stand. Any other store failure is surfaced.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	persisted, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.current = m.defaults.Clone()
			return nil
		}
		return fmt.Errorf("failed to load settings: %w", err)
	}

	merged := m.defaults.Merge(persisted)
	if violations := merged.Violations(); len(violations) > 0 {
		// A persisted record that fails validation is reported, not clamped.
		return &ValidationError{Violations: violations}
	}
	m.current = merged
	monitoring.Debugf("settings loaded: %+v", m.current.Resolve())
	return nil
}

// Current returns a resolved snapshot of the active settings. The returned
// value is a copy; mutating it has no effect on the manager.
func (m *Manager) Current() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Resolve()
}

// CurrentConfig returns a deep copy of the active pointer-field config.
func (m *Manager) CurrentConfig() *DetectionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Save validates the partial update, merges it over the active settings,
// persists the merged record, and notifies subscribers in registration
// order. On validation failure nothing is mutated and nothing is persisted.
// On persistence failure the in-memory settings are also left untouched.
func (m *Manager) Save(partial *DetectionConfig) error {
	m.mu.Lock()

	if violations := partial.Violations(); len(violations) > 0 {
		m.mu.Unlock()
		return &ValidationError{Violations: violations}
	}

	merged := m.current.Merge(partial)
	if violations := merged.Violations(); len(violations) > 0 {
		// Cross-field checks (e.g. Nyquist) can fail even when each partial
		// field is individually in range.
		m.mu.Unlock()
		return &ValidationError{Violations: violations}
	}

	if err := m.store.Save(merged); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	m.current = merged
	snapshot := m.current.Resolve()
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}

// ResetToDefaults persists the defaults as the active record and notifies
// subscribers.
func (m *Manager) ResetToDefaults() error {
	m.mu.Lock()

	fresh := m.defaults.Clone()
	if err := m.store.Save(fresh); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	m.current = fresh
	snapshot := m.current.Resolve()
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}

// ValidateSettings reports the range violations of a partial update without
// mutating anything. An empty slice means the update would be accepted.
func (m *Manager) ValidateSettings(partial *DetectionConfig) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if violations := partial.Violations(); len(violations) > 0 {
		return violations
	}
	return m.current.Merge(partial).Violations()
}

// Subscribe registers a listener and returns its unsubscribe function.
// Listeners fire synchronously in registration order.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.order = append(m.order, id)
	m.byID[id] = l

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.byID, id)
		for i, v := range m.order {
			if v == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
}

// snapshotListeners returns the live listeners in registration order.
// Caller must hold mu.
func (m *Manager) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(m.order))
	for _, id := range m.order {
		if l, ok := m.byID[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

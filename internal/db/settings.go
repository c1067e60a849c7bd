package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/behavior.report/internal/config"
)

// DefaultSettingsName is the record most deployments use; named records
// exist so experiments can persist alternates side by side.
const DefaultSettingsName = "current"

// SettingsStore persists one named detection configuration as a JSON
// record. It satisfies config.Store, so the settings manager can run on
// sqlite instead of a flat file.
type SettingsStore struct {
	db   *DB
	name string
}

// NewSettingsStore builds a store bound to one named record.
func NewSettingsStore(db *DB, name string) *SettingsStore {
	if name == "" {
		name = DefaultSettingsName
	}
	return &SettingsStore{db: db, name: name}
}

// Load reads the stored configuration. A missing record reports
// config.ErrNotFound so the manager falls back to defaults.
func (s *SettingsStore) Load() (*config.DetectionConfig, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT config FROM detection_settings WHERE name = ?`, s.name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings %q: %w", s.name, err)
	}

	var c config.DetectionConfig
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("stored settings %q are corrupt: %w", s.name, err)
	}
	return &c, nil
}

// Save upserts the configuration under the store's record name.
func (s *SettingsStore) Save(c *config.DetectionConfig) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO detection_settings (name, config, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET config = excluded.config, updated_at = CURRENT_TIMESTAMP`,
		s.name, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings %q: %w", s.name, err)
	}
	return nil
}

// ListSettingsNames returns the stored record names, oldest first.
func (db *DB) ListSettingsNames() ([]string, error) {
	rows, err := db.Query(`SELECT name FROM detection_settings ORDER BY updated_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan settings name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

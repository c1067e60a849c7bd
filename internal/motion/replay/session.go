// Package replay provides offline validation for the detection pipeline:
// labeled dataset sessions, a deterministic replay harness and a
// synthetic session generator for fixtures and benchmarks.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/behavior.report/internal/motion"
	"github.com/banshee-data/behavior.report/internal/security"
)

// Session ground-truth labels.
const (
	SessionSafe  = "safe"
	SessionRisky = "risky"
)

// ErrMalformedSession marks a dataset session that cannot be replayed:
// missing samples, missing name or an unknown label. Within a batch run
// a malformed session fails alone; it never aborts the batch.
var ErrMalformedSession = errors.New("malformed dataset session")

// DatasetSession is one ground-truth-labeled recording of raw sensor
// samples. Sessions exist only for offline validation and are never fed
// to live detection.
type DatasetSession struct {
	Name string `json:"name"`
	// Type is the ground-truth label: "safe" or "risky".
	Type string                `json:"type"`
	Data []motion.SensorSample `json:"data"`

	// Derived fields, filled by Normalize.
	DurationMs            int64   `json:"duration,omitempty"`
	TotalSamples          int     `json:"totalSamples,omitempty"`
	AverageSamplingRateMs float64 `json:"averageSamplingRate,omitempty"`
}

// Validate reports whether the session is replayable. All failures wrap
// ErrMalformedSession.
func (s *DatasetSession) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrMalformedSession)
	}
	if s.Type != SessionSafe && s.Type != SessionRisky {
		return fmt.Errorf("%w: session %q has unknown label %q", ErrMalformedSession, s.Name, s.Type)
	}
	if len(s.Data) == 0 {
		return fmt.Errorf("%w: session %q has no samples", ErrMalformedSession, s.Name)
	}
	return nil
}

// Normalize sorts samples into timestamp order and recomputes the derived
// duration/rate fields from the data.
func (s *DatasetSession) Normalize() {
	sort.SliceStable(s.Data, func(i, j int) bool {
		return s.Data[i].TimestampMs < s.Data[j].TimestampMs
	})
	s.TotalSamples = len(s.Data)
	if len(s.Data) > 1 {
		s.DurationMs = s.Data[len(s.Data)-1].TimestampMs - s.Data[0].TimestampMs
		s.AverageSamplingRateMs = float64(s.DurationMs) / float64(len(s.Data)-1)
	} else {
		s.DurationMs = 0
		s.AverageSamplingRateMs = 0
	}
}

// LoadSession reads one session from a JSON file, validates it and fills
// the derived fields.
func LoadSession(path string) (*DatasetSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var s DatasetSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSession, filepath.Base(path), err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

// SaveSession writes a session to a JSON file. The path must stay
// under the working directory or the system temp directory.
func SaveSession(s *DatasetSession, path string) error {
	if err := security.ValidateExportPath(path); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	s.Normalize()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// LoadSessionDir loads every *.json session in a directory, sorted by
// filename. Malformed sessions are collected as errors alongside the
// valid sessions rather than aborting the load.
func LoadSessionDir(dir string) ([]*DatasetSession, []error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, []error{fmt.Errorf("failed to scan session directory: %w", err)}
	}
	sort.Strings(paths)

	var sessions []*DatasetSession
	var errs []error
	for _, path := range paths {
		s, err := LoadSession(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, errs
}

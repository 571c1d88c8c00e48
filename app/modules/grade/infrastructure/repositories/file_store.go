package gradedb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultScheduleFile is the file name used when none is configured.
const DefaultScheduleFile = "schedule.json"

// FileStore keeps the schedule record as a small JSON document on disk.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if path == "" {
		path = DefaultScheduleFile
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(_ context.Context, rec ScheduleRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode schedule record: %w", err)
	}

	// Write to a sibling temp file and rename so a crash never leaves a
	// half-written record behind.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp schedule file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write schedule file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close schedule file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace schedule file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (ScheduleRecord, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ScheduleRecord{}, false, nil
		}
		return ScheduleRecord{}, false, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var raw struct {
		Month *int `json:"month"`
		Day   *int `json:"day"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw.Month == nil || raw.Day == nil {
		s.logger.Warn("Ignoring unreadable schedule file",
			slog.String("path", s.path),
			slog.Any("error", err),
		)
		return ScheduleRecord{}, false, nil
	}

	rec := ScheduleRecord{Month: *raw.Month, Day: *raw.Day}
	if !rec.Valid() {
		s.logger.Warn("Ignoring out-of-range schedule record",
			slog.String("path", s.path),
			slog.Int("month", rec.Month),
			slog.Int("day", rec.Day),
		)
		return ScheduleRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete schedule file: %w", err)
	}
	return nil
}

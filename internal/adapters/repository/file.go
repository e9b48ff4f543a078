package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/okian/gradestats/internal/domain/grades"
	"github.com/okian/gradestats/pkg/logger"
	"github.com/okian/gradestats/pkg/metrics"
)

// FileStore serves score records loaded from a YAML or JSON file. The file
// holds a top-level list of records:
//
//	- learner_id: 1
//	  class_id: 10
//	  scores:
//	    - {type: exam, score: 80}
//
// JSON documents of the same shape are accepted as well.
type FileStore struct {
	*MemoryStore
	path string
	log  logger.Logger
}

// LoadFile reads path into a new FileStore.
func LoadFile(path string, log logger.Logger) (*FileStore, error) {
	records, err := readRecordsFile(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{MemoryStore: NewMemoryStore(records...), path: path, log: log}, nil
}

// Path returns the file the store was loaded from.
func (s *FileStore) Path() string { return s.path }

// Driver implements Store.
func (s *FileStore) Driver() Driver { return DriverFile }

// Reload re-reads the file. On failure the previous records stay active.
func (s *FileStore) Reload() error {
	records, err := readRecordsFile(s.path)
	if err != nil {
		metrics.RecordSourceReload("error")
		return err
	}
	s.Replace(records)
	metrics.RecordSourceReload("ok")
	return nil
}

// Watch reloads the store each time the file is written or replaced and
// calls onChange with the new record count. It runs until ctx is cancelled.
// A reload that fails keeps the previous records and does not call onChange.
func (s *FileStore) Watch(ctx context.Context, onChange func(records int)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so atomic saves (write temp + rename) are seen.
	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	s.logInfo(ctx, "watching source file", logger.String("path", s.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logError(ctx, "source reload failed, keeping previous records",
					logger.String("path", s.path), logger.Error(err))
				continue
			}
			n := s.Len()
			s.logInfo(ctx, "source reloaded", logger.String("path", s.path), logger.Int("records", n))
			if onChange != nil {
				onChange(n)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logError(ctx, "source watcher error", logger.Error(err))
		}
	}
}

func (s *FileStore) logInfo(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Info(ctx, msg, fields...)
	}
}

func (s *FileStore) logError(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Error(ctx, msg, fields...)
	}
}

// WriteRecordsFile writes records to path as YAML.
func WriteRecordsFile(path string, records []grades.ScoreRecord) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readRecordsFile(path string) ([]grades.ScoreRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: source file path", ErrMissingSetting)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []grades.ScoreRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	// Untyped entries are kept; the engine leaves them out of the means.
	return records, nil
}

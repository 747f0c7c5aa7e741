// Package checkpoint persists the accumulated analysis result after
// every batch so a crash loses at most one in-flight batch.
package checkpoint

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/modfall/toxiscan/internal/dataset"
	"github.com/modfall/toxiscan/pkg/models"
)

// Store writes and reloads checkpoint snapshots. Writes are atomic
// from a reader's perspective: the snapshot is written to a temporary
// file and renamed into place, so a reader never observes a partial
// checkpoint.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a checkpoint store at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes a snapshot of the result. The caller retains ownership;
// the store only serializes what it is handed.
func (s *Store) Save(result *models.AnalysisResult) error {
	var buf bytes.Buffer
	if err := dataset.WriteRecords(&buf, result.Records); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("failed to rename checkpoint: %w", err)
	}

	s.logger.Debug("Checkpoint saved", "path", s.path, "records", result.Len())
	return nil
}

// Load reads the prior snapshot. A missing or corrupt checkpoint
// degrades to an empty result rather than failing the run over
// damaged resumable state.
func (s *Store) Load() *models.AnalysisResult {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read checkpoint, starting fresh", "path", s.path, "error", err)
		}
		return &models.AnalysisResult{}
	}

	recs, err := dataset.ReadRecords(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("Checkpoint is corrupt, starting fresh", "path", s.path, "error", err)
		return &models.AnalysisResult{}
	}

	s.logger.Info("Checkpoint loaded", "path", s.path, "records", len(recs))
	return &models.AnalysisResult{Records: recs}
}

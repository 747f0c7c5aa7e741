// Package writer handles the run's filesystem surface: session
// directories, the dual-destination logger, and the final result file.
package writer

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/modfall/toxiscan/internal/dataset"
	"github.com/modfall/toxiscan/pkg/models"
)

// WriteResults writes the final result file. Unlike the checkpoint this
// is the deliverable: it is written once at the end of the run, even
// when the run was aborted partway, so partial work is never lost.
func WriteResults(path string, recs []models.Record, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()

	if err := dataset.WriteRecords(f, recs); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close result file: %w", err)
	}

	logger.Info("Results written", "path", path, "records", len(recs))
	return nil
}

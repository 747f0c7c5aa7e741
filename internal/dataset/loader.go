// Package dataset handles the tabular files the tool reads and
// writes: the input comment file, and the result-record format shared
// by the checkpoint store, the output writer, and the report readers.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/modfall/toxiscan/pkg/models"
)

// Recognized column names, checked case-insensitively. The original
// datasets this tool targets label the text column "tweet".
var (
	textColumns = []string{"comment_text", "tweet", "text", "comment"}
	idColumns   = []string{"comment_id", "id"}
)

// LoadComments reads the input file. Row order is the canonical
// processing order. When no id column is present, ids are assigned by
// position.
func LoadComments(path string) ([]models.Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	comments, err := ReadComments(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return comments, nil
}

// ReadComments parses comments from CSV data.
func ReadComments(r io.Reader) ([]models.Comment, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	textIdx := findColumn(header, textColumns)
	if textIdx == -1 {
		return nil, fmt.Errorf("no text column found (looked for %s)", strings.Join(textColumns, ", "))
	}
	idIdx := findColumn(header, idColumns)

	var comments []models.Comment
	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}

		id := row
		if idIdx != -1 {
			id, err = strconv.Atoi(strings.TrimSpace(record[idIdx]))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid id %q", row+1, record[idIdx])
			}
		}

		comments = append(comments, models.Comment{
			ID:   id,
			Text: record[textIdx],
		})
	}

	return comments, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				return i
			}
		}
	}
	return -1
}

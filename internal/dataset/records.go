package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/modfall/toxiscan/pkg/models"
)

// resultHeader is the record schema shared by checkpoints and final
// output files.
var resultHeader = []string{
	"comment_id",
	"comment_text",
	"is_offensive",
	"offense_type",
	"severity",
	"rationale",
	"analyzed",
}

// WriteRecords encodes records as CSV, one row per comment in result
// order.
func WriteRecords(w io.Writer, recs []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range recs {
		row := []string{
			strconv.Itoa(rec.Comment.ID),
			rec.Comment.Text,
			strconv.FormatBool(rec.Verdict.IsOffensive),
			string(rec.Verdict.Type),
			strconv.FormatFloat(rec.Verdict.Severity, 'f', -1, 64),
			rec.Verdict.Rationale,
			strconv.FormatBool(!rec.Verdict.Unanalyzed),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", rec.Comment.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadRecords decodes records from CSV data. Any structural defect is
// an error; the caller decides whether that is fatal (a result file)
// or degrades to starting over (a checkpoint).
func ReadRecords(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) != len(resultHeader) {
		return nil, fmt.Errorf("unexpected header: got %d columns, want %d", len(header), len(resultHeader))
	}
	for i, col := range header {
		if col != resultHeader[i] {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, col, resultHeader[i])
		}
	}

	var recs []models.Record
	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}

		rec, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// ReadRecordsFile reads a result file from disk.
func ReadRecordsFile(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return recs, nil
}

func parseRecord(row []string) (models.Record, error) {
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid comment_id %q", row[0])
	}
	offensive, err := strconv.ParseBool(row[2])
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid is_offensive %q", row[2])
	}
	offenseType := models.OffenseType(row[3])
	if !offenseType.Valid() {
		return models.Record{}, fmt.Errorf("invalid offense_type %q", row[3])
	}
	severity, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid severity %q", row[4])
	}
	analyzed, err := strconv.ParseBool(row[6])
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid analyzed %q", row[6])
	}

	return models.Record{
		Comment: models.Comment{ID: id, Text: row[1]},
		Verdict: models.Verdict{
			IsOffensive: offensive,
			Type:        offenseType,
			Severity:    severity,
			Rationale:   row[5],
			Unanalyzed:  !analyzed,
		},
	}, nil
}

package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/modfall/toxiscan/pkg/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{
			Comment: models.Comment{ID: 0, Text: "clean comment"},
			Verdict: models.PrefilteredVerdict(),
		},
		{
			Comment: models.Comment{ID: 1, Text: "nasty, \"quoted\" comment\nwith newline"},
			Verdict: models.Verdict{
				IsOffensive: true,
				Type:        models.OffenseHarassment,
				Severity:    0.85,
				Rationale:   "targets an individual",
			},
		},
		{
			Comment: models.Comment{ID: 2, Text: "skipped one"},
			Verdict: models.SentinelVerdict("batch skipped after retries exhausted"),
		},
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	recs := sampleRecords()

	var buf bytes.Buffer
	if err := WriteRecords(&buf, recs); err != nil {
		t.Fatalf("WriteRecords() error: %v", err)
	}

	got, err := ReadRecords(&buf)
	if err != nil {
		t.Fatalf("ReadRecords() error: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("got %d records, want %d", len(got), len(recs))
	}
	for i := range recs {
		if got[i] != recs[i] {
			t.Errorf("record %d mismatch:\n got %+v\nwant %+v", i, got[i], recs[i])
		}
	}
}

func TestReadRecordsRejectsBadHeader(t *testing.T) {
	input := "id,text\n1,hello\n"
	if _, err := ReadRecords(strings.NewReader(input)); err == nil {
		t.Error("ReadRecords() should reject an unknown header")
	}
}

func TestReadRecordsRejectsBadRow(t *testing.T) {
	input := "comment_id,comment_text,is_offensive,offense_type,severity,rationale,analyzed\n" +
		"1,hello,not-a-bool,none,0,ok,true\n"
	if _, err := ReadRecords(strings.NewReader(input)); err == nil {
		t.Error("ReadRecords() should reject an invalid is_offensive value")
	}
}

func TestReadRecordsRejectsBadOffenseType(t *testing.T) {
	input := "comment_id,comment_text,is_offensive,offense_type,severity,rationale,analyzed\n" +
		"1,hello,true,spam,0.5,ok,true\n"
	if _, err := ReadRecords(strings.NewReader(input)); err == nil {
		t.Error("ReadRecords() should reject an unknown offense type")
	}
}

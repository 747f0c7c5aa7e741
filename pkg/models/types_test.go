package models

import "testing"

func TestAppendRejectsDuplicateIDs(t *testing.T) {
	result := &AnalysisResult{}

	if err := result.Append(
		Record{Comment: Comment{ID: 1, Text: "a"}, Verdict: PrefilteredVerdict()},
		Record{Comment: Comment{ID: 2, Text: "b"}, Verdict: PrefilteredVerdict()},
	); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	if err := result.Append(Record{Comment: Comment{ID: 1, Text: "again"}, Verdict: PrefilteredVerdict()}); err == nil {
		t.Error("Append() should reject a duplicate comment id")
	}
	if result.Len() != 2 {
		t.Errorf("Len() = %d, want 2", result.Len())
	}
}

func TestPrefixOf(t *testing.T) {
	comments := []Comment{{ID: 10}, {ID: 11}, {ID: 12}}

	result := &AnalysisResult{}
	if !result.PrefixOf(comments) {
		t.Error("empty result should be a prefix of anything")
	}

	_ = result.Append(
		Record{Comment: Comment{ID: 10}},
		Record{Comment: Comment{ID: 11}},
	)
	if !result.PrefixOf(comments) {
		t.Error("matching prefix not recognized")
	}

	_ = result.Append(Record{Comment: Comment{ID: 99}})
	if result.PrefixOf(comments) {
		t.Error("mismatched id should break the prefix")
	}

	longer := &AnalysisResult{}
	_ = longer.Append(
		Record{Comment: Comment{ID: 10}},
		Record{Comment: Comment{ID: 11}},
		Record{Comment: Comment{ID: 12}},
		Record{Comment: Comment{ID: 13}},
	)
	if longer.PrefixOf(comments) {
		t.Error("result longer than the input cannot be a prefix")
	}
}

func TestOffenseTypePriority(t *testing.T) {
	order := []OffenseType{OffenseNone, OffenseProfanity, OffenseToxicity, OffenseHarassment, OffenseHateSpeech}
	for i := 1; i < len(order); i++ {
		if order[i].Priority() <= order[i-1].Priority() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
}

func TestSentinelVerdict(t *testing.T) {
	v := SentinelVerdict("batch skipped after retries exhausted")
	if v.IsOffensive || v.Type != OffenseNone || v.Severity != 0 || !v.Unanalyzed {
		t.Errorf("unexpected sentinel verdict: %+v", v)
	}
}

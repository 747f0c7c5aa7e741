package models

import (
	"fmt"
	"time"
)

// OffenseType is the classification label for an offensive comment.
// The string values match the labels the classifier is instructed to
// emit and the values stored in result files.
type OffenseType string

const (
	OffenseHateSpeech OffenseType = "hate speech"
	OffenseHarassment OffenseType = "harassment"
	OffenseToxicity   OffenseType = "toxicity"
	OffenseProfanity  OffenseType = "profanity"
	OffenseNone       OffenseType = "none"
)

// AllOffenseTypes lists the offensive categories (excludes "none").
var AllOffenseTypes = []OffenseType{
	OffenseHateSpeech,
	OffenseHarassment,
	OffenseToxicity,
	OffenseProfanity,
}

// Valid reports whether t is a recognized label.
func (t OffenseType) Valid() bool {
	switch t {
	case OffenseHateSpeech, OffenseHarassment, OffenseToxicity, OffenseProfanity, OffenseNone:
		return true
	}
	return false
}

// Priority orders categories by how severe they are considered when a
// response names more than one: higher wins.
func (t OffenseType) Priority() int {
	switch t {
	case OffenseHateSpeech:
		return 4
	case OffenseHarassment:
		return 3
	case OffenseToxicity:
		return 2
	case OffenseProfanity:
		return 1
	}
	return 0
}

// Comment is a single immutable input unit. ID is the stable key from
// the input file (or the row position when the file has no id column).
type Comment struct {
	ID   int
	Text string
}

// Verdict is the classification outcome for one comment.
type Verdict struct {
	IsOffensive bool
	Type        OffenseType
	Severity    float64 // in [0,1]
	Rationale   string
	// Unanalyzed marks a sentinel verdict for a comment whose batch
	// the operator declined to retry. Such verdicts carry no signal.
	Unanalyzed bool
}

// PrefilteredVerdict is the synthesized verdict for a comment the
// prefilter judged not worth sending to the classifier.
func PrefilteredVerdict() Verdict {
	return Verdict{
		IsOffensive: false,
		Type:        OffenseNone,
		Severity:    0,
		Rationale:   "no profanity detected by prefilter",
	}
}

// SentinelVerdict is the placeholder verdict for a comment whose
// classification was skipped after automatic retries were exhausted.
func SentinelVerdict(reason string) Verdict {
	return Verdict{
		IsOffensive: false,
		Type:        OffenseNone,
		Severity:    0,
		Rationale:   reason,
		Unanalyzed:  true,
	}
}

// Record pairs a comment with its verdict.
type Record struct {
	Comment Comment
	Verdict Verdict
}

// AnalysisResult is the ordered, append-only sequence of records
// accumulated over a run. Insertion order equals input order.
type AnalysisResult struct {
	Records []Record
}

// Len returns the number of records.
func (r *AnalysisResult) Len() int {
	return len(r.Records)
}

// Append adds records, rejecting duplicate comment ids. Past entries
// are never rewritten.
func (r *AnalysisResult) Append(recs ...Record) error {
	seen := make(map[int]struct{}, len(r.Records))
	for _, rec := range r.Records {
		seen[rec.Comment.ID] = struct{}{}
	}
	for _, rec := range recs {
		if _, dup := seen[rec.Comment.ID]; dup {
			return fmt.Errorf("duplicate comment id %d", rec.Comment.ID)
		}
		seen[rec.Comment.ID] = struct{}{}
		r.Records = append(r.Records, rec)
	}
	return nil
}

// PrefixOf reports whether the result's comment ids are a prefix of
// the given input, which is the condition for resuming a run from it.
func (r *AnalysisResult) PrefixOf(comments []Comment) bool {
	if len(r.Records) > len(comments) {
		return false
	}
	for i, rec := range r.Records {
		if rec.Comment.ID != comments[i].ID {
			return false
		}
	}
	return true
}

// RunPhase tracks where the orchestrator is inside a batch cycle.
type RunPhase string

const (
	PhasePending       RunPhase = "pending"
	PhasePrefiltering  RunPhase = "prefiltering"
	PhaseClassifying   RunPhase = "classifying"
	PhaseMerging       RunPhase = "merging"
	PhaseCheckpointing RunPhase = "checkpointing"
	PhaseDone          RunPhase = "done"
	PhaseAborted       RunPhase = "aborted"
)

// RunStats tracks the outcome of a single analysis run.
type RunStats struct {
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	TotalComments    int
	Analyzed         int // verdicts produced by the classifier
	Prefiltered      int // synthesized non-offensive verdicts
	Skipped          int // sentinel verdicts after operator decline
	Unprocessed      int // comments beyond the batch ceiling
	BatchesPlanned   int
	BatchesCompleted int
	TotalDuration    time.Duration
}

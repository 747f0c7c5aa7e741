// Package report renders plain-text summaries of result files: offense
// breakdowns, the most severe comments, and a comparison of two runs
// over the same input.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/modfall/toxiscan/internal/util"
	"github.com/modfall/toxiscan/pkg/models"
)

const separator = "--------------------------------------------------------------------------------"

// Options controls report generation.
type Options struct {
	// TopSevere is how many of the highest-severity comments to list.
	TopSevere int
	// FilterType restricts the severe listing to one offense type.
	// Empty means all types.
	FilterType models.OffenseType
}

// Generate writes a summary of the records: overall counts, the
// per-type breakdown, and the top severe comments.
func Generate(w io.Writer, recs []models.Record, opts Options) error {
	total := len(recs)
	offensive := 0
	unanalyzed := 0
	byType := make(map[models.OffenseType]int)

	for _, rec := range recs {
		if rec.Verdict.Unanalyzed {
			unanalyzed++
			continue
		}
		if rec.Verdict.IsOffensive {
			offensive++
			byType[rec.Verdict.Type]++
		}
	}

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Analysis Report")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Total comments:      %d\n", total)
	fmt.Fprintf(w, "Offensive:           %d (%.1f%%)\n", offensive, percent(offensive, total))
	fmt.Fprintf(w, "Non-offensive:       %d\n", total-offensive-unanalyzed)
	if unanalyzed > 0 {
		fmt.Fprintf(w, "Unanalyzed (skipped): %d\n", unanalyzed)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Offense breakdown:")
	for _, t := range models.AllOffenseTypes {
		if n, ok := byType[t]; ok {
			fmt.Fprintf(w, "  %-12s %d\n", t, n)
		}
	}

	if opts.TopSevere > 0 {
		writeTopSevere(w, recs, opts)
	}

	fmt.Fprintln(w, separator)
	return nil
}

func writeTopSevere(w io.Writer, recs []models.Record, opts Options) {
	severe := make([]models.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Verdict.Unanalyzed || !rec.Verdict.IsOffensive {
			continue
		}
		if opts.FilterType != "" && rec.Verdict.Type != opts.FilterType {
			continue
		}
		severe = append(severe, rec)
	}

	sort.SliceStable(severe, func(i, j int) bool {
		return severe[i].Verdict.Severity > severe[j].Verdict.Severity
	})
	if len(severe) > opts.TopSevere {
		severe = severe[:opts.TopSevere]
	}

	fmt.Fprintln(w)
	if opts.FilterType != "" {
		fmt.Fprintf(w, "Top %d severe (%s):\n", len(severe), opts.FilterType)
	} else {
		fmt.Fprintf(w, "Top %d severe:\n", len(severe))
	}
	for _, rec := range severe {
		fmt.Fprintf(w, "  [%.2f] %-12s #%d: %s\n",
			rec.Verdict.Severity,
			rec.Verdict.Type,
			rec.Comment.ID,
			util.TruncateString(strings.ReplaceAll(rec.Comment.Text, "\n", " "), 100))
	}
}

// Compare joins two result sets on comment id and reports how the
// current run's offensive/non-offensive calls line up against the
// original's, with standard binary-classification metrics. Sample rows
// of each disagreement class are listed when samples > 0.
func Compare(w io.Writer, current, original []models.Record, samples int) error {
	origByID := make(map[int]models.Record, len(original))
	for _, rec := range original {
		origByID[rec.Comment.ID] = rec
	}

	var tp, fp, fn, tn int
	var falsePos, falseNeg []models.Record
	matched := 0

	for _, rec := range current {
		orig, ok := origByID[rec.Comment.ID]
		if !ok || rec.Verdict.Unanalyzed || orig.Verdict.Unanalyzed {
			continue
		}
		matched++
		switch {
		case rec.Verdict.IsOffensive && orig.Verdict.IsOffensive:
			tp++
		case rec.Verdict.IsOffensive && !orig.Verdict.IsOffensive:
			fp++
			falsePos = append(falsePos, rec)
		case !rec.Verdict.IsOffensive && orig.Verdict.IsOffensive:
			fn++
			falseNeg = append(falseNeg, rec)
		default:
			tn++
		}
	}

	if matched == 0 {
		return fmt.Errorf("no comments in common between the two result sets")
	}

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Comparison Report")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Matched comments:  %d\n", matched)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Confusion matrix (current vs original):")
	fmt.Fprintf(w, "  true positive:   %d\n", tp)
	fmt.Fprintf(w, "  false positive:  %d\n", fp)
	fmt.Fprintf(w, "  false negative:  %d\n", fn)
	fmt.Fprintf(w, "  true negative:   %d\n", tn)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Accuracy:   %.3f\n", ratio(tp+tn, matched))
	fmt.Fprintf(w, "Precision:  %.3f\n", ratio(tp, tp+fp))
	fmt.Fprintf(w, "Recall:     %.3f\n", ratio(tp, tp+fn))

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	fmt.Fprintf(w, "F1:         %.3f\n", f1)

	if samples > 0 {
		writeSamples(w, "False positives (flagged now, not originally):", falsePos, samples)
		writeSamples(w, "False negatives (flagged originally, not now):", falseNeg, samples)
	}

	fmt.Fprintln(w, separator)
	return nil
}

func writeSamples(w io.Writer, title string, recs []models.Record, n int) {
	if len(recs) == 0 {
		return
	}
	if len(recs) > n {
		recs = recs[:n]
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for _, rec := range recs {
		fmt.Fprintf(w, "  #%d: %s\n",
			rec.Comment.ID,
			util.TruncateString(strings.ReplaceAll(rec.Comment.Text, "\n", " "), 100))
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

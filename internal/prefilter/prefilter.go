// Package prefilter implements the cheap local heuristic that decides
// whether a comment is worth sending to the remote classifier. It is a
// precision-losing optimization: a comment with no recognized profane
// token is skipped, which can miss offensive content the word list
// does not cover. When the heuristic cannot interpret the text at all
// it errs on the side of sending it.
package prefilter

import (
	"strings"
	"unicode"
)

// Filter decides whether comments need remote classification. It is
// pure and deterministic: no I/O, no state mutation after construction.
type Filter struct {
	enabled bool
	words   map[string]struct{}
}

// New builds a filter from the built-in word list plus extraWords.
// When enabled is false, ShouldQuery always returns true.
func New(enabled bool, extraWords []string) *Filter {
	words := make(map[string]struct{}, len(defaultWords)+len(extraWords))
	for _, w := range defaultWords {
		words[w] = struct{}{}
	}
	for _, w := range extraWords {
		if norm := normalizeToken(w); norm != "" {
			words[norm] = struct{}{}
		}
	}
	return &Filter{enabled: enabled, words: words}
}

// Enabled reports whether the filter is active.
func (f *Filter) Enabled() bool {
	return f.enabled
}

// ShouldQuery reports whether text should be sent to the classifier.
// It returns false only when the text tokenizes cleanly and none of
// the tokens matches the word list; text the tokenizer cannot break
// into words (emoji-only, non-letter noise) is sent rather than
// silently dropped.
func (f *Filter) ShouldQuery(text string) bool {
	if !f.enabled {
		return true
	}

	tokens := tokenize(text)
	if len(tokens) == 0 && strings.TrimSpace(text) != "" {
		// Nothing recognizable to judge: uncertain, so send it.
		return true
	}
	for _, tok := range tokens {
		if _, ok := f.words[tok]; ok {
			return true
		}
	}
	return false
}

// leet maps common character substitutions back to letters before
// word-list lookup ("sh1t", "f@ck").
var leet = map[rune]rune{
	'@': 'a',
	'4': 'a',
	'3': 'e',
	'1': 'i',
	'!': 'i',
	'0': 'o',
	'$': 's',
	'5': 's',
	'7': 't',
	'+': 't',
}

func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		if sub, ok := leet[r]; ok && current.Len() > 0 {
			// Substitutions only count inside a word; a leading "$5"
			// is just a price.
			current.WriteRune(sub)
			continue
		}
		if unicode.IsLetter(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func normalizeToken(w string) string {
	toks := tokenize(w)
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

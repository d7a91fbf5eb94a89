// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe detects near-duplicate papers before they enter the
// database. A candidate is compared against a bounded window of recently
// crawled records: first by normalized title edit distance, then by
// Jaccard similarity over word shingles of sampled text.
package dedupe

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/paper-collector/pkg/types"
)

const (
	// minTextLen is the floor below which texts are too short to compare.
	minTextLen = 100

	// sampleLen is how many characters to take from each end of a long text.
	sampleLen = 10000

	// shingleWords is the number of consecutive words per shingle.
	shingleWords = 5
)

// Record is a previously stored paper to compare against.
type Record struct {
	ID    string
	Title string
	Text  string
}

// Result describes the outcome of a duplicate check.
type Result struct {
	IsDuplicate       bool
	MatchedID         string
	TitleSimilarity   float64
	ContentSimilarity float64
}

// Detector applies the configured thresholds to candidate papers.
type Detector struct {
	cfg types.DedupeConfig
}

// New returns a Detector for the given configuration.
func New(cfg types.DedupeConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Check compares a candidate paper against recent records. Title matches
// above the title threshold short-circuit without a content comparison.
// Texts under minTextLen characters on either side are never duplicates.
func (d *Detector) Check(title, text string, recent []Record) Result {
	if !d.cfg.Enabled {
		return Result{}
	}
	if len(text) < minTextLen {
		return Result{}
	}

	haveTitle := strings.TrimSpace(title) != ""
	for _, rec := range recent {
		var titleSim float64
		// Blank titles (common for web papers) never title-match.
		if haveTitle && strings.TrimSpace(rec.Title) != "" {
			titleSim = TitleSimilarity(title, rec.Title)
			if titleSim > d.cfg.TitleThreshold {
				return Result{IsDuplicate: true, MatchedID: rec.ID, TitleSimilarity: titleSim}
			}
		}

		if len(rec.Text) < minTextLen {
			continue
		}
		contentSim := ContentSimilarity(text, rec.Text)
		if contentSim > d.cfg.ContentThreshold {
			return Result{
				IsDuplicate:       true,
				MatchedID:         rec.ID,
				TitleSimilarity:   titleSim,
				ContentSimilarity: contentSim,
			}
		}
	}
	return Result{}
}

// TitleSimilarity returns 1 minus the normalized edit distance between
// the lowercased, trimmed titles. Identical titles score 1.0.
func TitleSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1.0
	}

	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// ContentSimilarity returns the Jaccard similarity between the shingle
// sets of the two texts. Sampling keeps the comparison bounded: texts
// over twice sampleLen contribute only their first and last sampleLen
// characters.
func ContentSimilarity(a, b string) float64 {
	sa := shingles(sample(a))
	sb := shingles(sample(b))
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}

	intersection := 0
	for s := range sa {
		if _, ok := sb[s]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// sample returns the text unchanged when it fits in two samples, or the
// concatenated head and tail otherwise. Cut points back off to rune
// boundaries so multi-byte characters are never split.
func sample(text string) string {
	if len(text) <= 2*sampleLen {
		return text
	}
	head := sampleLen
	for head > 0 && !utf8.RuneStart(text[head]) {
		head--
	}
	tail := len(text) - sampleLen
	for tail > head && !utf8.RuneStart(text[tail]) {
		tail--
	}
	return text[:head] + text[tail:]
}

// shingles builds the set of overlapping shingleWords-word sequences.
func shingles(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{})
	for i := 0; i+shingleWords <= len(words); i++ {
		set[strings.Join(words[i:i+shingleWords], " ")] = struct{}{}
	}
	return set
}

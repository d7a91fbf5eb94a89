// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/paper-collector/pkg/types"
)

func testConfig() types.DedupeConfig {
	return types.DedupeConfig{
		Enabled:          true,
		TitleThreshold:   0.9,
		ContentThreshold: 0.8,
		RecentWindow:     100,
	}
}

// longText builds a text over the minimum comparison length with a
// distinguishable word stream.
func longText(seed string) string {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString(seed)
		b.WriteString(" word")
		b.WriteString(strings.Repeat("x", i%5))
		b.WriteString(" ")
	}
	return b.String()
}

func TestCheckDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	d := New(cfg)

	res := d.Check("Same Title", longText("alpha"), []Record{
		{ID: "2104.08653", Title: "Same Title", Text: longText("alpha")},
	})
	assert.False(t, res.IsDuplicate)
}

func TestCheckShortTextNeverDuplicate(t *testing.T) {
	d := New(testConfig())

	res := d.Check("Same Title", "too short", []Record{
		{ID: "2104.08653", Title: "Same Title", Text: longText("alpha")},
	})
	assert.False(t, res.IsDuplicate)
}

func TestCheckTitleMatchShortCircuits(t *testing.T) {
	d := New(testConfig())

	res := d.Check("Deep Learning for X", longText("completely different content"), []Record{
		{ID: "2104.08653", Title: "Deep Learning for X ", Text: longText("other")},
	})
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, "2104.08653", res.MatchedID)
	assert.Greater(t, res.TitleSimilarity, 0.9)
	// Content similarity is never computed on a title match.
	assert.Zero(t, res.ContentSimilarity)
}

func TestCheckContentMatch(t *testing.T) {
	d := New(testConfig())
	shared := longText("shared body of the paper")

	res := d.Check("A Fresh Title", shared, []Record{
		{ID: "2105.01234", Title: "An Entirely Different Title", Text: shared},
	})
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, "2105.01234", res.MatchedID)
	assert.Greater(t, res.ContentSimilarity, 0.8)
}

func TestCheckSkipsShortStoredText(t *testing.T) {
	d := New(testConfig())

	res := d.Check("A Fresh Title", longText("alpha"), []Record{
		{ID: "2105.01234", Title: "Another Title", Text: "tiny"},
	})
	assert.False(t, res.IsDuplicate)
}

func TestCheckBlankTitlesNeverTitleMatch(t *testing.T) {
	d := New(testConfig())

	// Two distinct web papers without titles must not collapse into one.
	res := d.Check("", longText("alpha"), []Record{
		{ID: "c0ffee", Title: "", Text: longText("beta")},
	})
	assert.False(t, res.IsDuplicate)
}

func TestCheckNoRecent(t *testing.T) {
	d := New(testConfig())
	res := d.Check("A Fresh Title", longText("alpha"), nil)
	assert.False(t, res.IsDuplicate)
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Deep Learning for X", "Deep Learning for X", 1.0, 1.0},
		{"case and whitespace", "  Deep Learning for X ", "deep learning for x", 1.0, 1.0},
		{"one char off", "Deep Learning for X", "Deep Learning for Y", 0.9, 1.0},
		{"unrelated", "Deep Learning for X", "Quantum Error Correction", 0.0, 0.5},
		{"both empty", "", "", 1.0, 1.0},
		{"one empty", "Deep Learning", "", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestContentSimilaritySymmetric(t *testing.T) {
	a := longText("first paper about transformers")
	b := longText("second paper about transformers")
	assert.InDelta(t, ContentSimilarity(a, b), ContentSimilarity(b, a), 1e-9)
}

func TestContentSimilarityIdentical(t *testing.T) {
	text := longText("the same text")
	assert.InDelta(t, 1.0, ContentSimilarity(text, text), 1e-9)
}

func TestContentSimilarityTooFewWords(t *testing.T) {
	// Fewer than five words yields no shingles and zero similarity.
	assert.Zero(t, ContentSimilarity("one two three", "one two three"))
}

func TestSampleLongText(t *testing.T) {
	text := strings.Repeat("a", 50000)
	got := sample(text)
	assert.Len(t, got, 2*sampleLen)

	short := strings.Repeat("b", 1000)
	assert.Equal(t, short, sample(short))
}

func TestSampleKeepsRunesIntact(t *testing.T) {
	// A leading ASCII byte shifts the two-byte runes so a naive cut at
	// sampleLen would land mid-character.
	text := "a" + strings.Repeat("é", 3*sampleLen)
	got := sample(text)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 2*sampleLen+utf8.UTFMax)
}

package iob

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTexts(t *testing.T) {
	doc := Document{
		Text:  "Anna bor i Aarhus, og Peter bor i Odense",
		Spans: []Span{{22, 27, "PER"}, {11, 17, "LOC"}, {0, 4, "PER"}, {34, 40, "LOC"}},
	}
	texts, err := ExtractTexts(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"PER": {"Peter", "Anna"},
		"LOC": {"Aarhus", "Odense"},
	}, texts)
}

func TestExtractWithOffsets(t *testing.T) {
	doc := Document{
		Text:  "Søren bor i Århus",
		Spans: []Span{{12, 17, "LOC"}, {0, 5, "PER"}},
	}
	entities, err := ExtractWithOffsets(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string][]Entity{
		"LOC": {{Start: 12, End: 17, Text: "Århus"}},
		"PER": {{Start: 0, End: 5, Text: "Søren"}},
	}, entities)
}

func TestExtract_ZeroLengthSpan(t *testing.T) {
	doc := Document{Text: "0123456789", Spans: []Span{{5, 5, "X"}}}
	entities, err := ExtractWithOffsets(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string][]Entity{"X": {{Start: 5, End: 5, Text: ""}}}, entities)

	texts, err := ExtractTexts(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"X": {""}}, texts)
}

func TestExtract_Idempotent(t *testing.T) {
	doc := Document{
		Text:  "Anna bor i Aarhus",
		Spans: []Span{{0, 4, "PER"}, {11, 17, "LOC"}, {11, 13, "LOC"}},
	}
	spansBefore := append([]Span(nil), doc.Spans...)
	first, err := ExtractWithOffsets(doc)
	require.NoError(t, err)
	second, err := ExtractWithOffsets(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, spansBefore, doc.Spans)
}

func TestExtract_NoSpans(t *testing.T) {
	texts, err := ExtractTexts(Document{Text: "nothing here"})
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		spans  []Span
		reason string
	}{
		{name: "negative start", spans: []Span{{-1, 2, "X"}}, reason: "negative start"},
		{name: "end beyond text", spans: []Span{{0, 4, "X"}, {2, 6, "Y"}}, reason: "end beyond text"},
		{name: "start after end", spans: []Span{{3, 2, "X"}}, reason: "start after end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{Text: "Åbne", Spans: tt.spans}
			err := doc.Validate()
			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.reason, validationErr.Reason)
			assert.Equal(t, 4, validationErr.TextLength)

			_, err = ExtractTexts(doc)
			assert.Error(t, err)
		})
	}

	// Offsets are runes: "Åbne" has 4 runes but 5 bytes.
	doc := Document{Text: "Åbne", Spans: []Span{{0, 4, "X"}, {4, 4, "Y"}}}
	assert.NoError(t, doc.Validate())
}

func TestLabels(t *testing.T) {
	doc := Document{Spans: []Span{{0, 1, "PER"}, {1, 2, "LOC"}, {2, 3, "PER"}}}
	assert.Equal(t, []string{"PER", "LOC"}, doc.Labels())
}

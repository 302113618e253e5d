package iob

import (
	"testing"

	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annaDocument() Document {
	return Document{
		ID:    "1",
		Text:  "Anna bor i Aarhus",
		Spans: []Span{{0, 4, "PER"}, {11, 17, "LOC"}},
	}
}

func annaSegmenter() fixedSegmenter {
	return fixedSegmenter{{Words: []api.Word{
		{Offset: 0, Text: "Anna"}, {Offset: 5, Text: "bor"}, {Offset: 9, Text: "i"}, {Offset: 11, Text: "Aarhus"},
	}}}
}

func TestConvert(t *testing.T) {
	pieces, err := Convert(annaDocument(), annaSegmenter(), mapSplitter{"Aarhus": {"Aa", "##rhus"}})
	require.NoError(t, err)
	assert.Equal(t, []TaggedPiece{
		{Piece: "Anna", Tag: "I-PER"},
		{Piece: "bor", Tag: "O"},
		{Piece: "i", Tag: "O"},
		{Piece: "Aa", Tag: "B-LOC"},
		{Piece: "##rhus", Tag: "I-LOC"},
	}, pieces)
}

func TestConverter_Result(t *testing.T) {
	converter := NewConverter(annaSegmenter(), mapSplitter{"Aarhus": {"Aa", "##rhus"}})
	result, err := converter.Convert(annaDocument())
	require.NoError(t, err)
	assert.Equal(t, []string{"PER", "", "", "LOC", "LOC"}, result.RawLabels)
	assert.Equal(t, []string{"I-PER", "O", "O", "B-LOC", "I-LOC"}, result.Tags)
	require.Len(t, result.Tokens, 5)
	assert.Equal(t, api.Token{Start: 13, End: 17, Piece: "##rhus"}, result.Tokens[4])

	result, err = converter.WithScheme(SchemeIOB2).Convert(annaDocument())
	require.NoError(t, err)
	assert.Equal(t, []string{"B-PER", "O", "O", "B-LOC", "I-LOC"}, result.Tags)
}

func TestConverter_OverlappingSpans(t *testing.T) {
	doc := Document{Text: "abcdef", Spans: []Span{{0, 5, "A"}, {2, 5, "B"}}}
	result, err := NewConverter(fieldsSegmenter{}, chunkSplitter{size: 1}).Convert(doc)
	require.NoError(t, err)
	// Token starting at 3 gets the later span's label.
	assert.Equal(t, "B", result.RawLabels[3])
	assert.Equal(t, []string{"A", "A", "B", "B", "B", ""}, result.RawLabels)
	assert.Equal(t, []string{"B-A", "I-A", "B-B", "I-B", "I-B", "O"}, result.Tags)
}

func TestConverter_ValidationError(t *testing.T) {
	doc := Document{ID: "bad", Text: "Anna", Spans: []Span{{0, 10, "PER"}}}
	_, err := NewConverter(fieldsSegmenter{}, mapSplitter{}).Convert(doc)
	require.Error(t, err)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "got %v", err)
	assert.Equal(t, 0, validationErr.Index)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestConverter_MissingCollaborators(t *testing.T) {
	_, err := (&Converter{}).Convert(annaDocument())
	assert.Error(t, err)
}

func TestConverter_DoesNotModifyDocument(t *testing.T) {
	doc := annaDocument()
	spans := append([]Span(nil), doc.Spans...)
	_, err := NewConverter(annaSegmenter(), mapSplitter{}).Convert(doc)
	require.NoError(t, err)
	assert.Equal(t, spans, doc.Spans)
}

func TestConverter_EmptyText(t *testing.T) {
	result, err := NewConverter(fieldsSegmenter{}, mapSplitter{}).Convert(Document{})
	require.NoError(t, err)
	assert.Empty(t, result.Tokens)
	assert.Empty(t, result.Tags)
	assert.Empty(t, result.Pieces())
}

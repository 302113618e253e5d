package iob

import (
	"testing"

	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentLength(t *testing.T) {
	assert.Equal(t, 2, ContentLength("Aa", "##"))
	assert.Equal(t, 4, ContentLength("##rhus", "##"))
	assert.Equal(t, 1, ContentLength("##Å", "##"))
	assert.Equal(t, 6, ContentLength("##rhus", ""))
	assert.Equal(t, 0, ContentLength("##", "##"))
}

func TestProject(t *testing.T) {
	tokens := Project(11, []string{"Aa", "##rhus"}, "##")
	assert.Equal(t, []api.Token{
		{Start: 11, End: 13, Piece: "Aa"},
		{Start: 13, End: 17, Piece: "##rhus"},
	}, tokens)

	// Single piece is the general case with one element.
	assert.Equal(t, []api.Token{{Start: 0, End: 4, Piece: "Anna"}}, Project(0, []string{"Anna"}, "##"))

	// Three pieces: the running sum skips the markers.
	assert.Equal(t, []api.Token{
		{Start: 3, End: 5, Piece: "un"},
		{Start: 5, End: 9, Piece: "##brea"},
		{Start: 9, End: 14, Piece: "##kable"},
	}, Project(3, []string{"un", "##brea", "##kable"}, "##"))

	assert.Empty(t, Project(7, nil, "##"))
}

func TestProjectDocument_Order(t *testing.T) {
	text := "Anna bor i Aarhus"
	segmenter := fixedSegmenter{{Words: []api.Word{
		{Offset: 0, Text: "Anna"}, {Offset: 5, Text: "bor"}, {Offset: 9, Text: "i"}, {Offset: 11, Text: "Aarhus"},
	}}}
	splitter := mapSplitter{"Aarhus": {"Aa", "##rhus"}}
	tokens := ProjectDocument(text, segmenter, splitter)
	assert.Equal(t, []api.Token{
		{Start: 0, End: 4, Piece: "Anna"},
		{Start: 5, End: 8, Piece: "bor"},
		{Start: 9, End: 10, Piece: "i"},
		{Start: 11, End: 13, Piece: "Aa"},
		{Start: 13, End: 17, Piece: "##rhus"},
	}, tokens)
}

// TestProjectDocument_OffsetRoundTrip checks that every token's span in the text is the piece content,
// and that token starts are strictly increasing.
func TestProjectDocument_OffsetRoundTrip(t *testing.T) {
	texts := []string{
		"Anna bor i Aarhus",
		"Søren Kierkegaard blev født i København|Han døde i 1855",
		"  leading and   multiple spaces  ",
		"日本語のテキスト と emoji 🙂🙂🙂",
	}
	for _, size := range []int{1, 2, 3, 100} {
		for _, text := range texts {
			tokens := ProjectDocument(text, fieldsSegmenter{}, chunkSplitter{size: size})
			require.NotEmpty(t, tokens)
			for i, token := range tokens {
				assert.Equal(t, content(token.Piece), runeSlice(text, token.Start, token.End),
					"text=%q size=%d token #%d=%+v", text, size, i, token)
				if i > 0 {
					assert.Less(t, tokens[i-1].Start, token.Start)
					assert.LessOrEqual(t, tokens[i-1].End, token.Start)
				}
			}
		}
	}
}

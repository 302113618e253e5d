package iob

import (
	"strings"
	"unicode/utf8"

	"github.com/gomlx/go-nerprep/tokenizers/api"
)

// ContentLength returns the number of runes of the original text a piece covers: a piece carrying
// the continuation marker covers its length minus the marker.
func ContentLength(piece, marker string) int {
	n := utf8.RuneCountInString(piece)
	if marker != "" && strings.HasPrefix(piece, marker) {
		n -= utf8.RuneCountInString(marker)
	}
	return n
}

// Project assigns to each piece of a word its span in the document. The first piece starts at
// wordOffset, and each following piece starts where the content of the previous one ends.
func Project(wordOffset int, pieces []string, marker string) []api.Token {
	return appendProjected(make([]api.Token, 0, len(pieces)), wordOffset, pieces, marker)
}

func appendProjected(tokens []api.Token, wordOffset int, pieces []string, marker string) []api.Token {
	start := wordOffset
	for _, piece := range pieces {
		end := start + ContentLength(piece, marker)
		tokens = append(tokens, api.Token{Start: start, End: end, Piece: piece})
		start = end
	}
	return tokens
}

// ProjectDocument segments text, splits every word and projects its pieces. Tokens are returned
// in reading order: sentence, word, then piece order. Whitespace between words produces no tokens.
func ProjectDocument(text string, segmenter api.WordSegmenter, splitter api.SubwordSplitter) []api.Token {
	marker := splitter.ContinuationMarker()
	var tokens []api.Token
	for _, sentence := range segmenter.Segment(text) {
		for _, word := range sentence.Words {
			tokens = appendProjected(tokens, word.Offset, splitter.Split(word.Text), marker)
		}
	}
	return tokens
}

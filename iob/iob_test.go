package iob

import (
	"strings"

	"github.com/gomlx/go-nerprep/tokenizers/api"
)

// Test collaborators shared by the tests of the package.

// fixedSegmenter returns pre-defined sentences, whatever the text.
type fixedSegmenter []api.Sentence

func (s fixedSegmenter) Segment(string) []api.Sentence { return s }

// fieldsSegmenter splits on spaces, one sentence per '|'-separated chunk; the '|' itself is
// treated as a space.
type fieldsSegmenter struct{}

func (fieldsSegmenter) Segment(text string) []api.Sentence {
	var sentences []api.Sentence
	var words []api.Word
	start := -1
	var current strings.Builder
	offset := 0
	flush := func() {
		if start >= 0 {
			words = append(words, api.Word{Offset: start, Text: current.String()})
			current.Reset()
			start = -1
		}
	}
	for _, r := range text {
		switch r {
		case ' ':
			flush()
		case '|':
			flush()
			if len(words) > 0 {
				sentences = append(sentences, api.Sentence{Words: words})
				words = nil
			}
		default:
			if start < 0 {
				start = offset
			}
			current.WriteRune(r)
		}
		offset++
	}
	flush()
	if len(words) > 0 {
		sentences = append(sentences, api.Sentence{Words: words})
	}
	return sentences
}

// mapSplitter splits words found in its map, and leaves other words whole.
type mapSplitter map[string][]string

func (s mapSplitter) Split(word string) []string {
	if pieces, ok := s[word]; ok {
		return pieces
	}
	return []string{word}
}

func (s mapSplitter) ContinuationMarker() string { return "##" }

// chunkSplitter splits words into chunks of at most size runes, marking continuation chunks with "##".
type chunkSplitter struct{ size int }

func (s chunkSplitter) Split(word string) []string {
	runes := []rune(word)
	var pieces []string
	for start := 0; start < len(runes); start += s.size {
		end := min(start+s.size, len(runes))
		piece := string(runes[start:end])
		if start > 0 {
			piece = "##" + piece
		}
		pieces = append(pieces, piece)
	}
	return pieces
}

func (s chunkSplitter) ContinuationMarker() string { return "##" }

// content of a piece, without the continuation marker.
func content(piece string) string {
	return strings.TrimPrefix(piece, "##")
}

func runeSlice(text string, start, end int) string {
	runes := []rune(text)
	if start < 0 || end > len(runes) || start > end {
		return "<out of range>"
	}
	return string(runes[start:end])
}

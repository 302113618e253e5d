// Package segmenter implements api.WordSegmenter: it splits raw text into sentences and words,
// reporting the rune offset of each word.
package segmenter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/rivo/uniseg"
)

// Kinds of segmenters.
const (
	KindUnicode    = "unicode"
	KindWhitespace = "whitespace"
)

// Unicode segments text following the Unicode text segmentation rules (UAX #29): sentence
// boundaries, and word boundaries within each sentence. Punctuation becomes words of its own;
// whitespace is dropped.
//
// It has no state, and is safe for concurrent use.
type Unicode struct{}

// Compile time assert that Unicode implements api.WordSegmenter interface.
var _ api.WordSegmenter = Unicode{}

// Segment implements api.WordSegmenter.
func (Unicode) Segment(text string) []api.Sentence {
	var sentences []api.Sentence
	offset := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var sentence string
		sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
		if words := sentenceWords(sentence, offset); len(words) > 0 {
			sentences = append(sentences, api.Sentence{Words: words})
		}
		offset += utf8.RuneCountInString(sentence)
	}
	return sentences
}

// sentenceWords splits a sentence starting at rune offset base into its words.
func sentenceWords(sentence string, base int) []api.Word {
	var words []api.Word
	offset := base
	state := -1
	rest := sentence
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if !isBlank(word) {
			words = append(words, api.Word{Offset: offset, Text: word})
		}
		offset += utf8.RuneCountInString(word)
	}
	return words
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// Whitespace segments text into a single sentence of whitespace-separated words. It's meant for
// pre-tokenized text.
type Whitespace struct{}

// Compile time assert that Whitespace implements api.WordSegmenter interface.
var _ api.WordSegmenter = Whitespace{}

// Segment implements api.WordSegmenter.
func (Whitespace) Segment(text string) []api.Sentence {
	var words []api.Word
	start := -1
	offset := 0
	var current strings.Builder
	for _, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, api.Word{Offset: start, Text: current.String()})
				current.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = offset
			}
			current.WriteRune(r)
		}
		offset++
	}
	if start >= 0 {
		words = append(words, api.Word{Offset: start, Text: current.String()})
	}
	if len(words) == 0 {
		return nil
	}
	return []api.Sentence{{Words: words}}
}

// New returns the segmenter of the given kind. An empty kind defaults to KindUnicode.
func New(kind string) (api.WordSegmenter, bool) {
	switch kind {
	case "", KindUnicode:
		return Unicode{}, true
	case KindWhitespace:
		return Whitespace{}, true
	default:
		return nil, false
	}
}

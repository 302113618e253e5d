// Package iob aligns character-span annotations with subword tokens, and tags the tokens in the
// begin/inside/outside (IOB) scheme, producing token-classification training data.
//
// The pipeline, for one Document:
//
//  1. A api.WordSegmenter splits the text into sentences and words, each with its rune offset.
//  2. A api.SubwordSplitter splits each word into pieces; Project assigns each piece its span.
//  3. Distribute assigns each token the label of the span containing its start.
//  4. Tag converts the per-token labels into IOB tags.
//
// Converter runs all steps. Every function is pure: inputs are never modified, and documents
// can be converted in parallel as long as each goroutine owns its splitter.
//
// Offsets are rune (Unicode code point) offsets everywhere. The annotation tool and the segmenter
// must use the same unit: a mismatch (e.g. byte or UTF-16 offsets) is not detected, and silently
// misaligns labels.
package iob

import (
	"fmt"
	"unicode/utf8"
)

// Span is a labeled half-open rune interval [Start, End) over a document's text.
type Span struct {
	Start int
	End   int
	Label string
}

// Document is a text with its entity spans. Spans need not be sorted, and may overlap.
type Document struct {
	ID    string
	Text  string
	Spans []Span
}

// ValidationError reports a span whose offsets don't fit the document text.
type ValidationError struct {
	// Index of the span in Document.Spans.
	Index int
	Span  Span
	// TextLength is the number of runes in the text.
	TextLength int
	Reason     string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid span #%d [%d, %d, %q] for text of length %d: %s",
		e.Index, e.Span.Start, e.Span.End, e.Span.Label, e.TextLength, e.Reason)
}

// Validate checks that every span satisfies 0 <= Start <= End <= len(text) (in runes).
// Zero-length spans are valid. It returns a *ValidationError for the first offending span.
func (d *Document) Validate() error {
	n := utf8.RuneCountInString(d.Text)
	for i, span := range d.Spans {
		var reason string
		switch {
		case span.Start < 0:
			reason = "negative start"
		case span.End > n:
			reason = "end beyond text"
		case span.Start > span.End:
			reason = "start after end"
		default:
			continue
		}
		return &ValidationError{Index: i, Span: span, TextLength: n, Reason: reason}
	}
	return nil
}

// Labels returns the distinct labels of the document's spans, in order of first appearance.
func (d *Document) Labels() []string {
	seen := make(map[string]bool, len(d.Spans))
	var labels []string
	for _, span := range d.Spans {
		if !seen[span.Label] {
			seen[span.Label] = true
			labels = append(labels, span.Label)
		}
	}
	return labels
}

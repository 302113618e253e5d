package iob

import (
	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/pkg/errors"
)

// TaggedPiece is a subword piece with its IOB tag.
type TaggedPiece struct {
	Piece string
	Tag   string
}

// Result holds the intermediate and final outputs of converting one Document. All slices are
// index-aligned.
type Result struct {
	Tokens    []api.Token
	RawLabels []string
	Tags      []string
}

// Pieces zips each token piece with its tag.
func (r *Result) Pieces() []TaggedPiece {
	pieces := make([]TaggedPiece, len(r.Tokens))
	for i, token := range r.Tokens {
		pieces[i] = TaggedPiece{Piece: token.Piece, Tag: r.Tags[i]}
	}
	return pieces
}

// Converter converts documents into tagged subword tokens.
//
// A Converter is safe for concurrent use only if its Segmenter and Splitter are.
type Converter struct {
	Segmenter api.WordSegmenter
	Splitter  api.SubwordSplitter
	Scheme    Scheme
}

// NewConverter creates a Converter using SchemeLegacy.
func NewConverter(segmenter api.WordSegmenter, splitter api.SubwordSplitter) *Converter {
	return &Converter{Segmenter: segmenter, Splitter: splitter}
}

// WithScheme sets the tagging scheme. It returns the Converter itself, so calls can be cascaded.
func (c *Converter) WithScheme(scheme Scheme) *Converter {
	c.Scheme = scheme
	return c
}

// Convert validates the document's spans, then projects, labels and tags its tokens.
// It returns a *ValidationError (wrapped) if a span doesn't fit the text.
func (c *Converter) Convert(doc Document) (*Result, error) {
	if c.Segmenter == nil || c.Splitter == nil {
		return nil, errors.New("converter requires a segmenter and a splitter")
	}
	if err := doc.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "document %q", doc.ID)
	}
	tokens := ProjectDocument(doc.Text, c.Segmenter, c.Splitter)
	raw := Distribute(doc.Spans, tokens)
	return &Result{
		Tokens:    tokens,
		RawLabels: raw,
		Tags:      c.Scheme.Apply(raw),
	}, nil
}

// Convert is a shortcut to convert one document with the default scheme, returning the pieces with
// their tags.
func Convert(doc Document, segmenter api.WordSegmenter, splitter api.SubwordSplitter) ([]TaggedPiece, error) {
	result, err := NewConverter(segmenter, splitter).Convert(doc)
	if err != nil {
		return nil, err
	}
	return result.Pieces(), nil
}

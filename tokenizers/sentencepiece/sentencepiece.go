// Package sentencepiece implements an api.SubwordSplitter based on SentencePiece tokenizer.
package sentencepiece

import (
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/go-nerprep/hub"
	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/pkg/errors"
)

// Metaspace is the SentencePiece replacement for spaces (U+2581, lower one eighth block).
const Metaspace = "▁"

// ModelFile is the SentencePiece Model proto file looked up in a HuggingFace Hub repository.
const ModelFile = "tokenizer.model"

// Download returns the local path of the repo's "tokenizer.model", downloading it if needed.
func Download(repo *hub.Repo) (string, error) {
	modelFile, err := repo.DownloadFile(ModelFile)
	if err != nil {
		return "", errors.WithMessagef(err, "can't download %s file", ModelFile)
	}
	return modelFile, nil
}

// New creates a SentencePiece splitter from config.File if set, otherwise from the "tokenizer.model"
// file of the repo, which must be a SentencePiece Model proto.
func New(config *api.Config, repo *hub.Repo) (*Splitter, error) {
	if config != nil && config.File != "" {
		return NewFromPath(config.File)
	}
	if repo == nil {
		return nil, errors.New("tokenizer config has no file and no hub repository")
	}
	modelFile, err := Download(repo)
	if err != nil {
		return nil, err
	}
	return NewFromPath(modelFile)
}

// NewFromPath creates a SentencePiece splitter from a local model file.
func NewFromPath(path string) (*Splitter, error) {
	proc, err := esentencepiece.NewProcessorFromPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", path)
	}
	return &Splitter{Processor: proc}, nil
}

// Splitter implements api.SubwordSplitter based on SentencePiece tokenizer by Google.
//
// SentencePiece marks word-initial pieces (with the metaspace) rather than continuation pieces:
// Split strips the metaspace, so pieces are plain text and ContinuationMarker is empty.
type Splitter struct {
	*esentencepiece.Processor
}

// Compile time assert that sentencepiece.Splitter implements api.SubwordSplitter interface.
var _ api.SubwordSplitter = &Splitter{}

// Split implements api.SubwordSplitter.
//
// Models that normalize text (e.g. NFKC) or fall back to byte pieces may produce pieces whose
// length differs from the original word, shifting the offsets of the pieces of the word.
func (p *Splitter) Split(word string) []string {
	tokens := p.Processor.Encode(word)
	pieces := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if piece := stripMetaspace(tok.Text); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

// ContinuationMarker implements api.SubwordSplitter: pieces returned by Split carry no marker.
func (p *Splitter) ContinuationMarker() string {
	return ""
}

// stripMetaspace removes the metaspace, which isn't part of the original text.
func stripMetaspace(piece string) string {
	return strings.ReplaceAll(piece, Metaspace, "")
}

// Package tokenizers creates the api.SubwordSplitter described by an api.Config, downloading its
// files from the HuggingFace Hub when needed.
package tokenizers

import (
	"github.com/gomlx/go-nerprep/hub"
	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/gomlx/go-nerprep/tokenizers/hftokenizer"
	"github.com/gomlx/go-nerprep/tokenizers/sentencepiece"
	"github.com/pkg/errors"
)

// ResolveFile returns the local path of the tokenizer file described by cfg: cfg.File if set,
// otherwise the file downloaded (or found in cache) from repo.
//
// Creating splitters from a config with File set to the returned path never contacts the Hub.
func ResolveFile(cfg *api.Config, repo *hub.Repo) (string, error) {
	if cfg.File != "" {
		return cfg.File, nil
	}
	if repo == nil {
		return "", errors.New("tokenizer config has no file and no hub repository")
	}
	switch cfg.Kind {
	case api.KindSentencePiece:
		return sentencepiece.Download(repo)
	case "", api.KindWordPiece:
		return hftokenizer.Download(repo)
	}
	return "", errors.Errorf("unknown tokenizer kind %q", cfg.Kind)
}

// NewSplitter creates the splitter described by cfg. A local cfg.File takes precedence over repo.
func NewSplitter(cfg *api.Config, repo *hub.Repo) (api.SubwordSplitter, error) {
	switch cfg.Kind {
	case api.KindSentencePiece:
		splitter, err := sentencepiece.New(cfg, repo)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating sentencepiece tokenizer")
		}
		return splitter, nil
	case "", api.KindWordPiece:
		splitter, err := hftokenizer.New(cfg, repo)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating wordpiece tokenizer")
		}
		return splitter, nil
	}
	return nil, errors.Errorf("unknown tokenizer kind %q", cfg.Kind)
}

package tokenizers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-nerprep/hub"
	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVocab = "[PAD]\n[UNK]\nanna\nbor\ni\naa\n##rhus\n"

// newTestRepo serves a repository with only a vocab.txt.
func newTestRepo(t *testing.T) *hub.Repo {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/org/bert/resolve/main/vocab.txt" {
			_, _ = w.Write([]byte(testVocab))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return hub.New("org/bert").WithEndpoint(server.URL).WithCacheDir(t.TempDir())
}

func TestNewSplitter_FallsBackToVocab(t *testing.T) {
	repo := newTestRepo(t)
	cfg := &api.Config{Kind: api.KindWordPiece, Lowercase: true}
	path, err := ResolveFile(cfg, repo)
	require.NoError(t, err)
	assert.Equal(t, "vocab.txt", filepath.Base(path))

	splitter, err := NewSplitter(cfg, repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "##rhus"}, splitter.Split("Aarhus"))
	assert.Equal(t, "##", splitter.ContinuationMarker())
}

func TestNewSplitter_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(testVocab), 0644))

	// The local file takes precedence: the repository is never contacted.
	repo := hub.New("org/unreachable").WithEndpoint("http://127.0.0.1:1").WithCacheDir(t.TempDir())
	splitter, err := NewSplitter(&api.Config{File: path, Lowercase: true}, repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"anna"}, splitter.Split("Anna"))
}

func TestNewSplitter_Errors(t *testing.T) {
	_, err := NewSplitter(&api.Config{Kind: api.KindWordPiece}, nil)
	assert.Error(t, err)

	_, err = NewSplitter(&api.Config{Kind: "bpe", File: "x"}, nil)
	assert.Error(t, err)

	// No tokenizer.model in the repository.
	_, err = NewSplitter(&api.Config{Kind: api.KindSentencePiece}, newTestRepo(t))
	assert.ErrorIs(t, err, hub.ErrNotFound)

	_, err = NewSplitter(&api.Config{File: filepath.Join(t.TempDir(), "missing.json")}, nil)
	assert.Error(t, err)

	_, err = ResolveFile(&api.Config{Kind: "bpe"}, newTestRepo(t))
	assert.Error(t, err)
}

// TestNewSplitter_ResolvedFile creates splitters from the file resolved once, the way parallel
// workers do.
func TestNewSplitter_ResolvedFile(t *testing.T) {
	cfg := api.Config{Kind: api.KindWordPiece, Lowercase: true}
	var err error
	cfg.File, err = ResolveFile(&cfg, newTestRepo(t))
	require.NoError(t, err)

	for range 2 {
		splitter, err := NewSplitter(&cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"aa", "##rhus"}, splitter.Split("Aarhus"))
	}
}

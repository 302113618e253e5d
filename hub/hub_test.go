package hub

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		switch req.URL.Path {
		case "/org/model/resolve/main/vocab.txt":
			_, _ = w.Write([]byte("[PAD]\n[UNK]\nhello\n"))
		case "/org/private/resolve/main/vocab.txt":
			if req.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte("ok"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDownloadFile(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	repo := New("org/model").WithEndpoint(server.URL).WithCacheDir(t.TempDir())

	localPath, err := repo.DownloadFile("vocab.txt")
	require.NoError(t, err)
	content, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, "[PAD]\n[UNK]\nhello\n", string(content))

	// Second call is served from the cache.
	localPath2, err := repo.DownloadFile("vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, localPath, localPath2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDownloadFile_NotFound(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	repo := New("org/model").WithEndpoint(server.URL).WithCacheDir(t.TempDir())

	_, err := repo.DownloadFile("tokenizer.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestDownloadFile_AuthToken(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)

	repo := New("org/private").WithEndpoint(server.URL).WithCacheDir(t.TempDir())
	_, err := repo.DownloadFile("vocab.txt")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	repo = New("org/private").WithEndpoint(server.URL).WithCacheDir(t.TempDir()).WithAuthToken("secret")
	_, err = repo.DownloadFile("vocab.txt")
	require.NoError(t, err)
}

func TestDownloadFile_HTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(5 * time.Second):
			_, _ = w.Write([]byte("too late"))
		}
	}))
	t.Cleanup(server.Close)

	repo := New("org/model").WithEndpoint(server.URL).WithCacheDir(t.TempDir()).
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := repo.DownloadFile("vocab.txt")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NoFileExists(t, filepath.Join(repo.CacheDir, "models--org--model", "main", "vocab.txt"))
}

func TestLocalPath(t *testing.T) {
	repo := New("org/model").WithCacheDir("/cache").WithRevision("v1")
	p, err := repo.localPath("vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, "/cache/models--org--model/v1/vocab.txt", p)

	_, err = repo.localPath("../etc/passwd")
	assert.Error(t, err)

	_, err = New("").localPath("vocab.txt")
	assert.Error(t, err)

	// The revision is part of the cache path too.
	for _, revision := range []string{"../../etc", "v1/../../x"} {
		_, err = New("org/model").WithCacheDir("/cache").WithRevision(revision).localPath("vocab.txt")
		assert.Error(t, err, "revision %q", revision)
	}
	noRevision := New("org/model").WithCacheDir("/cache")
	noRevision.Revision = ""
	_, err = noRevision.localPath("vocab.txt")
	assert.Error(t, err)
	p, err = New("org/model").WithCacheDir("/cache").WithRevision("refs/pr/1").localPath("vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, "/cache/models--org--model/refs/pr/1/vocab.txt", p)
}

func TestFileURL(t *testing.T) {
	repo := New("bert-base-multilingual-cased")
	assert.Equal(t, "https://huggingface.co/bert-base-multilingual-cased/resolve/main/vocab.txt", repo.FileURL("vocab.txt"))
}

// Package hub downloads tokenizer files from the HuggingFace Hub, keeping a local cache.
//
// Example:
//
//	repo := hub.New("bert-base-multilingual-cased").WithAuthToken(os.Getenv("HF_TOKEN"))
//	vocabPath, err := repo.DownloadFile("vocab.txt")
package hub

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultEndpoint is the HuggingFace Hub URL.
const DefaultEndpoint = "https://huggingface.co"

// DefaultRevision is used if no revision is configured.
const DefaultRevision = "main"

// DefaultDirCreationPerm is used when creating cache directories.
const DefaultDirCreationPerm = 0755

// ErrNotFound is returned (wrapped) when the requested file doesn't exist in the repository.
var ErrNotFound = errors.New("file not found in repository")

// Repo references a HuggingFace Hub repository, and caches its downloaded files locally.
//
// It's not safe for concurrent configuration, but DownloadFile can be called concurrently, also
// from different processes sharing the same cache directory.
type Repo struct {
	// ID of the repository, e.g. "google-bert/bert-base-cased".
	ID string

	// Revision (branch, tag or commit), defaults to DefaultRevision.
	Revision string

	// CacheDir where files are stored, defaults to DefaultCacheDir().
	CacheDir string

	// Endpoint of the hub, defaults to DefaultEndpoint.
	Endpoint string

	authToken string
	client    *http.Client
}

// New creates a reference to the HuggingFace Hub repository with the given id.
func New(id string) *Repo {
	return &Repo{
		ID:       id,
		Revision: DefaultRevision,
		CacheDir: DefaultCacheDir(),
		Endpoint: DefaultEndpoint,
		client:   http.DefaultClient,
	}
}

// DefaultCacheDir returns the directory used to cache downloaded files.
// It uses $HF_HOME/go-nerprep if HF_HOME is set, or the user cache directory otherwise.
func DefaultCacheDir() string {
	if hfHome := os.Getenv("HF_HOME"); hfHome != "" {
		return filepath.Join(hfHome, "go-nerprep")
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "huggingface", "go-nerprep")
}

// WithAuthToken sets the token used to access private or gated repositories.
// It returns the Repo itself, so calls can be cascaded.
func (r *Repo) WithAuthToken(token string) *Repo {
	r.authToken = token
	return r
}

// WithRevision sets the revision to download from. An empty revision resets it to DefaultRevision.
func (r *Repo) WithRevision(revision string) *Repo {
	if revision == "" {
		revision = DefaultRevision
	}
	r.Revision = revision
	return r
}

// WithCacheDir sets the local cache directory. An empty dir is ignored.
func (r *Repo) WithCacheDir(dir string) *Repo {
	if dir != "" {
		r.CacheDir = dir
	}
	return r
}

// WithEndpoint changes the hub endpoint, e.g. to use a mirror.
func (r *Repo) WithEndpoint(endpoint string) *Repo {
	r.Endpoint = strings.TrimRight(endpoint, "/")
	return r
}

// WithHTTPClient sets the client used for downloads.
func (r *Repo) WithHTTPClient(client *http.Client) *Repo {
	r.client = client
	return r
}

// FileURL returns the URL of fileName in the repository.
func (r *Repo) FileURL(fileName string) string {
	return r.Endpoint + "/" + r.ID + "/resolve/" + r.Revision + "/" + fileName
}

// localPath where fileName is cached.
func (r *Repo) localPath(fileName string) (string, error) {
	if r.ID == "" {
		return "", errors.New("hub repository id is empty")
	}
	if fileName == "" || strings.Contains(fileName, "..") {
		return "", errors.Errorf("invalid file name %q", fileName)
	}
	if r.Revision == "" || strings.Contains(r.Revision, "..") {
		return "", errors.Errorf("invalid revision %q", r.Revision)
	}
	repoDir := "models--" + strings.ReplaceAll(r.ID, "/", "--")
	return filepath.Join(r.CacheDir, repoDir, r.Revision, filepath.FromSlash(fileName)), nil
}

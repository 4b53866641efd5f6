package feed

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
)

// DirSource reads feed files from a local directory, e.g. a mirrored copy of
// the network's latest/ folder.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Fetch reads fileName from the directory. Missing or unreadable files are
// reported as domain.ErrNetwork so they are skipped like unreachable URLs.
func (d *DirSource) Fetch(ctx context.Context, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w: %w", fileName, domain.ErrNetwork, err)
	}
	if fileName != filepath.Base(fileName) {
		return "", fmt.Errorf("read %s: invalid file name: %w", fileName, domain.ErrNetwork)
	}
	data, err := os.ReadFile(filepath.Join(d.dir, fileName))
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %w", fileName, domain.ErrNetwork, err)
	}
	return string(data), nil
}

// NewSource picks a source for a base location: a file:// URL or a plain
// path reads from disk, anything else is fetched over HTTP by client.
func NewSource(base string, client func(baseURL string) *Client) Source {
	if u, err := url.Parse(base); err == nil && u.Scheme == "file" {
		return NewDirSource(u.Path)
	}
	if !strings.Contains(base, "://") {
		return NewDirSource(base)
	}
	return client(base)
}

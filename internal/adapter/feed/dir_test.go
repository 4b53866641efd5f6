package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cayey_t60min.dat"), []byte(testFeed), 0o600))
	src := NewDirSource(dir)

	text, err := src.Fetch(context.Background(), "cayey_t60min.dat")
	require.NoError(t, err)
	assert.Equal(t, testFeed, text)

	_, err = src.Fetch(context.Background(), "ponce_t60min.dat")
	require.ErrorIs(t, err, domain.ErrNetwork)

	_, err = src.Fetch(context.Background(), "../cayey_t60min.dat")
	require.ErrorIs(t, err, domain.ErrNetwork)
}

func TestDirSource_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirSource(t.TempDir()).Fetch(ctx, "cayey_t60min.dat")
	require.ErrorIs(t, err, domain.ErrNetwork)
}

func TestNewSource(t *testing.T) {
	client := func(base string) *Client { return NewClient(base, time.Second, 0, discardLogger()) }

	assert.IsType(t, &DirSource{}, NewSource("file:///srv/latest", client))
	assert.IsType(t, &DirSource{}, NewSource("./testdata", client))
	assert.IsType(t, &Client{}, NewSource("http://example.org/latest/", client))
}

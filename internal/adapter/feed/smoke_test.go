//go:build live

package feed

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit a real station feed server.
// Run with: FEED_BASE_URL=... go test -tags=live ./internal/adapter/feed/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	base := os.Getenv("FEED_BASE_URL")
	if base == "" {
		t.Fatal("FEED_BASE_URL must be set to run smoke tests")
	}
	return NewClient(base, 30*time.Second, 1, discardLogger())
}

func TestSmoke_FetchHourlyTable(t *testing.T) {
	c := smokeClient(t)

	text, err := c.Fetch(context.Background(), "adjuntas_t60min.dat")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[1], `"Rain_mm_Tot"`)
}

func TestSmoke_FetchFiveMinuteTable(t *testing.T) {
	c := smokeClient(t)

	text, err := c.Fetch(context.Background(), "adjuntas_t5minute.dat")
	require.NoError(t, err)
	assert.Contains(t, text, `"wc4`)
}

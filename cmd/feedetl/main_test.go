package main

import (
	"testing"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestFeedCacheTTL(t *testing.T) {
	tests := []struct {
		name     string
		ttl      time.Duration
		interval time.Duration
		want     time.Duration
	}{
		{"default refresh interval", 0, 5 * time.Minute, 150 * time.Second},
		{"configured ttl wins", time.Minute, 5 * time.Minute, time.Minute},
		{"single refresh never expires", 0, 0, 0},
		{"configured ttl without refresh", time.Minute, 0, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{FeedCacheTTL: tt.ttl, RefreshInterval: tt.interval}
			assert.Equal(t, tt.want, feedCacheTTL(cfg))
		})
	}
}

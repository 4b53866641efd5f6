package integration_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const feedPath = "/files/network/data/latest/"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// feedServer serves canned feed files and counts requests per file.
type feedServer struct {
	*httptest.Server
	BaseURL string

	mu       sync.Mutex
	files    map[string]string
	requests map[string]int
}

func newFeedServer(t *testing.T, files map[string]string) *feedServer {
	t.Helper()
	fs := &feedServer{files: files, requests: make(map[string]int)}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	fs.BaseURL = fs.URL + feedPath
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) serve(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutPrefix(r.URL.Path, feedPath)
	fs.mu.Lock()
	fs.requests[name]++
	text, found := fs.files[name]
	fs.mu.Unlock()

	if !ok || !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, text)
}

func (fs *feedServer) requestCount(name string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.requests[name]
}

const envLine = `"TOA5","Adjuntas","CR1000X","12345","CR1000X.Std.05.00","CPU:adjuntas.CR1X","1234","Table"`

func fiveMinuteFeed(wc string) string {
	return strings.Join([]string{
		envLine,
		`"TIMESTAMP","RECORD","wc4_20cm_Avg","wc4_40cm_Avg"`,
		`"TS","RN","m^3/m^3","m^3/m^3"`,
		`"","","Avg","Avg"`,
		`"2024-05-01 10:50:00",11,0.1990,0.300`,
		`"2024-05-01 10:55:00",12,` + wc + `,0.301`,
	}, "\r\n") + "\r\n"
}

func hourlyFeed(rains ...string) string {
	lines := []string{
		envLine,
		`"TIMESTAMP","RECORD","BattV_Min","Rain_mm_Tot"`,
		`"TS","RN","Volts","mm"`,
		`"","","Min","Tot"`,
	}
	for i, r := range rains {
		lines = append(lines, fmt.Sprintf(`"2024-05-01 %02d:00:00",%d,12.7,%s`, i, i, r))
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

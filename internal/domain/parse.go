package domain

import (
	"fmt"
	"strings"
)

// TimestampField holds the first column of the latest row.
const TimestampField = "TIMESTAMP"

const (
	headerLine   = 1
	minFeedLines = 2
)

// Feed is a parsed datalogger file.
type Feed struct {
	FileName  string
	StationID string
	Station   Station

	// Header is the column-name row, tokens trimmed but otherwise verbatim.
	Header []string
	// Lines holds every trimmed line of the file, header lines included.
	Lines []string
	// Fields maps each header (except the first) to its value in the latest
	// row, plus TIMESTAMP.
	Fields Fields
}

// Latest returns the tokens of the final line.
func (f Feed) Latest() []string {
	return splitRow(f.Lines[len(f.Lines)-1])
}

// ColumnIndex returns the position of the header equal to name, or -1.
func (f Feed) ColumnIndex(name string) int {
	for i, h := range f.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ColumnIndexWithPrefix returns the position of the first header starting
// with prefix, or -1.
func (f Feed) ColumnIndexWithPrefix(prefix string) int {
	for i, h := range f.Header {
		if strings.HasPrefix(h, prefix) {
			return i
		}
	}
	return -1
}

// ParseFeed extracts the header row and the latest value row of a feed file
// and resolves the owning station from the file name.
//
// Feeds with fewer than two lines, or whose latest row carries more values
// than there are headers, are rejected with ErrMalformedFeed. A latest row
// shorter than the header is accepted and the missing fields are empty.
func ParseFeed(raw, fileName string, lookup StationLookup) (Feed, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) < minFeedLines {
		return Feed{}, fmt.Errorf("%s: %d line(s): %w", fileName, len(lines), ErrMalformedFeed)
	}

	header := splitRow(lines[headerLine])
	values := splitRow(lines[len(lines)-1])
	if len(values) > len(header) {
		return Feed{}, fmt.Errorf("%s: %d values for %d headers: %w", fileName, len(values), len(header), ErrMalformedFeed)
	}

	id := StationIDFromFileName(fileName)
	station, ok := lookup.Lookup(id)
	if !ok {
		return Feed{}, fmt.Errorf("%s: station %q: %w", fileName, id, ErrUnknownStation)
	}

	var fields Fields
	for i := 1; i < len(header); i++ {
		fields.Set(header[i], valueAt(values, i))
	}
	fields.Set(TimestampField, valueAt(values, 0))

	return Feed{
		FileName:  fileName,
		StationID: id,
		Station:   station,
		Header:    header,
		Lines:     lines,
		Fields:    fields,
	}, nil
}

func splitRow(line string) []string {
	tokens := strings.Split(line, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return tokens
}

func valueAt(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return tokens[i]
}

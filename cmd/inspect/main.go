// Command inspect runs one full refresh against a feed location (a local
// directory or an HTTP base URL), prints the resulting station mapping, and
// checks it for integrity: every registered station present, every file
// accounted for, and derived metrics in their serialized formats.
//
// Usage:
//
//	go run ./cmd/inspect -feeds data/mock/latest
//	go run ./cmd/inspect -feeds https://example.org/files/network/data/latest/ -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/adapter/feed"
	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/couchcryptid/landslide-feed-etl/internal/observability"
	"github.com/couchcryptid/landslide-feed-etl/internal/pipeline"
	"github.com/couchcryptid/landslide-feed-etl/internal/registry"
)

var (
	rainfallFormat   = regexp.MustCompile(`^-?\d+\.\d{2}$`)
	saturationFormat = regexp.MustCompile(`^(\d+%|N/A)$`)
)

// cadences lists the passes in refresh order.
var cadences = []domain.Cadence{domain.Cadence5Minute, domain.Cadence60Min}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feeds := flag.String("feeds", "", "feed directory or HTTP base URL")
	registryPath := flag.String("registry", "", "station registry YAML (default: embedded)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall refresh timeout")
	asJSON := flag.Bool("json", false, "print the snapshot as JSON instead of a table")
	verbose := flag.Bool("v", false, "log per-file failures")
	flag.Parse()

	if *feeds == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*feeds, *registryPath, *timeout, *asJSON, *verbose))
}

func run(feeds, registryPath string, timeout time.Duration, asJSON, verbose bool) int {
	reg, err := registry.Default()
	if registryPath != "" {
		reg, err = registry.LoadFile(registryPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load registry: %v\n", err)
		return 1
	}

	logOut := io.Discard
	if verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	source := feed.NewSource(feeds, func(baseURL string) *feed.Client {
		return feed.NewClient(baseURL, 30*time.Second, 0, logger)
	})
	o := pipeline.New(source, reg, logger, observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results := make(map[domain.Cadence]pipeline.PassResult)
	for _, c := range cadences {
		results[c] = o.RunPass(ctx, c, reg.FileNames(c))
	}
	snap := o.Snapshot()

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap.Mapping()); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: encode snapshot: %v\n", err)
			return 1
		}
	} else {
		printTable(snap)
	}

	phases := []*phase{
		validateFiles(results, reg.Len()),
		validateStations(snap, reg),
		validateFormats(snap),
	}

	fmt.Fprintln(os.Stderr)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(os.Stderr, "  %-32s %s\n", p.name, status)
	}
	for _, p := range phases {
		for _, e := range p.errors {
			fmt.Fprintf(os.Stderr, "    %s: %s\n", p.name, e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func printTable(snap domain.Snapshot) {
	fmt.Printf("%-14s %-22s %-10s %-10s\n", "STATION", "TIMESTAMP", "RAIN_12H", "SATURATION")
	for _, st := range snap.Stations {
		ts, _ := st.Fields.Get(domain.TimestampField)
		rain, _ := st.Fields.Get(domain.RainfallField)
		sat, _ := st.Fields.Get(domain.SaturationField)
		if !st.Reporting() {
			ts, rain, sat = "-", "-", "-"
		}
		fmt.Printf("%-14s %-22s %-10s %-10s\n", st.ID, ts, rain, sat)
	}
}

// validateFiles checks that every expected file was attempted and reports
// the outcome counts per cadence.
func validateFiles(results map[domain.Cadence]pipeline.PassResult, stations int) *phase {
	p := &phase{name: "File outcomes"}
	for _, c := range cadences {
		res, ok := results[c]
		if !ok {
			p.errorf("%s: pass did not run", c)
			continue
		}
		if res.Files != stations {
			p.errorf("%s: %d files attempted, want %d", c, res.Files, stations)
		}
		total := 0
		for _, n := range res.Outcomes {
			total += n
		}
		if total != res.Files {
			p.errorf("%s: %d outcomes for %d files", c, total, res.Files)
		}
		for _, outcome := range []string{pipeline.OutcomeMalformed, pipeline.OutcomeUnknownStation, pipeline.OutcomeCanceled} {
			if n := res.Outcomes[outcome]; n > 0 {
				p.errorf("%s: %d files %s", c, n, outcome)
			}
		}
	}
	return p
}

// validateStations checks the mapping holds exactly the registered stations.
func validateStations(snap domain.Snapshot, reg *registry.Registry) *phase {
	p := &phase{name: "Station mapping"}
	mapping := snap.Mapping()
	if len(mapping) != reg.Len() {
		p.errorf("mapping has %d stations, registry has %d", len(mapping), reg.Len())
	}
	for _, id := range reg.IDs() {
		if _, ok := mapping[id]; !ok {
			p.errorf("station %s missing", id)
		}
	}
	if snap.Reporting() == 0 {
		p.errorf("no station reported")
	}
	return p
}

// validateFormats checks the serialized form of the derived metrics.
func validateFormats(snap domain.Snapshot) *phase {
	p := &phase{name: "Derived metric formats"}
	for _, st := range snap.Stations {
		if !st.Reporting() {
			continue
		}
		if v, ok := st.Fields.Get(domain.RainfallField); !ok || !rainfallFormat.MatchString(v) {
			p.errorf("%s: %s = %q", st.ID, domain.RainfallField, v)
		}
		if v, ok := st.Fields.Get(domain.SaturationField); !ok || !saturationFormat.MatchString(v) {
			p.errorf("%s: %s = %q", st.ID, domain.SaturationField, v)
		}
		if _, ok := st.Fields.Get(domain.TimestampField); !ok {
			p.errorf("%s: no %s", st.ID, domain.TimestampField)
		}
	}
	return p
}

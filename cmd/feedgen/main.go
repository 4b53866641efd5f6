// Command feedgen writes synthetic TOA5 feed files for every registered
// station, one per cadence, so the service can run against a local directory
// (FEED_BASE_URL=file:///path/to/dir). Each generated file is read back through
// the same parser and metrics engine the service uses, and the derived values
// are printed for updating test assertions.
//
// Usage:
//
//	go run ./cmd/feedgen -out data/mock/latest -rows 36 -seed 7
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/couchcryptid/landslide-feed-etl/internal/registry"
	"github.com/jonboulle/clockwork"
)

// sensorDepths are the water-content probe depths written to five-minute files.
var sensorDepths = []string{"10cm", "20cm", "50cm"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write the .dat files into")
	rows := flag.Int("rows", 36, "data rows per file")
	seed := flag.Uint64("seed", 1, "random seed")
	at := flag.String("at", "2024-05-01T12:00:00Z", "timestamp of the last row (RFC3339)")
	registryPath := flag.String("registry", "", "station registry YAML (default: embedded)")
	flag.Parse()

	if *out == "" || *rows < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flag -out or invalid -rows")
	}
	end, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("parse -at: %w", err)
	}

	reg, err := registry.Default()
	if *registryPath != "" {
		reg, err = registry.LoadFile(*registryPath)
	}
	if err != nil {
		return err
	}

	// Fix the clock so fixture timestamps are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(end))
	defer domain.SetClock(nil)

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	for _, st := range reg.Stations() {
		for _, c := range []domain.Cadence{domain.Cadence5Minute, domain.Cadence60Min} {
			var b strings.Builder
			writeFeed(&b, st, c, *rows, rng)

			name := st.FileName(c)
			if err := os.WriteFile(filepath.Join(*out, name), []byte(b.String()), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}

			feed, err := domain.ParseFeed(b.String(), name, reg)
			if err != nil {
				return fmt.Errorf("generated %s does not parse: %w", name, err)
			}
			m := domain.Derive(feed).Metrics
			fmt.Printf("%-28s rain=%-7s saturation=%s\n", name, domain.FormatRainfall(m.Rainfall), domain.FormatSaturation(m.Saturation))
		}
	}

	log.Printf("wrote %d files to %s", 2*reg.Len(), *out)
	return nil
}

func cadenceStep(c domain.Cadence) time.Duration {
	if c == domain.Cadence60Min {
		return time.Hour
	}
	return 5 * time.Minute
}

// writeFeed renders a TOA5 file: environment line, field names, units,
// processing line, then rows ending at the package clock's current time.
func writeFeed(w io.Writer, st domain.Station, c domain.Cadence, rows int, rng *rand.Rand) {
	table := "Table" + string(c)
	fmt.Fprintf(w, "\"TOA5\",%q,\"CR1000X\",\"%d\",\"CR1000X.Std.05.00\",\"CPU:%s.CR1X\",\"%d\",%q\r\n",
		st.DisplayName, 10000+rng.IntN(90000), st.ID, 1000+rng.IntN(9000), table)

	names := []string{"TIMESTAMP", "RECORD", "BattV_Min"}
	units := []string{"TS", "RN", "Volts"}
	procs := []string{"", "", "Min"}

	wcPrefix := strings.TrimPrefix(st.ColumnPrefix(), `"`)
	switch c {
	case domain.Cadence60Min:
		names = append(names, "Rain_mm_Tot", "Soil_Saturation")
		units = append(units, "mm", "%")
		procs = append(procs, "Tot", "Avg")
	default:
		for _, d := range sensorDepths {
			names = append(names, wcPrefix+"_"+d+"_Avg")
			units = append(units, "m^3/m^3")
			procs = append(procs, "Avg")
		}
	}
	writeQuoted(w, names)
	writeQuoted(w, units)
	writeQuoted(w, procs)

	step := cadenceStep(c)
	end := domain.Now().Truncate(step)
	for i := range rows {
		ts := end.Add(-time.Duration(rows-1-i) * step)
		values := []string{
			fmt.Sprintf("%q", ts.Format("2006-01-02 15:04:05")),
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.2f", 12.4+rng.Float64()*0.8),
		}
		switch c {
		case domain.Cadence60Min:
			rain := 0.0
			if rng.IntN(4) == 0 {
				rain = rng.Float64() * 6
			}
			values = append(values, fmt.Sprintf("%.3f", rain), fmt.Sprintf("%.1f", 30+rng.Float64()*60))
		default:
			for range sensorDepths {
				wc := st.SaturationReferenceMax * (0.3 + rng.Float64()*0.65)
				values = append(values, fmt.Sprintf("%.4f", wc))
			}
		}
		fmt.Fprintf(w, "%s\r\n", strings.Join(values, ","))
	}
}

func writeQuoted(w io.Writer, cols []string) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	fmt.Fprintf(w, "%s\r\n", strings.Join(quoted, ","))
}

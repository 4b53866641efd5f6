package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Derived field names and the source columns they are computed from.
const (
	RainfallField          = "12hr_rain_mm_total"
	SaturationField        = "soil_saturation"
	AverageSaturationField = "avg_soil_saturation"

	RainColumn           = `"Rain_mm_Tot"`
	SoilSaturationColumn = `"Soil_Saturation"`

	// RainfallWindow is the number of trailing lines summed for rainfall.
	RainfallWindow = 12

	// NotAvailable is the serialized form of an unavailable saturation ratio.
	NotAvailable = "N/A"
)

// Measurement is a derived metric value or the reason it could not be
// computed. Err is nil when Value is usable.
type Measurement struct {
	Value float64
	Err   error
}

// Available reports whether the measurement holds a usable value.
func (m Measurement) Available() bool { return m.Err == nil }

func unavailable(err error) Measurement { return Measurement{Err: err} }

// StationMetrics groups the metrics derived from one feed.
type StationMetrics struct {
	Rainfall   Measurement
	Saturation Measurement
	// AverageSaturation is only computed when the feed carries a
	// "Soil_Saturation" column.
	AverageSaturation *Measurement
}

// Apply writes the metrics into f using their serialized forms. A saturation
// ratio whose water-content column is missing goes to fallback instead, so the
// hourly table does not overwrite the ratio derived from the five-minute one.
// Rainfall is always written, as "0.00" when its column is absent.
func (m StationMetrics) Apply(f, fallback *Fields) {
	f.Set(RainfallField, FormatRainfall(m.Rainfall))

	sat := f
	if errors.Is(m.Saturation.Err, ErrMissingColumn) {
		sat = fallback
	}
	sat.Set(SaturationField, FormatSaturation(m.Saturation))

	if m.AverageSaturation != nil {
		f.Set(AverageSaturationField, fmt.Sprintf("%.2f", m.AverageSaturation.Value))
	}
}

// FormatRainfall renders a rainfall total with two decimals. Unavailable
// totals render as "0.00".
func FormatRainfall(m Measurement) string {
	if !m.Available() {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", m.Value)
}

// FormatSaturation renders a saturation percentage rounded half up, e.g.
// "40%". Unavailable ratios render as NotAvailable.
func FormatSaturation(m Measurement) string {
	if !m.Available() {
		return NotAvailable
	}
	return fmt.Sprintf("%d%%", int64(math.Floor(m.Value+0.5)))
}

// Compute derives every metric for a parsed feed.
func Compute(feed Feed) StationMetrics {
	m := StationMetrics{
		Rainfall:   RainfallTotal(feed),
		Saturation: SaturationRatio(feed),
	}
	if avg, ok := AverageSoilSaturation(feed); ok {
		m.AverageSaturation = &avg
	}
	return m
}

// Derived is the outcome of deriving metrics for one feed.
type Derived struct {
	// Fields holds the parsed fields and every metric computed from a
	// column present in the feed.
	Fields Fields
	// Fallbacks holds the saturation sentinel when the water-content column
	// is absent. It should only fill a key a station does not have yet.
	Fallbacks Fields
	Metrics   StationMetrics
}

// Derive computes the metrics of a parsed feed and lays them out as fields.
func Derive(feed Feed) Derived {
	d := Derived{
		Fields:  feed.Fields.Clone(),
		Metrics: Compute(feed),
	}
	d.Metrics.Apply(&d.Fields, &d.Fallbacks)
	return d
}

// RainfallTotal sums the rain column over the last RainfallWindow lines, or
// over every line when the file is shorter. Short files include their header
// lines in the window; those and any other non-numeric values count as zero.
func RainfallTotal(feed Feed) Measurement {
	idx := feed.ColumnIndex(RainColumn)
	if idx < 0 {
		return unavailable(fmt.Errorf("%s: %w", RainColumn, ErrMissingColumn))
	}

	start := max(len(feed.Lines)-RainfallWindow, 0)
	var total float64
	for _, line := range feed.Lines[start:] {
		v, err := parseFinite(valueAt(splitRow(line), idx))
		if err != nil {
			continue
		}
		total += v
	}
	return Measurement{Value: total}
}

// SaturationRatio expresses the latest water-content reading as a percentage
// of the station's reference maximum. The column is the first header starting
// with the station's water-content prefix.
func SaturationRatio(feed Feed) Measurement {
	prefix := feed.Station.ColumnPrefix()
	idx := feed.ColumnIndexWithPrefix(prefix)
	if idx < 0 {
		return unavailable(fmt.Errorf("%s*: %w", prefix, ErrMissingColumn))
	}

	wc, err := parseFinite(valueAt(feed.Latest(), idx))
	if err != nil {
		return unavailable(fmt.Errorf("%s: %w", feed.Header[idx], err))
	}
	if feed.Station.SaturationReferenceMax <= 0 {
		return unavailable(fmt.Errorf("station %s has no reference maximum: %w", feed.StationID, ErrNonNumericValue))
	}
	return Measurement{Value: wc / feed.Station.SaturationReferenceMax * 100}
}

// AverageSoilSaturation averages the "Soil_Saturation" column over every line
// of the feed, counting non-numeric entries as zero. The second result is
// false when the column is absent.
func AverageSoilSaturation(feed Feed) (Measurement, bool) {
	idx := feed.ColumnIndex(SoilSaturationColumn)
	if idx < 0 {
		return Measurement{}, false
	}

	var sum float64
	for _, line := range feed.Lines {
		if v, err := parseFinite(valueAt(splitRow(line), idx)); err == nil {
			sum += v
		}
	}
	return Measurement{Value: sum / float64(len(feed.Lines))}, true
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q: %w", s, ErrNonNumericValue)
	}
	return v, nil
}

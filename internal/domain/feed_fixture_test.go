package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testEnvLine   = `"TOA5","Adjuntas","CR1000X","12345","CR1000X.Std.05.00","CPU:adjuntas.CR1X","1234","Table60min"`
	testHeader    = `"TIMESTAMP","RECORD","BattV_Min","Rain_mm_Tot","wc4_20cm_Avg","wc4_40cm_Avg"`
	testUnitsLine = `"TS","RN","Volts","mm","m^3/m^3","m^3/m^3"`
	testProcLine  = `"","","Min","Tot","Avg","Avg"`
)

type stubLookup map[string]Station

func (s stubLookup) Lookup(id string) (Station, bool) {
	st, ok := s[id]
	return st, ok
}

var testStations = stubLookup{
	"adjuntas":  {ID: "adjuntas", SaturationReferenceMax: 0.521},
	"toronegro": {ID: "toronegro", SaturationReferenceMax: 0.483, WaterContentColumnPrefix: `"wc5`},
	"yabucoa":   {ID: "yabucoa", SaturationReferenceMax: 0.372, FilePrefix: "Yabucoa"},
}

// feedText assembles a feed with the standard four header lines followed by
// the given data rows.
func feedText(rows ...string) string {
	lines := append([]string{testEnvLine, testHeader, testUnitsLine, testProcLine}, rows...)
	return strings.Join(lines, "\n") + "\n"
}

// dataRow renders one data row with the given rain and water-content tokens.
func dataRow(i int, rain, wc string) string {
	return fmt.Sprintf(`"2024-05-01 %02d:00:00",%d,12.6,%s,%s,0.301`, i%24, 1000+i, rain, wc)
}

func mustParse(t *testing.T, raw, fileName string) Feed {
	t.Helper()
	feed, err := ParseFeed(raw, fileName, testStations)
	require.NoError(t, err)
	return feed
}

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 18, r.Len())
	assert.Equal(t, []string{
		"adjuntas", "anasco", "barranquitas", "cayey", "ciales", "lares",
		"maricao", "maunabo", "mayaguez", "naguabo", "naranjito", "orocovis",
		"ponce", "sanlorenzo", "toronegro", "utuado", "yabucoa", "yauco",
	}, r.IDs())

	adj, ok := r.Lookup("adjuntas")
	require.True(t, ok)
	assert.InDelta(t, 0.521, adj.SaturationReferenceMax, 1e-9)
	assert.Equal(t, domain.DefaultWaterContentPrefix, adj.ColumnPrefix())
	assert.InDelta(t, 18.147, adj.Coordinates.Lat, 1e-9)

	tn, ok := r.Lookup("toronegro")
	require.True(t, ok)
	assert.Equal(t, `"wc5`, tn.ColumnPrefix())
	assert.Equal(t, "toro-negro", tn.URLName)

	_, ok = r.Lookup("foo")
	assert.False(t, ok)
}

func TestDefault_SingleFiveDepthStation(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	var wc5 []string
	for _, s := range r.Stations() {
		if s.ColumnPrefix() != domain.DefaultWaterContentPrefix {
			wc5 = append(wc5, s.ID)
		}
	}
	assert.Equal(t, []string{"toronegro"}, wc5)
}

func TestFileNames(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	fast := r.FileNames(domain.Cadence5Minute)
	slow := r.FileNames(domain.Cadence60Min)

	require.Len(t, fast, 18)
	require.Len(t, slow, 18)
	assert.Equal(t, "adjuntas_t5minute.dat", fast[0])
	assert.Equal(t, "Yabucoa_t60min.dat", slow[16])
	for _, name := range append(fast, slow...) {
		_, ok := r.Lookup(domain.StationIDFromFileName(name))
		assert.True(t, ok, name)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "not yaml", yaml: "stations: [", want: "parse station registry"},
		{name: "empty", yaml: "stations: []", want: "empty"},
		{name: "missing id", yaml: "stations:\n  - vwc_max: 0.4\n", want: "id is required"},
		{name: "uppercase id", yaml: "stations:\n  - id: Cayey\n    vwc_max: 0.4\n", want: "lowercase"},
		{name: "zero reference", yaml: "stations:\n  - id: cayey\n", want: "vwc_max"},
		{name: "bad latitude", yaml: "stations:\n  - id: cayey\n    vwc_max: 0.4\n    coordinates: {lat: 95, lon: 0}\n", want: "latitude"},
		{name: "foreign file prefix", yaml: "stations:\n  - id: cayey\n    vwc_max: 0.4\n    file_prefix: Ponce\n", want: "file_prefix"},
		{name: "duplicate", yaml: "stations:\n  - id: cayey\n    vwc_max: 0.4\n  - id: cayey\n    vwc_max: 0.5\n", want: "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stations:\n  - id: cayey\n    vwc_max: 0.492\n"), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cayey"}, r.IDs())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

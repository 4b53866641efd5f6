package domain

import "strings"

// DefaultWaterContentPrefix is the header prefix of the shallowest
// water-content column on a four-depth sensor profile.
const DefaultWaterContentPrefix = `"wc4`

// Cadence identifies which datalogger table a feed file comes from.
type Cadence string

const (
	Cadence5Minute Cadence = "5minute"
	Cadence60Min   Cadence = "60min"
)

// FileSuffix returns the file name suffix for the cadence, e.g. "_t60min.dat".
func (c Cadence) FileSuffix() string {
	return "_t" + string(c) + ".dat"
}

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Station is a fixed monitoring installation. Stations are immutable once
// the registry has loaded them.
type Station struct {
	ID          string `json:"id" yaml:"id"`
	URLName     string `json:"url_name" yaml:"url_name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	// FilePrefix overrides the id in feed file names when the source keeps
	// a different casing.
	FilePrefix  string      `json:"-" yaml:"file_prefix"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`

	// SaturationReferenceMax is the maximum volumetric water content ever
	// recorded at the station, used to normalize the latest reading.
	SaturationReferenceMax   float64 `json:"vwc_max" yaml:"vwc_max"`
	WaterContentColumnPrefix string  `json:"water_content_prefix" yaml:"water_content_prefix"`

	GeologicUnit            string `json:"geologic_unit" yaml:"geologic_unit"`
	SoilUnit                string `json:"soil_unit" yaml:"soil_unit"`
	Elevation               string `json:"elevation" yaml:"elevation"`
	Slope                   string `json:"slope" yaml:"slope"`
	LandslideSusceptibility string `json:"landslide_susceptibility" yaml:"landslide_susceptibility"`
	SensorDepths            string `json:"sensor_depths" yaml:"sensor_depths"`
	InstalledDate           string `json:"installed_date" yaml:"installed_date"`
	Collaborator            string `json:"collaborator" yaml:"collaborator"`
	PlotImage               string `json:"plot_image" yaml:"plot_image"`
}

// ColumnPrefix returns the water-content header prefix for the station,
// falling back to DefaultWaterContentPrefix.
func (s Station) ColumnPrefix() string {
	if s.WaterContentColumnPrefix == "" {
		return DefaultWaterContentPrefix
	}
	return s.WaterContentColumnPrefix
}

// FileName returns the feed file name for the given cadence.
func (s Station) FileName(c Cadence) string {
	prefix := s.FilePrefix
	if prefix == "" {
		prefix = s.ID
	}
	return prefix + c.FileSuffix()
}

// StationLookup resolves a station id to its registry entry.
type StationLookup interface {
	Lookup(id string) (Station, bool)
}

// StationIDFromFileName derives the station id from a feed file name: the
// substring before the first underscore, lowercased.
func StationIDFromFileName(fileName string) string {
	id, _, _ := strings.Cut(fileName, "_")
	return strings.ToLower(id)
}

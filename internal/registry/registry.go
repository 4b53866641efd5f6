// Package registry loads the station catalogue that drives feed processing.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var defaultCatalogue []byte

// Registry is the read-only, ordered set of known stations.
type Registry struct {
	stations []domain.Station
	byID     map[string]int
}

type catalogue struct {
	Stations []domain.Station `yaml:"stations"`
}

// Default loads the catalogue compiled into the binary.
func Default() (*Registry, error) {
	return Load(defaultCatalogue)
}

// LoadFile loads a catalogue from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station registry: %w", err)
	}
	return Load(data)
}

// Load parses and validates a YAML catalogue.
func Load(data []byte) (*Registry, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse station registry: %w", err)
	}
	if len(c.Stations) == 0 {
		return nil, errors.New("station registry is empty")
	}

	r := &Registry{
		stations: c.Stations,
		byID:     make(map[string]int, len(c.Stations)),
	}
	for i, s := range c.Stations {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("station %q: duplicate id", s.ID)
		}
		r.byID[s.ID] = i
	}
	return r, nil
}

func validate(s domain.Station) error {
	switch {
	case s.ID == "":
		return errors.New("id is required")
	case s.ID != strings.ToLower(s.ID) || strings.Contains(s.ID, "_"):
		return fmt.Errorf("id %q must be lowercase without underscores", s.ID)
	case s.FilePrefix != "" && !strings.EqualFold(s.FilePrefix, s.ID):
		return fmt.Errorf("station %q: file_prefix %q must match the id", s.ID, s.FilePrefix)
	case s.SaturationReferenceMax <= 0:
		return fmt.Errorf("station %q: vwc_max must be positive", s.ID)
	case s.Coordinates.Lat < -90 || s.Coordinates.Lat > 90:
		return fmt.Errorf("station %q: latitude %v out of range", s.ID, s.Coordinates.Lat)
	case s.Coordinates.Lon < -180 || s.Coordinates.Lon > 180:
		return fmt.Errorf("station %q: longitude %v out of range", s.ID, s.Coordinates.Lon)
	}
	return nil
}

// Stations returns the stations in catalogue order.
func (r *Registry) Stations() []domain.Station {
	out := make([]domain.Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// IDs returns the station ids in catalogue order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.stations))
	for i, s := range r.stations {
		ids[i] = s.ID
	}
	return ids
}

// Len returns the number of stations.
func (r *Registry) Len() int { return len(r.stations) }

// Lookup returns the station with the given id.
func (r *Registry) Lookup(id string) (domain.Station, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Station{}, false
	}
	return r.stations[i], true
}

// FileNames returns the feed file name of every station for a cadence, in
// catalogue order.
func (r *Registry) FileNames(c domain.Cadence) []string {
	names := make([]string, len(r.stations))
	for i, s := range r.stations {
		names[i] = s.FileName(c)
	}
	return names
}

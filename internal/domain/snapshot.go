package domain

import "time"

// StationState is the current derived view of one station.
type StationState struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
	// UpdatedAt is zero until a feed for the station has been merged.
	UpdatedAt time.Time `json:"updated_at"`
}

// Reporting reports whether any feed has been merged for the station.
func (s StationState) Reporting() bool { return !s.UpdatedAt.IsZero() }

// Snapshot is a point-in-time copy of every station's state, in registry
// order.
type Snapshot struct {
	PassID      string         `json:"pass_id"`
	RefreshedAt time.Time      `json:"refreshed_at"`
	GeneratedAt time.Time      `json:"generated_at"`
	Stations    []StationState `json:"stations"`
}

// Mapping returns the station id to fields view consumed by the map layer.
func (s Snapshot) Mapping() map[string]Fields {
	out := make(map[string]Fields, len(s.Stations))
	for _, st := range s.Stations {
		out[st.ID] = st.Fields
	}
	return out
}

// Reporting counts stations with at least one merged feed.
func (s Snapshot) Reporting() int {
	n := 0
	for _, st := range s.Stations {
		if st.Reporting() {
			n++
		}
	}
	return n
}

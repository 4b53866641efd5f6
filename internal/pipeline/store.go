package pipeline

import (
	"sync"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
)

// Store holds the per-station result mapping. Every registered station has an
// entry from the start, so readers never see a missing key, and entries are
// never created for unregistered ids.
type Store struct {
	mu          sync.RWMutex
	order       []string
	entries     map[string]*domain.StationState
	passID      string
	refreshedAt time.Time
}

// NewStore creates a store with an empty entry for each station id.
func NewStore(ids []string) *Store {
	s := &Store{
		order:   append([]string(nil), ids...),
		entries: make(map[string]*domain.StationState, len(ids)),
	}
	for _, id := range ids {
		s.entries[id] = &domain.StationState{ID: id}
	}
	return s
}

// Merge copies fields into the station's entry, then sets each fallback
// whose key the entry does not hold yet. Keys the entry already has but
// fields lacks are kept. Returns false for unknown ids.
func (s *Store) Merge(id string, fields, fallbacks domain.Fields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.entries[id]
	if !ok {
		return false
	}
	st.Fields.Merge(fields)
	for _, k := range fallbacks.Keys() {
		if _, exists := st.Fields.Get(k); !exists {
			v, _ := fallbacks.Get(k)
			st.Fields.Set(k, v)
		}
	}
	st.UpdatedAt = domain.Now()
	return true
}

// MarkRefreshed records the completion of a full refresh.
func (s *Store) MarkRefreshed(passID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passID = passID
	s.refreshedAt = domain.Now()
}

// Get returns a copy of one station's state.
func (s *Store) Get(id string) (domain.StationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.entries[id]
	if !ok {
		return domain.StationState{}, false
	}
	return copyState(st), true
}

// Snapshot returns a deep copy of every station's state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		PassID:      s.passID,
		RefreshedAt: s.refreshedAt,
		GeneratedAt: domain.Now(),
		Stations:    make([]domain.StationState, len(s.order)),
	}
	for i, id := range s.order {
		snap.Stations[i] = copyState(s.entries[id])
	}
	return snap
}

func copyState(st *domain.StationState) domain.StationState {
	return domain.StationState{
		ID:        st.ID,
		Fields:    st.Fields.Clone(),
		UpdatedAt: st.UpdatedAt,
	}
}

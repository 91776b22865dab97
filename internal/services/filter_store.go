package services

import (
	"strings"
	"sync"
	"time"

	"flightops/pkg/contracts/domain"
)

// DefaultMaxFilters bounds the number of remembered selections.
const DefaultMaxFilters = 10000

// Filter is the remembered selection for one session and fleet
type Filter struct {
	Fleet     domain.FleetGroup `json:"fleet"`
	Pilot     string            `json:"pilot"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
}

type filterKey struct {
	session string
	fleet   domain.FleetGroup
}

// FilterStore keeps the last selected pilot per (session, fleet). Fleets are
// independent: changing one fleet's pilot never touches another's. When full,
// the least recently updated selection is evicted.
type FilterStore struct {
	mu      sync.RWMutex
	filters map[filterKey]Filter
	max     int
	now     func() time.Time
}

// NewFilterStore creates a store holding at most maxEntries selections
func NewFilterStore(maxEntries int) *FilterStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxFilters
	}
	return &FilterStore{
		filters: make(map[filterKey]Filter),
		max:     maxEntries,
		now:     time.Now,
	}
}

// Get returns the selection for session and fleet, defaulting to all pilots
func (s *FilterStore) Get(session string, fleet domain.FleetGroup) Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.filters[filterKey{session, fleet}]; ok {
		return f
	}
	return Filter{Fleet: fleet, Pilot: domain.AllPilots}
}

// Set stores pilot as the selection for session and fleet. An empty pilot
// stores the all-pilots selection.
func (s *FilterStore) Set(session string, fleet domain.FleetGroup, pilot string) (Filter, error) {
	if strings.TrimSpace(session) == "" {
		return Filter{}, ErrMissingSession
	}
	if pilot == "" {
		pilot = domain.AllPilots
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := filterKey{session, fleet}
	if _, exists := s.filters[key]; !exists && len(s.filters) >= s.max {
		s.evictOldest()
	}

	f := Filter{Fleet: fleet, Pilot: pilot, UpdatedAt: s.now()}
	s.filters[key] = f
	return f, nil
}

// Clear drops every selection held for session
func (s *FilterStore) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.filters {
		if key.session == session {
			delete(s.filters, key)
		}
	}
}

// Len returns the number of stored selections
func (s *FilterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filters)
}

// evictOldest must be called with the write lock held
func (s *FilterStore) evictOldest() {
	var (
		oldest filterKey
		at     time.Time
		found  bool
	)
	for key, f := range s.filters {
		if !found || f.UpdatedAt.Before(at) {
			oldest, at, found = key, f.UpdatedAt, true
		}
	}
	if found {
		delete(s.filters, oldest)
	}
}

package collector

import (
	"sort"
	"sync"
	"time"

	"RateBoard/internal/model"
)

// Store holds the latest records and spot prices. Both are replaced
// wholesale on refresh; records handed out are never modified.
type Store struct {
	mu        sync.RWMutex
	records   map[string]*model.CurrencyRecord
	spot      map[string]model.PricePoint
	updatedAt time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*model.CurrencyRecord),
		spot:    make(map[string]model.PricePoint),
	}
}

// Record returns the current record of a currency.
func (s *Store) Record(code string) (*model.CurrencyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[code]
	return rec, ok
}

// Codes returns the codes of all stored records, sorted.
func (s *Store) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.records))
	for c := range s.records {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// SetRecords replaces every record.
func (s *Store) SetRecords(records map[string]*model.CurrencyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.updatedAt = time.Now()
}

// UpdatedAt reports when the records were last replaced.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Spot returns the spot price of a currency.
func (s *Store) Spot(code string) (model.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.spot[code]
	return p, ok
}

// SpotAll returns a copy of every spot price.
func (s *Store) SpotAll() map[string]model.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.PricePoint, len(s.spot))
	for k, v := range s.spot {
		out[k] = v
	}
	return out
}

// SetSpot replaces every spot price.
func (s *Store) SetSpot(points map[string]model.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spot = points
}

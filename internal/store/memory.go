package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/city-weather/internal/weather"
)

// CityStore is a concurrency-safe, insertion-ordered collection of tracked cities.
// Records never leave the store by reference; every read returns copies.
type CityStore struct {
	mu      sync.RWMutex
	records []weather.WeatherRecord

	clock clockwork.Clock
	newID func() string
}

// Option configures a CityStore.
type Option func(*CityStore)

// WithClock sets the time source used for LastUpdated.
func WithClock(c clockwork.Clock) Option {
	return func(s *CityStore) { s.clock = c }
}

// WithIDGenerator overrides UUID generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *CityStore) { s.newID = fn }
}

// NewCityStore creates an empty CityStore.
func NewCityStore(opts ...Option) *CityStore {
	s := &CityStore{
		clock: clockwork.NewRealClock(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of all records in store order.
func (s *CityStore) List() []weather.WeatherRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.WeatherRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of tracked cities.
func (s *CityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given id.
func (s *CityStore) Get(id string) (weather.WeatherRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return weather.WeatherRecord{}, false
}

// Insert appends a new record with a fresh id and the current timestamp.
func (s *CityStore) Insert(result weather.WeatherResult) (weather.WeatherRecord, error) {
	if result.CityName == "" || result.CountryCode == "" {
		return weather.WeatherRecord{}, weather.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(result), nil
}

// Update replaces everything but the id of the matching record and bumps
// LastUpdated. A new name that already belongs to another record is not
// applied. Unknown ids leave the store unchanged and return false.
func (s *CityStore) Update(id string, result weather.WeatherResult) (weather.WeatherRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return weather.WeatherRecord{}, false
	}
	return s.updateLocked(i, result), true
}

// Upsert updates the record matching either key or the name carried by
// result, or inserts result when neither matches. Matching and writing run
// under one lock so no two records ever share a (name, country) pair.
func (s *CityStore) Upsert(key weather.Location, result weather.WeatherResult) (weather.WeatherRecord, bool, error) {
	if result.CityName == "" || result.CountryCode == "" {
		return weather.WeatherRecord{}, false, weather.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.matchLocked(key.City, key.Country)
	if i < 0 {
		i = s.matchLocked(result.CityName, result.CountryCode)
	}
	if i >= 0 {
		return s.updateLocked(i, result), false, nil
	}
	return s.insertLocked(result), true, nil
}

// Remove deletes the record with the given id and returns it.
func (s *CityStore) Remove(id string) (weather.WeatherRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return weather.WeatherRecord{}, false
	}
	rec := s.records[i]

	next := make([]weather.WeatherRecord, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	s.records = next
	return rec, true
}

// Clear empties the store and returns how many records were dropped.
func (s *CityStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	s.records = nil
	return n
}

func (s *CityStore) insertLocked(result weather.WeatherResult) weather.WeatherRecord {
	rec := weather.WeatherRecord{
		ID:           s.newID(),
		CityName:     result.CityName,
		CountryCode:  result.CountryCode,
		Measurements: result.Measurements,
		LastUpdated:  s.clock.Now().UnixMilli(),
	}
	s.records = append(s.records, rec)
	return rec
}

func (s *CityStore) updateLocked(i int, result weather.WeatherResult) weather.WeatherRecord {
	prev := s.records[i]

	// A rename that would collide with another record keeps the old identity.
	name, country := result.CityName, result.CountryCode
	if j := s.matchLocked(name, country); j >= 0 && j != i {
		name, country = prev.CityName, prev.CountryCode
	}

	ts := s.clock.Now().UnixMilli()
	if ts <= prev.LastUpdated {
		ts = prev.LastUpdated + 1
	}

	rec := weather.WeatherRecord{
		ID:           prev.ID,
		CityName:     name,
		CountryCode:  country,
		Measurements: result.Measurements,
		LastUpdated:  ts,
	}
	s.records[i] = rec
	return rec
}

func (s *CityStore) matchLocked(name, country string) int {
	if rec, ok := weather.FindCity(name, country, s.records); ok {
		return s.indexOf(rec.ID)
	}
	return -1
}

func (s *CityStore) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

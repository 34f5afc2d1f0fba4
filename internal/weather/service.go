package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/i474232898/city-weather/internal/observability"
)

// Service orchestrates remote lookups, the city store and user notifications.
type Service struct {
	store    Store
	provider Provider
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu       sync.RWMutex
	onChange []func()
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithNotifier routes outcome messages to n.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics records operation outcomes in m.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run whenever the set of tracked cities changes
// (a city is added or removed, or the store is cleared). Updates to an
// existing city do not trigger it.
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Reconcile looks up the weather for city/country and either updates the
// matching tracked city or adds a new one. A failed lookup leaves the store
// untouched.
func (s *Service) Reconcile(ctx context.Context, city, country string) Outcome {
	loc := Location{City: city, Country: country}.Normalize()
	if loc.City == "" {
		return s.finish("reconcile", validationFailed("Please enter a city"))
	}
	if loc.Country == "" {
		return s.finish("reconcile", validationFailed("Please select a country"))
	}

	result, err := s.fetch(ctx, loc)
	if err != nil {
		s.logger.Warn("weather lookup failed", "location", loc.Key(), "error", err)
		return s.finish("reconcile", lookupFailed(loc.City, "City not found in selected country", err))
	}

	// The country the user picked is authoritative for identity.
	result.CountryCode = loc.Country
	if result.CityName == "" {
		result.CityName = loc.City
	}

	rec, inserted, err := s.store.Upsert(loc, result)
	if err != nil {
		return s.finish("reconcile", lookupFailed(loc.City, "City not found in selected country", err))
	}

	if inserted {
		s.logger.Info("city added", "id", rec.ID, "location", loc.Key())
		out := s.finish("reconcile", added(rec))
		s.changed()
		return out
	}

	s.logger.Info("city updated", "id", rec.ID, "location", loc.Key())
	return s.finish("reconcile", updated(rec))
}

// Refresh re-fetches a tracked city by id. Unknown ids are a no-op. If ctx was
// canceled by the time the lookup returns, the result is discarded so a
// torn-down refresh never writes stale data back. A lookup that runs out its
// deadline is a failure like any other.
func (s *Service) Refresh(ctx context.Context, id string) Outcome {
	rec, ok := s.store.Get(id)
	if !ok {
		return s.finish("refresh", noop("", fmt.Errorf("city %q is not tracked", id)))
	}

	result, err := s.fetch(ctx, rec.Location())
	if err != nil {
		if canceled(ctx) {
			return s.finish("refresh", noop(rec.CityName, ctx.Err()))
		}
		s.logger.Warn("failed to refresh city data", "id", id, "location", rec.Location().Key(), "error", err)
		return s.finish("refresh", lookupFailed(rec.CityName, "Failed to refresh city data", err))
	}
	if canceled(ctx) {
		s.logger.Debug("discarding refresh result", "id", id, "error", ctx.Err())
		return s.finish("refresh", noop(rec.CityName, ctx.Err()))
	}

	result.CountryCode = rec.CountryCode
	if result.CityName == "" {
		result.CityName = rec.CityName
	}

	next, ok := s.store.Update(id, result)
	if !ok {
		// Removed while the lookup was in flight.
		return s.finish("refresh", noop(rec.CityName, fmt.Errorf("city %q is no longer tracked", id)))
	}
	return s.finish("refresh", updated(next))
}

// Remove stops tracking the city with the given id.
func (s *Service) Remove(id string) Outcome {
	rec, ok := s.store.Remove(id)
	if !ok {
		return s.finish("remove", noop("", fmt.Errorf("city %q is not tracked", id)))
	}
	s.logger.Info("city removed", "id", id, "location", rec.Location().Key())
	out := s.finish("remove", removed(rec))
	s.changed()
	return out
}

// Clear removes every tracked city.
func (s *Service) Clear() Outcome {
	n := s.store.Clear()
	s.logger.Info("cities cleared", "count", n)
	out := s.finish("clear", cleared())
	s.changed()
	return out
}

// Cities returns a snapshot of the tracked cities in store order.
func (s *Service) Cities() []WeatherRecord {
	return s.store.List()
}

// City returns a single tracked city.
func (s *Service) City(id string) (WeatherRecord, bool) {
	return s.store.Get(id)
}

func (s *Service) fetch(ctx context.Context, loc Location) (WeatherResult, error) {
	if s.provider == nil {
		return WeatherResult{}, ErrNoProviders
	}
	return s.provider.Fetch(ctx, loc)
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

func (s *Service) finish(op string, out Outcome) Outcome {
	if s.metrics != nil {
		s.metrics.Operations.WithLabelValues(op, string(out.Kind)).Inc()
		s.metrics.TrackedCities.Set(float64(s.store.Len()))
	}
	if s.notifier != nil && out.Message != "" {
		s.notifier.Notify(out.Message, out.Level)
	}
	return out
}

func (s *Service) changed() {
	s.mu.RLock()
	hooks := append([]func(){}, s.onChange...)
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

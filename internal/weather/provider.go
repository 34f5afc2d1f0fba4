package weather

import (
	"context"
	"errors"
)

var (
	// ErrCityNotFound is returned by providers when the city/country pair is unknown upstream.
	ErrCityNotFound = errors.New("city not found in selected country")

	// ErrInvalidRecord is returned when a record is missing its city name or country code.
	ErrInvalidRecord = errors.New("record requires city name and country code")

	// ErrNoProviders is returned when a composite provider has nothing to delegate to.
	ErrNoProviders = errors.New("no weather providers configured")
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (WeatherResult, error)
}

// Store is the contract the city store must satisfy.
type Store interface {
	List() []WeatherRecord
	Get(id string) (WeatherRecord, bool)
	Insert(result WeatherResult) (WeatherRecord, error)
	Update(id string, result WeatherResult) (WeatherRecord, bool)
	// Upsert matches key against the stored records and either updates the
	// match or inserts result, atomically.
	Upsert(key Location, result WeatherResult) (rec WeatherRecord, inserted bool, err error)
	Remove(id string) (WeatherRecord, bool)
	Clear() int
	Len() int
}

// Notifier receives the user-facing message for an outcome.
type Notifier interface {
	Notify(message string, level Level)
}

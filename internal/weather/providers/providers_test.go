package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-weather/internal/observability"
	"github.com/i474232898/city-weather/internal/weather"
)

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

var london = weather.Location{City: "London", Country: "GB"}

func TestOpenWeatherProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "London,GB", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "London",
			"main": {"temp": 20, "feels_like": 18, "temp_max": 22, "temp_min": 16, "humidity": 60},
			"wind": {"speed": 5},
			"rain": {"1h": 2},
			"sys": {"country": "GB"}
		}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret", WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	got, err := p.Fetch(context.Background(), london)
	require.NoError(t, err)

	assert.Equal(t, "openweathermap", p.Name())
	assert.Equal(t, weather.WeatherResult{
		CityName:    "London",
		CountryCode: "GB",
		Measurements: weather.Measurements{
			Temp: 20, FeelsLike: 18, TempMax: 22, TempMin: 16, Humidity: 60, WindSpeed: 5, RainLastHour: 2,
		},
	}, got)
}

func TestOpenWeatherProvider_RainDefaultsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Madrid", "main": {"temp": 30}, "wind": {"speed": 1}}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "k", WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	got, err := p.Fetch(context.Background(), weather.Location{City: "Madrid", Country: "ES"})
	require.NoError(t, err)
	assert.Zero(t, got.Measurements.RainLastHour)
	assert.Equal(t, "ES", got.CountryCode)
}

func TestOpenWeatherProvider_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "k", WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	_, err := p.Fetch(context.Background(), weather.Location{City: "Atlantis", Country: "GR"})
	require.ErrorIs(t, err, weather.ErrCityNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenWeatherProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"name": "London", "main": {"temp": 11}}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "k", WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	got, err := p.Fetch(context.Background(), london)
	require.NoError(t, err)
	assert.InDelta(t, 11, got.Measurements.Temp, 0)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenWeatherProvider_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "k", WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	_, err := p.Fetch(context.Background(), london)
	require.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenWeatherProvider_MissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")
	_, err := p.Fetch(context.Background(), london)
	require.Error(t, err)
}

func TestWeatherAPIProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris,FR", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{
			"location": {"name": "Paris"},
			"current": {"temp_c": 18, "feelslike_c": 17, "humidity": 70, "wind_kph": 36, "precip_mm": 0.4},
			"forecast": {"forecastday": [{"day": {"maxtemp_c": 21, "mintemp_c": 12}}]}
		}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "k", WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	got, err := p.Fetch(context.Background(), weather.Location{City: "Paris", Country: "FR"})
	require.NoError(t, err)

	assert.Equal(t, "Paris", got.CityName)
	assert.Equal(t, "FR", got.CountryCode)
	assert.InDelta(t, 18, got.Measurements.Temp, 1e-9)
	assert.InDelta(t, 17, got.Measurements.FeelsLike, 1e-9)
	assert.InDelta(t, 21, got.Measurements.TempMax, 1e-9)
	assert.InDelta(t, 12, got.Measurements.TempMin, 1e-9)
	assert.InDelta(t, 10, got.Measurements.WindSpeed, 1e-9)
	assert.InDelta(t, 0.4, got.Measurements.RainLastHour, 1e-9)
}

type stubGeocoder struct {
	place Place
	err   error
}

func (g stubGeocoder) Geocode(context.Context, weather.Location) (Place, error) {
	return g.place, g.err
}

func TestOpenMeteoProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "51.500000", r.URL.Query().Get("latitude"))
		assert.Equal(t, "ms", r.URL.Query().Get("wind_speed_unit"))
		_, _ = w.Write([]byte(`{
			"current": {"temperature_2m": 14.5, "apparent_temperature": 13, "relative_humidity_2m": 80, "wind_speed_10m": 4.2, "rain": 0.3},
			"daily": {"temperature_2m_max": [16], "temperature_2m_min": [9]}
		}`))
	}))
	defer srv.Close()

	geo := stubGeocoder{place: Place{Name: "London", Latitude: 51.5, Longitude: -0.12}}
	p := NewOpenMeteoProvider(srv.Client(), geo, WithBaseURL(srv.URL), WithBackoff(fastBackoff))
	got, err := p.Fetch(context.Background(), london)
	require.NoError(t, err)

	assert.Equal(t, "London", got.CityName)
	assert.Equal(t, weather.Measurements{
		Temp: 14.5, FeelsLike: 13, TempMax: 16, TempMin: 9, Humidity: 80, WindSpeed: 4.2, RainLastHour: 0.3,
	}, got.Measurements)
}

func TestOpenMeteoProvider_GeocodeFailure(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, stubGeocoder{err: weather.ErrCityNotFound})
	_, err := p.Fetch(context.Background(), london)
	require.ErrorIs(t, err, weather.ErrCityNotFound)
}

func TestOpenMeteoGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Nowhere" {
			_, _ = w.Write([]byte(`{"generationtime_ms": 0.1}`))
			return
		}
		assert.Equal(t, "GB", r.URL.Query().Get("countryCode"))
		_, _ = w.Write([]byte(`{"results": [{"name": "London", "latitude": 51.5, "longitude": -0.12}]}`))
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.Client(), WithBaseURL(srv.URL), WithBackoff(fastBackoff))

	place, err := g.Geocode(context.Background(), london)
	require.NoError(t, err)
	assert.Equal(t, Place{Name: "London", Latitude: 51.5, Longitude: -0.12}, place)

	_, err = g.Geocode(context.Background(), weather.Location{City: "Nowhere", Country: "GB"})
	require.ErrorIs(t, err, weather.ErrCityNotFound)
}

type staticProvider struct {
	name   string
	result weather.WeatherResult
	err    error
	calls  atomic.Int32
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) Fetch(context.Context, weather.Location) (weather.WeatherResult, error) {
	p.calls.Add(1)
	return p.result, p.err
}

func TestChain(t *testing.T) {
	failing := &staticProvider{name: "a", err: errors.New("down")}
	ok := &staticProvider{name: "b", result: weather.WeatherResult{CityName: "London", Measurements: weather.Measurements{Temp: 9}}}
	unused := &staticProvider{name: "c"}

	c := NewChain(slog.Default(), failing, ok, unused)
	assert.Equal(t, "chain(a,b,c)", c.Name())

	got, err := c.Fetch(context.Background(), london)
	require.NoError(t, err)
	assert.InDelta(t, 9, got.Measurements.Temp, 0)
	assert.Zero(t, unused.calls.Load())
}

func TestChain_AllFail(t *testing.T) {
	c := NewChain(slog.Default(),
		&staticProvider{name: "a", err: weather.ErrCityNotFound},
		&staticProvider{name: "b", err: errors.New("down")},
	)
	_, err := c.Fetch(context.Background(), london)
	require.ErrorIs(t, err, weather.ErrCityNotFound)

	_, err = NewChain(slog.Default()).Fetch(context.Background(), london)
	require.ErrorIs(t, err, weather.ErrNoProviders)
}

func TestEnsemble_AveragesSuccesses(t *testing.T) {
	e := NewEnsemble(slog.Default(),
		&staticProvider{name: "a", result: weather.WeatherResult{CityName: "London", Measurements: weather.Measurements{Temp: 10, Humidity: 50}}},
		&staticProvider{name: "b", result: weather.WeatherResult{CityName: "London", Measurements: weather.Measurements{Temp: 20, Humidity: 70}}},
		&staticProvider{name: "c", err: errors.New("down")},
	)

	got, err := e.Fetch(context.Background(), london)
	require.NoError(t, err)
	assert.Equal(t, "London", got.CityName)
	assert.Equal(t, "GB", got.CountryCode)
	assert.InDelta(t, 15, got.Measurements.Temp, 1e-9)
	assert.InDelta(t, 60, got.Measurements.Humidity, 1e-9)
}

func TestEnsemble_AllFail(t *testing.T) {
	e := NewEnsemble(slog.Default(), &staticProvider{name: "a", err: weather.ErrCityNotFound})
	_, err := e.Fetch(context.Background(), london)
	require.ErrorIs(t, err, weather.ErrCityNotFound)
}

func TestAggregateResults_Empty(t *testing.T) {
	got := AggregateResults(london, nil)
	assert.Equal(t, weather.WeatherResult{CityName: "London", CountryCode: "GB"}, got)
}

func TestInstrument(t *testing.T) {
	m := observability.NewMetricsForTesting()
	ok := Instrument(&staticProvider{name: "a"}, m)
	bad := Instrument(&staticProvider{name: "b", err: weather.ErrCityNotFound}, m)

	_, err := ok.Fetch(context.Background(), london)
	require.NoError(t, err)
	_, err = bad.Fetch(context.Background(), london)
	require.ErrorIs(t, err, weather.ErrCityNotFound)

	assert.Equal(t, 2, testutil.CollectAndCount(m.LookupDuration))
	assert.Equal(t, "a", ok.Name())
}

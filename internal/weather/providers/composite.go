package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/city-weather/internal/observability"
	"github.com/i474232898/city-weather/internal/weather"
)

// Chain tries each provider in order and returns the first success.
type Chain struct {
	providers []weather.Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...weather.Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *Chain) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherResult, error) {
	if len(c.providers) == 0 {
		return weather.WeatherResult{}, weather.ErrNoProviders
	}

	var errs []error
	for _, p := range c.providers {
		r, err := p.Fetch(ctx, loc)
		if err == nil {
			return r, nil
		}
		c.logger.Debug("provider failed, trying next", "provider", p.Name(), "location", loc.Key(), "error", err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}
	return weather.WeatherResult{}, errors.Join(errs...)
}

// Ensemble fetches from all providers concurrently and averages the
// measurements of those that succeed.
type Ensemble struct {
	providers []weather.Provider
	logger    *slog.Logger
}

func NewEnsemble(logger *slog.Logger, providers ...weather.Provider) *Ensemble {
	return &Ensemble{providers: providers, logger: logger}
}

func (e *Ensemble) Name() string {
	return "ensemble"
}

func (e *Ensemble) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherResult, error) {
	if len(e.providers) == 0 {
		return weather.WeatherResult{}, weather.ErrNoProviders
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []weather.WeatherResult
		errs    []error
	)

	for _, p := range e.providers {
		wg.Add(1)
		go func(p weather.Provider) {
			defer wg.Done()

			r, err := p.Fetch(ctx, loc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Log and continue; partial success is still a result.
				e.logger.Warn("provider fetch failed", "provider", p.Name(), "location", loc.Key(), "error", err)
				errs = append(errs, err)
				return
			}
			results = append(results, r)
		}(p)
	}

	wg.Wait()

	if len(results) == 0 {
		return weather.WeatherResult{}, errors.Join(errs...)
	}
	return AggregateResults(loc, results), nil
}

// AggregateResults averages numeric measurements. The city name comes from
// the first result that has one.
func AggregateResults(loc weather.Location, results []weather.WeatherResult) weather.WeatherResult {
	out := weather.WeatherResult{CityName: loc.City, CountryCode: loc.Country}
	if len(results) == 0 {
		return out
	}

	var sum weather.Measurements
	named := false
	for _, r := range results {
		sum.Temp += r.Measurements.Temp
		sum.FeelsLike += r.Measurements.FeelsLike
		sum.TempMax += r.Measurements.TempMax
		sum.TempMin += r.Measurements.TempMin
		sum.Humidity += r.Measurements.Humidity
		sum.WindSpeed += r.Measurements.WindSpeed
		sum.RainLastHour += r.Measurements.RainLastHour

		if !named && r.CityName != "" {
			out.CityName = r.CityName
			named = true
		}
	}

	n := float64(len(results))
	out.Measurements = weather.Measurements{
		Temp:         sum.Temp / n,
		FeelsLike:    sum.FeelsLike / n,
		TempMax:      sum.TempMax / n,
		TempMin:      sum.TempMin / n,
		Humidity:     sum.Humidity / n,
		WindSpeed:    sum.WindSpeed / n,
		RainLastHour: sum.RainLastHour / n,
	}
	return out
}

// Instrumented records lookup latency for the wrapped provider.
type Instrumented struct {
	inner   weather.Provider
	metrics *observability.Metrics
}

func Instrument(p weather.Provider, m *observability.Metrics) *Instrumented {
	return &Instrumented{inner: p, metrics: m}
}

func (i *Instrumented) Name() string {
	return i.inner.Name()
}

func (i *Instrumented) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherResult, error) {
	start := time.Now()
	r, err := i.inner.Fetch(ctx, loc)

	result := "success"
	if err != nil {
		result = "error"
	}
	i.metrics.LookupDuration.WithLabelValues(i.inner.Name(), result).Observe(time.Since(start).Seconds())

	if err != nil {
		return r, fmt.Errorf("lookup %s: %w", loc.Key(), err)
	}
	return r, nil
}

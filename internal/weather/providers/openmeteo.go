package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/city-weather/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// Open-Meteo only takes coordinates, so cities go through a Geocoder first.
type OpenMeteoProvider struct {
	base
	geocoder Geocoder
}

func NewOpenMeteoProvider(client *http.Client, geo Geocoder, opts ...Option) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		base:     newBase("openmeteo", "https://api.open-meteo.com/v1/forecast", client, opts),
		geocoder: geo,
	}
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherResult, error) {
	if p.geocoder == nil {
		return weather.WeatherResult{}, errors.New("openmeteo requires a geocoder")
	}

	place, err := p.geocoder.Geocode(ctx, loc)
	if err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: %w", p.name, err)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", place.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", place.Longitude))
		values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,rain")
		values.Set("daily", "temperature_2m_max,temperature_2m_min")
		values.Set("forecast_days", "1")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "auto")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Apparent    float64 `json:"apparent_temperature"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			Rain        float64 `json:"rain"`
		} `json:"current"`
		Daily struct {
			Max []float64 `json:"temperature_2m_max"`
			Min []float64 `json:"temperature_2m_min"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}

	m := weather.Measurements{
		Temp:         payload.Current.Temperature,
		FeelsLike:    payload.Current.Apparent,
		TempMax:      payload.Current.Temperature,
		TempMin:      payload.Current.Temperature,
		Humidity:     payload.Current.Humidity,
		WindSpeed:    payload.Current.WindSpeed,
		RainLastHour: payload.Current.Rain,
	}
	if len(payload.Daily.Max) > 0 {
		m.TempMax = payload.Daily.Max[0]
	}
	if len(payload.Daily.Min) > 0 {
		m.TempMin = payload.Daily.Min[0]
	}

	name := place.Name
	if name == "" {
		name = loc.City
	}

	return weather.WeatherResult{
		CityName:     name,
		CountryCode:  loc.Country,
		Measurements: m,
	}, nil
}

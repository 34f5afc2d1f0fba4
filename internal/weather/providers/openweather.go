package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/city-weather/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	base
	apiKey string
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		base:   newBase("openweathermap", "https://api.openweathermap.org/data/2.5/weather", client, opts),
		apiKey: apiKey,
	}
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherResult, error) {
	if p.apiKey == "" {
		return weather.WeatherResult{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("q", cityQuery(loc))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			TempMax   float64 `json:"temp_max"`
			TempMin   float64 `json:"temp_min"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
		Sys struct {
			Country string `json:"country"`
		} `json:"sys"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}

	name := payload.Name
	if name == "" {
		name = loc.City
	}
	country := payload.Sys.Country
	if country == "" {
		country = loc.Country
	}

	return weather.WeatherResult{
		CityName:    name,
		CountryCode: country,
		Measurements: weather.Measurements{
			Temp:         payload.Main.Temp,
			FeelsLike:    payload.Main.FeelsLike,
			TempMax:      payload.Main.TempMax,
			TempMin:      payload.Main.TempMin,
			Humidity:     payload.Main.Humidity,
			WindSpeed:    payload.Wind.Speed,
			RainLastHour: payload.Rain.OneH,
		},
	}, nil
}

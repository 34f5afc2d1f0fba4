package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/city-weather/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// It calls forecast.json with days=1 so the card gets the day's max/min too.
type WeatherAPIProvider struct {
	base
	apiKey string
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		base:   newBase("weatherapi", "https://api.weatherapi.com/v1/forecast.json", client, opts),
		apiKey: apiKey,
	}
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherResult, error) {
	if p.apiKey == "" {
		return weather.WeatherResult{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", cityQuery(loc))
		values.Set("days", "1")
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		Current struct {
			TempC      float64 `json:"temp_c"`
			FeelsLikeC float64 `json:"feelslike_c"`
			Humidity   float64 `json:"humidity"`
			WindKph    float64 `json:"wind_kph"`
			PrecipMm   float64 `json:"precip_mm"`
		} `json:"current"`
		Forecast struct {
			ForecastDay []struct {
				Day struct {
					MaxTempC float64 `json:"maxtemp_c"`
					MinTempC float64 `json:"mintemp_c"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}

	m := weather.Measurements{
		Temp:      payload.Current.TempC,
		FeelsLike: payload.Current.FeelsLikeC,
		TempMax:   payload.Current.TempC,
		TempMin:   payload.Current.TempC,
		Humidity:  payload.Current.Humidity,
		// Convert wind from kph to m/s (approx).
		WindSpeed:    payload.Current.WindKph / 3.6,
		RainLastHour: payload.Current.PrecipMm,
	}
	if days := payload.Forecast.ForecastDay; len(days) > 0 {
		m.TempMax = days[0].Day.MaxTempC
		m.TempMin = days[0].Day.MinTempC
	}

	name := payload.Location.Name
	if name == "" {
		name = loc.City
	}

	return weather.WeatherResult{
		CityName:     name,
		CountryCode:  loc.Country,
		Measurements: m,
	}, nil
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/city-weather/internal/weather"
)

// Place is a geocoded city.
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a city/country pair to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, loc weather.Location) (Place, error)
}

// GoogleGeocoder resolves cities through the Google Geocoding API.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the geocoder package with apiKey.
// The key is process-wide; the underlying package keeps it in a global.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, loc weather.Location) (Place, error) {
	type answer struct {
		loc geocoder.Location
		err error
	}

	// The geocoder package has no context support; stop waiting when ctx ends.
	ch := make(chan answer, 1)
	go func() {
		l, err := geocoder.Geocoding(geocoder.Address{City: loc.City, Country: loc.Country})
		ch <- answer{loc: l, err: err}
	}()

	select {
	case <-ctx.Done():
		return Place{}, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return Place{}, fmt.Errorf("google geocoding %s: %w", loc.Key(), a.err)
		}
		return Place{Name: loc.City, Latitude: a.loc.Latitude, Longitude: a.loc.Longitude}, nil
	}
}

// OpenMeteoGeocoder uses the free Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	base
}

func NewOpenMeteoGeocoder(client *http.Client, opts ...Option) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		base: newBase("openmeteo-geocoding", "https://geocoding-api.open-meteo.com/v1/search", client, opts),
	}
}

func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, loc weather.Location) (Place, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("name", loc.City)
		values.Set("count", "1")
		values.Set("format", "json")
		if loc.Country != "" {
			values.Set("countryCode", strings.ToUpper(loc.Country))
		}

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Place{}, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(payload.Results) == 0 {
		return Place{}, weather.ErrCityNotFound
	}

	r := payload.Results[0]
	return Place{Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude}, nil
}

package weather

import "strings"

// Location identifies a city lookup. City/Country must be provided.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Key returns a canonical string key for logging and metrics labels.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// Normalize trims surrounding whitespace from both fields.
func (l Location) Normalize() Location {
	return Location{
		City:    strings.TrimSpace(l.City),
		Country: strings.TrimSpace(l.Country),
	}
}

// Measurements are the values shown on a city card.
// Temperatures are in °C, humidity in percent, rain in mm over the last hour.
type Measurements struct {
	Temp         float64 `json:"temp"`
	FeelsLike    float64 `json:"feelsLike"`
	TempMax      float64 `json:"tempMax"`
	TempMin      float64 `json:"tempMin"`
	Humidity     float64 `json:"humidity"`
	WindSpeed    float64 `json:"windSpeed"`
	RainLastHour float64 `json:"rainLastHour"`
}

// WeatherResult is a single provider's answer for a location.
type WeatherResult struct {
	CityName     string       `json:"cityName"`
	CountryCode  string       `json:"countryCode"`
	Measurements Measurements `json:"measurements"`
}

// WeatherRecord is one tracked city's latest known weather.
type WeatherRecord struct {
	ID           string       `json:"id"`
	CityName     string       `json:"cityName"`
	CountryCode  string       `json:"countryCode"`
	Measurements Measurements `json:"measurements"`

	// LastUpdated is epoch milliseconds.
	LastUpdated int64 `json:"lastUpdated"`
}

// Location returns the lookup key used to refresh this record.
func (r WeatherRecord) Location() Location {
	return Location{City: r.CityName, Country: r.CountryCode}
}

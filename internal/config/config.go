package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/city-weather/internal/weather"
)

// Provider names accepted by WEATHER_PROVIDER.
const (
	ProviderOpenWeather = "openweather"
	ProviderWeatherAPI  = "weatherapi"
	ProviderOpenMeteo   = "openmeteo"
	ProviderChain       = "chain"
	ProviderEnsemble    = "ensemble"
)

type AppConfig struct {
	Provider          string `envconfig:"WEATHER_PROVIDER" default:"openweather" validate:"oneof=openweather weatherapi openmeteo chain ensemble"`
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string `envconfig:"WEATHERAPI_API_KEY"`
	GeocoderAPIKey    string `envconfig:"GOOGLE_GEOCODER_API_KEY"`

	// RefreshInterval controls how often every tracked city is refreshed.
	RefreshInterval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"10m" validate:"gt=0"`
	RefreshTimeout     time.Duration `envconfig:"REFRESH_TIMEOUT" default:"30s" validate:"gt=0"`
	RefreshConcurrency int           `envconfig:"REFRESH_CONCURRENCY" default:"4" validate:"min=1,max=64"`

	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	NotificationTTL time.Duration `envconfig:"NOTIFICATION_TTL" default:"5m" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	Port      string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Locations are reconciled once at startup.
	Locations []weather.Location `ignored:"true"`
}

var validate = validator.New()

// Load reads configuration from the environment with sensible defaults.
// Callers that want .env support load it with godotenv first.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.Provider = strings.ToLower(cfg.Provider)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Provider {
	case ProviderOpenWeather:
		if cfg.OpenWeatherAPIKey == "" {
			return nil, fmt.Errorf("OPENWEATHER_API_KEY is required for provider %q", cfg.Provider)
		}
	case ProviderWeatherAPI:
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHERAPI_API_KEY is required for provider %q", cfg.Provider)
		}
	}

	locs, err := loadSeedLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

func loadSeedLocations() ([]weather.Location, error) {
	city := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY"))
	country := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY"))
	if city == "" && country == "" {
		return nil, nil
	}

	cities := strings.Split(city, ",")
	countries := strings.Split(country, ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{City: cities[i], Country: countries[i]}.Normalize()
		if loc.City == "" || loc.Country == "" {
			return nil, fmt.Errorf("seed location %d is incomplete", i+1)
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

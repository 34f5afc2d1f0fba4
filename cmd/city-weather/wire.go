package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/i474232898/city-weather/internal/config"
	"github.com/i474232898/city-weather/internal/weather"
	"github.com/i474232898/city-weather/internal/weather/providers"
)

// buildProvider selects the weather source named by WEATHER_PROVIDER.
func buildProvider(cfg *config.AppConfig, client *http.Client, logger *slog.Logger) weather.Provider {
	switch cfg.Provider {
	case config.ProviderWeatherAPI:
		return providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey)
	case config.ProviderOpenMeteo:
		return openMeteo(cfg, client)
	case config.ProviderChain:
		return providers.NewChain(logger, available(cfg, client)...)
	case config.ProviderEnsemble:
		return providers.NewEnsemble(logger, available(cfg, client)...)
	default:
		return providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey)
	}
}

// available lists every provider the configuration has credentials for,
// OpenWeatherMap first. Open-Meteo needs no key and is always last.
func available(cfg *config.AppConfig, client *http.Client) []weather.Provider {
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey))
	}
	return append(provs, openMeteo(cfg, client))
}

func openMeteo(cfg *config.AppConfig, client *http.Client) weather.Provider {
	var geo providers.Geocoder = providers.NewOpenMeteoGeocoder(client)
	if cfg.GeocoderAPIKey != "" {
		geo = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}
	return providers.NewOpenMeteoProvider(client, geo)
}

// seedCities reconciles the configured startup locations.
func seedCities(service *weather.Service, cfg *config.AppConfig, logger *slog.Logger) {
	for _, loc := range cfg.Locations {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RefreshTimeout)
		out := service.Reconcile(ctx, loc.City, loc.Country)
		cancel()
		if !out.OK() {
			logger.Warn("seed city not added", "location", loc.Key(), "outcome", out.Kind, "error", out.Err)
		}
	}
}

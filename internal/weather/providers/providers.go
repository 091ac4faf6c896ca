package providers

import (
	"log"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

// Options selects which providers to build.
type Options struct {
	HTTP              HTTPClientConfig
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	// GeocoderAPIKey enables Open-Meteo, which needs coordinates.
	GeocoderAPIKey string
}

// Build returns the providers that have credentials. With none configured
// it falls back to the mock provider so the service still answers.
func Build(o Options) []weather.Provider {
	var provs []weather.Provider

	if o.OpenWeatherAPIKey != "" {
		provs = append(provs, NewOpenWeatherProvider(o.HTTP, o.OpenWeatherAPIKey))
	}
	if o.WeatherAPIKey != "" {
		provs = append(provs, NewWeatherAPIProvider(o.HTTP, o.WeatherAPIKey))
	}
	if o.GeocoderAPIKey != "" {
		provs = append(provs, NewOpenMeteoProvider(o.HTTP, NewGoogleGeocoder(o.GeocoderAPIKey)))
	}

	if len(provs) == 0 {
		log.Println("WARN: no weather API keys configured, using mock weather data")
		provs = append(provs, NewMockProvider())
	}
	return provs
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// HTTPTimeout bounds a single outbound provider request.
	HTTPTimeout time.Duration
	// ProviderRateLimit is the per-provider request budget per minute.
	ProviderRateLimit int

	// FetchInterval controls how often we fetch data for each location.
	FetchInterval time.Duration
	// WeatherCacheTTL bounds how long fetched weather is reused.
	WeatherCacheTTL time.Duration

	// Locations the scheduler keeps warm.
	Locations []weather.Location
	// DefaultCountry completes requests that name only a city.
	DefaultCountry string
	// TimeZone decides forecast day boundaries.
	TimeZone *time.Location

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// DBPath is the SQLite file holding farms and irrigation logs.
	DBPath string
	// RefdataPath overrides the embedded crop and soil catalog.
	RefdataPath string
	SeedSamples bool

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.ProviderRateLimit = getenvInt("PROVIDER_RATE_LIMIT", 60)

	// Scheduler interval: default 15 minutes.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", "10m"); err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	tzName := getenvDefault("TZ", "Asia/Tashkent")
	if cfg.TimeZone, err = time.LoadLocation(tzName); err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", tzName, err)
	}

	cfg.DefaultCountry = getenvDefault("DEFAULT_COUNTRY", "UZ")
	cfg.DBPath = getenvDefault("DB_PATH", "irrigation.db")
	cfg.RefdataPath = os.Getenv("REFDATA_PATH")
	cfg.SeedSamples = getenvBool("SEED_SAMPLE_FARMS", true)
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadLocations(cfg.DefaultCountry)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadLocations pairs WEATHER_LOCATION_CITY with WEATHER_LOCATION_COUNTRY.
// A single country applies to every city.
func loadLocations(defaultCountry string) ([]weather.Location, error) {
	cities := splitList(os.Getenv("WEATHER_LOCATION_CITY"))
	if len(cities) == 0 {
		return nil, nil
	}
	countries := splitList(os.Getenv("WEATHER_LOCATION_COUNTRY"))

	switch len(countries) {
	case 0:
		countries = []string{defaultCountry}
		fallthrough
	case 1:
		for len(countries) < len(cities) {
			countries = append(countries, countries[0])
		}
	}
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	locs := make([]weather.Location, 0, len(cities))
	for i := range cities {
		locs = append(locs, weather.Location{
			City:    cities[i],
			Country: countries[i],
		})
	}
	return locs, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

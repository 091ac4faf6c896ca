package weather

import (
	"context"
	"time"
)

// ProviderReading is a single provider's normalized reading that can be
// aggregated into a Snapshot. Optional fields stay nil when the provider
// does not report them.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC   float64
	HumidityPct    float64
	WindSpeedKmh   float64
	PressureKPa    *float64
	PrecipMm       float64
	SolarRadiation *float64
	Cloudiness     *float64
	Condition      Condition
}

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// ForecastProvider is implemented by providers that also serve daily
// forecasts. Each returned reading covers one local calendar day.
type ForecastProvider interface {
	Provider
	FetchForecast(ctx context.Context, loc Location, days int) ([]ProviderReading, error)
}

// HistoryStats summarizes what a Store currently holds.
type HistoryStats struct {
	Locations int `json:"locations"`
	Snapshots int `json:"snapshots"`
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot Snapshot)
	GetLatest(loc Location) (Snapshot, error)
	GetRange(loc Location, from, to time.Time) ([]Snapshot, error)
	Clear()
	Stats() HistoryStats
}

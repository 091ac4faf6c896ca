package weather

import (
	"time"

	"github.com/i474232898/irrigation-advisor/internal/irrigation"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location represents a place for which we track weather.
// City is required; coordinates are filled in by geocoding when a provider
// needs them.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// Query renders the location as "city,country" for providers that accept
// free-text queries.
func (l Location) Query() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + "," + l.Country
}

// Snapshot is the normalized, aggregated weather view at a point in time.
// Units match what the irrigation engine consumes: wind in km/h, pressure in
// kPa, solar radiation in MJ/m²/day.
type Snapshot struct {
	Location       Location  `json:"location"`
	Timestamp      time.Time `json:"timestamp"` // always UTC
	Temperature    float64   `json:"temperatureC"`
	Humidity       float64   `json:"humidityPercent"`
	WindSpeed      float64   `json:"windSpeedKmh"`
	Pressure       *float64  `json:"pressureKPa,omitempty"`
	Precipitation  float64   `json:"precipMm"`
	SolarRadiation *float64  `json:"solarRadiation,omitempty"`
	Cloudiness     *float64  `json:"cloudinessPercent,omitempty"`
	Condition      Condition `json:"condition"`

	// Providers contributing to this snapshot.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// Observation converts the snapshot into engine input.
func (s Snapshot) Observation() irrigation.WeatherObservation {
	return irrigation.WeatherObservation{
		Temperature:    s.Temperature,
		Humidity:       s.Humidity,
		WindSpeed:      s.WindSpeed,
		Pressure:       s.Pressure,
		SolarRadiation: s.SolarRadiation,
		Precipitation:  irrigation.Float(s.Precipitation),
	}
}

// Forecast is a multi-day forecast, one snapshot per day, ordered by
// Timestamp ascending.
type Forecast []Snapshot

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}

// DefaultObservation is used when no provider can deliver current weather.
func DefaultObservation() irrigation.WeatherObservation {
	return irrigation.WeatherObservation{
		Temperature:    25,
		Humidity:       60,
		WindSpeed:      10,
		Pressure:       irrigation.Float(irrigation.DefaultPressureKPa),
		SolarRadiation: irrigation.Float(18.5),
		Precipitation:  irrigation.Float(0),
	}
}

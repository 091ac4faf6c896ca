package irrigation

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPressureKPa is used when an observation carries no pressure.
const DefaultPressureKPa = 101.3

var (
	// ErrInvalidObservation is returned for missing or non-finite weather fields.
	ErrInvalidObservation = errors.New("invalid weather observation")
	// ErrInvalidParameters is returned for out-of-range agronomic parameters.
	ErrInvalidParameters = errors.New("invalid irrigation parameters")
)

// WeatherObservation is a single resolved weather reading. Wind speed is in
// km/h; the same value feeds the wind function and the high-wind rule.
type WeatherObservation struct {
	Temperature    float64  `json:"temperature"`
	Humidity       float64  `json:"humidity"`
	WindSpeed      float64  `json:"windSpeed"`
	Pressure       *float64 `json:"pressure,omitempty"`
	SolarRadiation *float64 `json:"solarRadiation,omitempty"`
	Precipitation  *float64 `json:"precipitation,omitempty"`
}

// PressureKPa returns the observed pressure or DefaultPressureKPa.
func (o WeatherObservation) PressureKPa() float64 {
	if o.Pressure == nil || *o.Pressure <= 0 {
		return DefaultPressureKPa
	}
	return *o.Pressure
}

// PrecipitationMM returns observed precipitation, 0 when absent.
func (o WeatherObservation) PrecipitationMM() float64 {
	if o.Precipitation == nil {
		return 0
	}
	return *o.Precipitation
}

// HasSolarRadiation reports whether a usable measured radiation is present.
// Zero counts as absent.
func (o WeatherObservation) HasSolarRadiation() bool {
	return o.SolarRadiation != nil && *o.SolarRadiation != 0
}

// Validate rejects non-finite values and physically impossible readings.
func (o WeatherObservation) Validate() error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"temperature", &o.Temperature},
		{"humidity", &o.Humidity},
		{"windSpeed", &o.WindSpeed},
		{"pressure", o.Pressure},
		{"solarRadiation", o.SolarRadiation},
		{"precipitation", o.Precipitation},
	}
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidObservation, f.name)
		}
	}

	switch {
	case o.Temperature <= -100 || o.Temperature >= 100:
		return fmt.Errorf("%w: temperature %.1f out of range", ErrInvalidObservation, o.Temperature)
	case o.Humidity < 0 || o.Humidity > 100:
		return fmt.Errorf("%w: humidity %.1f must be within 0-100", ErrInvalidObservation, o.Humidity)
	case o.WindSpeed < 0:
		return fmt.Errorf("%w: wind speed must not be negative", ErrInvalidObservation)
	case o.SolarRadiation != nil && *o.SolarRadiation < 0:
		return fmt.Errorf("%w: solar radiation must not be negative", ErrInvalidObservation)
	case o.Precipitation != nil && *o.Precipitation < 0:
		return fmt.Errorf("%w: precipitation must not be negative", ErrInvalidObservation)
	}
	return nil
}

// Float returns a pointer to v, for optional observation fields.
func Float(v float64) *float64 {
	return &v
}

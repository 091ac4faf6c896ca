package irrigation

import (
	"errors"
	"math"
	"testing"
)

func referenceWeather() WeatherObservation {
	return WeatherObservation{
		Temperature:    25,
		Humidity:       60,
		WindSpeed:      10,
		Pressure:       Float(101.3),
		SolarRadiation: Float(18.5),
	}
}

func TestReferenceETPlausibleRange(t *testing.T) {
	et0, err := ReferenceET(referenceWeather())
	if err != nil {
		t.Fatalf("ReferenceET: %v", err)
	}
	if et0 < 3 || et0 > 8 {
		t.Errorf("ET0 = %.3f, want within 3-8 mm/day", et0)
	}
	if math.Abs(et0-7.167) > 0.01 {
		t.Errorf("ET0 = %.4f, want ~7.167", et0)
	}
}

func TestReferenceETNeverNegative(t *testing.T) {
	radiations := []*float64{nil, Float(5), Float(30)}
	for temp := -30.0; temp <= 50; temp += 5 {
		for rh := 0.0; rh <= 100; rh += 10 {
			for wind := 0.0; wind <= 40; wind += 10 {
				for _, rs := range radiations {
					obs := WeatherObservation{Temperature: temp, Humidity: rh, WindSpeed: wind, SolarRadiation: rs}
					et0, err := ReferenceET(obs)
					if err != nil {
						t.Fatalf("ReferenceET(%+v): %v", obs, err)
					}
					if et0 < 0 || math.IsNaN(et0) {
						t.Fatalf("ReferenceET(%+v) = %v, want >= 0", obs, et0)
					}
				}
			}
		}
	}
}

func TestReferenceETDefaultPressure(t *testing.T) {
	withPressure := referenceWeather()
	withoutPressure := referenceWeather()
	withoutPressure.Pressure = nil

	a, err := ReferenceET(withPressure)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ReferenceET(withoutPressure)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("ET0 with 101.3 kPa = %v, without pressure = %v, want equal", a, b)
	}
}

func TestReferenceETRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		obs  WeatherObservation
	}{
		{"NaN temperature", WeatherObservation{Temperature: math.NaN(), Humidity: 50}},
		{"NaN humidity", WeatherObservation{Temperature: 20, Humidity: math.NaN()}},
		{"infinite wind", WeatherObservation{Temperature: 20, Humidity: 50, WindSpeed: math.Inf(1)}},
		{"humidity above 100", WeatherObservation{Temperature: 20, Humidity: 120}},
		{"negative humidity", WeatherObservation{Temperature: 20, Humidity: -1}},
		{"NaN pressure", WeatherObservation{Temperature: 20, Humidity: 50, Pressure: Float(math.NaN())}},
		{"negative radiation", WeatherObservation{Temperature: 20, Humidity: 50, SolarRadiation: Float(-3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReferenceET(tt.obs)
			if !errors.Is(err, ErrInvalidObservation) {
				t.Errorf("error = %v, want ErrInvalidObservation", err)
			}
		})
	}
}

func TestNetRadiationEstimatesMissingSolar(t *testing.T) {
	missing := NetRadiation(nil, 25, 60)
	zero := NetRadiation(Float(0), 25, 60)
	if missing != zero {
		t.Errorf("NetRadiation(nil) = %v, NetRadiation(0) = %v, want equal", missing, zero)
	}

	estimated := EstimateSolarRadiation(25, 60)
	explicit := NetRadiation(Float(estimated), 25, 60)
	if math.Abs(missing-explicit) > 1e-12 {
		t.Errorf("estimate path = %v, explicit path = %v", missing, explicit)
	}

	if got := NetRadiation(Float(18.5), 25, 60); math.Abs(got-6.182) > 0.001 {
		t.Errorf("NetRadiation(18.5, 25, 60) = %.4f, want ~6.182", got)
	}
}

func TestSaturationVaporPressure(t *testing.T) {
	if got := SaturationVaporPressure(0); math.Abs(got-0.6108) > 1e-9 {
		t.Errorf("es(0) = %v, want 0.6108", got)
	}
	if SaturationVaporPressure(30) <= SaturationVaporPressure(20) {
		t.Error("es should increase with temperature")
	}
}

package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

func testHTTPConfig(srv *httptest.Server) HTTPClientConfig {
	return HTTPClientConfig{
		Client: srv.Client(),
		Backoff: BackoffConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsedTime:  500 * time.Millisecond,
		},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

var tashkent = weather.Location{City: "Tashkent", Country: "UZ"}

func TestOpenWeatherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("q"); got != "Tashkent,UZ" {
			t.Errorf("q = %q, want Tashkent,UZ", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Errorf("units = %q, want metric", got)
		}
		w.Write([]byte(`{
			"dt": 1748746800,
			"main": {"temp": 30, "humidity": 40, "pressure": 1013},
			"wind": {"speed": 2.5},
			"clouds": {"all": 20},
			"rain": {"1h": 0.5},
			"weather": [{"main": "Clear"}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testHTTPConfig(srv), "key")
	p.baseURL = srv.URL

	r, err := p.Fetch(context.Background(), tashkent)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if r.TemperatureC != 30 || r.HumidityPct != 40 {
		t.Errorf("temp/humidity = %v/%v, want 30/40", r.TemperatureC, r.HumidityPct)
	}
	if !near(r.WindSpeedKmh, 9) {
		t.Errorf("WindSpeedKmh = %v, want 9", r.WindSpeedKmh)
	}
	if r.PressureKPa == nil || !near(*r.PressureKPa, 101.3) {
		t.Errorf("PressureKPa = %v, want 101.3", r.PressureKPa)
	}
	if r.PrecipMm != 0.5 {
		t.Errorf("PrecipMm = %v, want 0.5", r.PrecipMm)
	}
	if r.SolarRadiation == nil || !near(*r.SolarRadiation, 16.896) {
		t.Errorf("SolarRadiation = %v, want 16.896", r.SolarRadiation)
	}
	if r.Condition != weather.ConditionClear {
		t.Errorf("Condition = %s, want clear", r.Condition)
	}
	if !r.Timestamp.Equal(time.Unix(1748746800, 0)) {
		t.Errorf("Timestamp = %v", r.Timestamp)
	}
}

func TestOpenWeatherForecastGroupsByLocalDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{
			"city": {"timezone": 18000},
			"list": [
				{"dt": 1748746800, "main": {"temp": 20, "humidity": 50, "pressure": 1010}, "wind": {"speed": 2}, "weather": [{"main": "Rain"}], "rain": {"3h": 1}},
				{"dt": 1748768400, "main": {"temp": 30, "humidity": 70, "pressure": 1012}, "wind": {"speed": 4}, "weather": [{"main": "Clouds"}]},
				{"dt": 1748811600, "main": {"temp": 18, "humidity": 80, "pressure": 1008}, "wind": {"speed": 1}, "weather": [{"main": "Clear"}], "rain": {"3h": 1.5}},
				{"dt": 1748833200, "main": {"temp": 22, "humidity": 60, "pressure": 1010}, "wind": {"speed": 3}, "weather": [{"main": "Clear"}], "snow": {"3h": 0.5}}
			]
		}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testHTTPConfig(srv), "key")
	p.baseURL = srv.URL

	readings, err := p.FetchForecast(context.Background(), tashkent, 7)
	if err != nil {
		t.Fatalf("FetchForecast: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("len(readings) = %d, want 2", len(readings))
	}

	first := readings[0]
	if first.TemperatureC != 25 || first.HumidityPct != 60 {
		t.Errorf("day 1 temp/humidity = %v/%v, want 25/60", first.TemperatureC, first.HumidityPct)
	}
	if !near(first.WindSpeedKmh, 10.8) {
		t.Errorf("day 1 wind = %v, want 10.8", first.WindSpeedKmh)
	}
	if first.PressureKPa == nil || !near(*first.PressureKPa, 101.1) {
		t.Errorf("day 1 pressure = %v, want 101.1", first.PressureKPa)
	}
	if first.PrecipMm != 1 || first.Condition != weather.ConditionRain {
		t.Errorf("day 1 precip/condition = %v/%s, want 1/rain", first.PrecipMm, first.Condition)
	}
	if first.SolarRadiation == nil || !near(*first.SolarRadiation, 3.28) {
		t.Errorf("day 1 solar = %v, want 3.28", first.SolarRadiation)
	}

	// 21:00 UTC is already the next day in UTC+5.
	second := readings[1]
	if second.PrecipMm != 2 || second.TemperatureC != 20 {
		t.Errorf("day 2 precip/temp = %v/%v, want 2/20", second.PrecipMm, second.TemperatureC)
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Errorf("readings not ordered: %v then %v", first.Timestamp, second.Timestamp)
	}

	limited, err := p.FetchForecast(context.Background(), tashkent, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"current": {"temp_c": 21, "humidity": 55, "wind_kph": 18, "pressure_mb": 1000, "cloud": 0, "condition": {"text": "Sunny"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(testHTTPConfig(srv), "key")
	p.baseURL = srv.URL

	r, err := p.Fetch(context.Background(), tashkent)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
	if r.WindSpeedKmh != 18 {
		t.Errorf("WindSpeedKmh = %v, want 18 (already km/h)", r.WindSpeedKmh)
	}
	if r.PressureKPa == nil || *r.PressureKPa != 100 {
		t.Errorf("PressureKPa = %v, want 100", r.PressureKPa)
	}
	if r.Condition != weather.ConditionClear {
		t.Errorf("Condition = %s, want clear", r.Condition)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"city not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testHTTPConfig(srv), "key")
	p.baseURL = srv.URL

	_, err := p.Fetch(context.Background(), tashkent)
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("error = %v, want errUnexpected", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestMissingAPIKey(t *testing.T) {
	cfg := HTTPClientConfig{Client: http.DefaultClient}

	if _, err := NewOpenWeatherProvider(cfg, "").Fetch(context.Background(), tashkent); !errors.Is(err, errNoAPIKey) {
		t.Errorf("openweather error = %v, want errNoAPIKey", err)
	}
	if _, err := NewWeatherAPIProvider(cfg, "").FetchForecast(context.Background(), tashkent, 3); !errors.Is(err, errNoAPIKey) {
		t.Errorf("weatherapi error = %v, want errNoAPIKey", err)
	}
}

func TestWeatherAPIForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast.json" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("days"); got != "2" {
			t.Errorf("days = %q, want 2", got)
		}
		w.Write([]byte(`{"forecast": {"forecastday": [
			{"date_epoch": 1748736000, "day": {"avgtemp_c": 28, "avghumidity": 35, "maxwind_kph": 20, "totalprecip_mm": 0, "condition": {"text": "Sunny"}}},
			{"date_epoch": 1748822400, "day": {"avgtemp_c": 24, "avghumidity": 65, "maxwind_kph": 12, "totalprecip_mm": 4.2, "condition": {"text": "Moderate rain"}}}
		]}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(testHTTPConfig(srv), "key")
	p.baseURL = srv.URL

	readings, err := p.FetchForecast(context.Background(), tashkent, 2)
	if err != nil {
		t.Fatalf("FetchForecast: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("len(readings) = %d, want 2", len(readings))
	}
	if readings[1].Condition != weather.ConditionRain || readings[1].PrecipMm != 4.2 {
		t.Errorf("day 2 = %+v, want rain with 4.2mm", readings[1])
	}
	if readings[0].PressureKPa != nil {
		t.Errorf("day 1 pressure = %v, want unset", *readings[0].PressureKPa)
	}
	want := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	if !readings[0].Timestamp.Equal(want) {
		t.Errorf("day 1 timestamp = %v, want %v", readings[0].Timestamp, want)
	}
}

type countingGeocoder struct {
	calls int32
}

func (g *countingGeocoder) Locate(_ context.Context, _ weather.Location) (float64, float64, error) {
	atomic.AddInt32(&g.calls, 1)
	return 41.2995, 69.2401, nil
}

func TestOpenMeteoUsesGeocodedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "41.2995" || q.Get("longitude") != "69.2401" {
			t.Errorf("coordinates = %s,%s", q.Get("latitude"), q.Get("longitude"))
		}
		w.Write([]byte(`{
			"utc_offset_seconds": 18000,
			"current": {"time": "2025-06-01T14:00", "temperature_2m": 33, "relative_humidity_2m": 25, "wind_speed_10m": 14, "surface_pressure": 960, "precipitation": 0, "cloud_cover": 5, "weather_code": 0},
			"daily": {"shortwave_radiation_sum": [27.4]}
		}`))
	}))
	defer srv.Close()

	geo := &countingGeocoder{}
	p := NewOpenMeteoProvider(testHTTPConfig(srv), geo)
	p.baseURL = srv.URL

	for i := 0; i < 2; i++ {
		r, err := p.Fetch(context.Background(), tashkent)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if r.SolarRadiation == nil || *r.SolarRadiation != 27.4 {
			t.Errorf("SolarRadiation = %v, want measured 27.4", r.SolarRadiation)
		}
		if r.PressureKPa == nil || *r.PressureKPa != 96 {
			t.Errorf("PressureKPa = %v, want 96", r.PressureKPa)
		}
		if want := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC); !r.Timestamp.Equal(want) {
			t.Errorf("Timestamp = %v, want %v", r.Timestamp, want)
		}
	}

	if got := atomic.LoadInt32(&geo.calls); got != 1 {
		t.Errorf("geocoder calls = %d, want 1", got)
	}
}

func TestOpenMeteoWithoutCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(HTTPClientConfig{Client: http.DefaultClient}, nil)
	if _, err := p.Fetch(context.Background(), tashkent); err == nil {
		t.Error("expected error without coordinates or geocoder")
	}
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	r, err := p.Fetch(context.Background(), tashkent)
	if err != nil {
		t.Fatal(err)
	}
	if r.TemperatureC != 25 || r.HumidityPct != 60 || r.WindSpeedKmh != 10 {
		t.Errorf("reading = %+v", r)
	}
	if *r.PressureKPa != 101.3 || *r.SolarRadiation != 18.5 {
		t.Errorf("pressure/solar = %v/%v", *r.PressureKPa, *r.SolarRadiation)
	}

	days, err := p.FetchForecast(context.Background(), tashkent, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 3 || !days[1].Timestamp.Equal(days[0].Timestamp.AddDate(0, 0, 1)) {
		t.Errorf("forecast = %+v", days)
	}
}

func TestBuildFallsBackToMock(t *testing.T) {
	provs := Build(Options{HTTP: HTTPClientConfig{Client: http.DefaultClient}})
	if len(provs) != 1 || provs[0].Name() != "mock" {
		t.Fatalf("providers = %v, want [mock]", provs)
	}

	provs = Build(Options{HTTP: HTTPClientConfig{Client: http.DefaultClient}, OpenWeatherAPIKey: "a", WeatherAPIKey: "b"})
	if len(provs) != 2 {
		t.Fatalf("len(providers) = %d, want 2", len(provs))
	}
}

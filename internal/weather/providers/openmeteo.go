package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

// Geocoder resolves a location to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, loc weather.Location) (lat, lon float64, err error)
}

// GoogleGeocoder resolves cities through the Google Geocoding API.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the geocoding client with apiKey.
func NewGoogleGeocoder(apiKey string) GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return GoogleGeocoder{}
}

func (GoogleGeocoder) Locate(_ context.Context, loc weather.Location) (float64, float64, error) {
	l, err := geocoder.Geocoding(geocoder.Address{
		City:    loc.City,
		Country: loc.Country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s: %w", loc.Query(), err)
	}
	return l.Latitude, l.Longitude, nil
}

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo. It is
// the only provider reporting measured shortwave radiation.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	client   *resilientClient
	geocoder Geocoder

	mu     sync.Mutex
	coords map[string][2]float64
}

// NewOpenMeteoProvider creates the provider. Locations without coordinates
// are resolved through geo, which may be nil when callers always pass
// coordinates.
func NewOpenMeteoProvider(cfg HTTPClientConfig, geo Geocoder) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		client:   newResilientClient("openmeteo", cfg),
		geocoder: geo,
		coords:   make(map[string][2]float64),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) locate(ctx context.Context, loc weather.Location) (float64, float64, error) {
	if loc.Lat != nil && loc.Lon != nil {
		return *loc.Lat, *loc.Lon, nil
	}
	if p.geocoder == nil {
		return 0, 0, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	p.mu.Lock()
	c, ok := p.coords[loc.Key()]
	p.mu.Unlock()
	if ok {
		return c[0], c[1], nil
	}

	lat, lon, err := p.geocoder.Locate(ctx, loc)
	if err != nil {
		return 0, 0, err
	}

	p.mu.Lock()
	p.coords[loc.Key()] = [2]float64{lat, lon}
	p.mu.Unlock()
	return lat, lon, nil
}

func (p *OpenMeteoProvider) url(lat, lon float64, values url.Values) string {
	values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	values.Set("timezone", "auto")
	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	lat, lon, err := p.locate(ctx, loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	values := url.Values{}
	values.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,surface_pressure,precipitation,cloud_cover,weather_code")
	values.Set("daily", "shortwave_radiation_sum")
	values.Set("forecast_days", "1")

	var payload struct {
		Current struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			Pressure    float64 `json:"surface_pressure"`
			Precip      float64 `json:"precipitation"`
			CloudCover  float64 `json:"cloud_cover"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
		Daily struct {
			Radiation []*float64 `json:"shortwave_radiation_sum"`
		} `json:"daily"`
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
	}

	if err := p.client.getJSON(ctx, "current", p.url(lat, lon, values), &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	cur := payload.Current
	zone := time.FixedZone("local", payload.UTCOffsetSeconds)
	ts, err := time.ParseInLocation("2006-01-02T15:04", cur.Time, zone)
	if err != nil {
		ts = time.Now()
	}

	solar := ptr(weather.EstimateSolarRadiation(cur.Temperature, cur.Humidity, cur.CloudCover))
	if len(payload.Daily.Radiation) > 0 && payload.Daily.Radiation[0] != nil {
		solar = payload.Daily.Radiation[0]
	}

	return weather.ProviderReading{
		ProviderName:   p.name,
		Timestamp:      ts.UTC(),
		TemperatureC:   cur.Temperature,
		HumidityPct:    cur.Humidity,
		WindSpeedKmh:   cur.WindSpeed,
		PressureKPa:    hpaToKPa(cur.Pressure),
		PrecipMm:       cur.Precip,
		SolarRadiation: solar,
		Cloudiness:     ptr(cur.CloudCover),
		Condition:      mapOpenMeteoCondition(cur.WeatherCode),
	}, nil
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	lat, lon, err := p.locate(ctx, loc)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("daily", "temperature_2m_mean,relative_humidity_2m_mean,wind_speed_10m_max,surface_pressure_mean,precipitation_sum,shortwave_radiation_sum,cloud_cover_mean,weather_code")
	values.Set("forecast_days", strconv.Itoa(days))

	var payload struct {
		Daily struct {
			Time        []string   `json:"time"`
			Temperature []float64  `json:"temperature_2m_mean"`
			Humidity    []float64  `json:"relative_humidity_2m_mean"`
			WindSpeed   []float64  `json:"wind_speed_10m_max"`
			Pressure    []float64  `json:"surface_pressure_mean"`
			Precip      []float64  `json:"precipitation_sum"`
			Radiation   []*float64 `json:"shortwave_radiation_sum"`
			CloudCover  []float64  `json:"cloud_cover_mean"`
			WeatherCode []int      `json:"weather_code"`
		} `json:"daily"`
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
	}

	if err := p.client.getJSON(ctx, "forecast", p.url(lat, lon, values), &payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	zone := time.FixedZone("local", payload.UTCOffsetSeconds)
	at := func(xs []float64, i int) float64 {
		if i < len(xs) {
			return xs[i]
		}
		return 0
	}

	readings := make([]weather.ProviderReading, 0, len(d.Time))
	for i, day := range d.Time {
		if len(readings) >= days {
			break
		}
		date, err := time.ParseInLocation("2006-01-02", day, zone)
		if err != nil {
			return nil, fmt.Errorf("openmeteo: parse day %q: %w", day, err)
		}

		code := 0
		if i < len(d.WeatherCode) {
			code = d.WeatherCode[i]
		}
		temp, humidity, clouds := at(d.Temperature, i), at(d.Humidity, i), at(d.CloudCover, i)

		solar := ptr(weather.EstimateSolarRadiation(temp, humidity, clouds))
		if i < len(d.Radiation) && d.Radiation[i] != nil {
			solar = d.Radiation[i]
		}

		readings = append(readings, weather.ProviderReading{
			ProviderName:   p.name,
			Timestamp:      date.Add(12 * time.Hour).UTC(),
			TemperatureC:   temp,
			HumidityPct:    humidity,
			WindSpeedKmh:   at(d.WindSpeed, i),
			PressureKPa:    hpaToKPa(at(d.Pressure, i)),
			PrecipMm:       at(d.Precip, i),
			SolarRadiation: solar,
			Cloudiness:     ptr(clouds),
			Condition:      mapOpenMeteoCondition(code),
		})
	}
	return readings, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// WMO weather interpretation codes.
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}

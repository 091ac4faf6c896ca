package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

// WeatherAPIProvider implements weather.ForecastProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *resilientClient
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		client:  newResilientClient("weatherapi", cfg),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) url(path string, loc weather.Location, extra url.Values) string {
	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI takes "city,country" or "lat,lon" in q.
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("q", fmt.Sprintf("%f,%f", *loc.Lat, *loc.Lon))
	} else {
		values.Set("q", loc.Query())
	}
	for k, v := range extra {
		values[k] = v
	}
	return fmt.Sprintf("%s/%s?%s", p.baseURL, path, values.Encode())
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("weatherapi: %w", errNoAPIKey)
	}

	var payload struct {
		Current struct {
			LastUpdatedEpoch int64               `json:"last_updated_epoch"`
			TempC            float64             `json:"temp_c"`
			Humidity         float64             `json:"humidity"`
			WindKph          float64             `json:"wind_kph"`
			PressureMb       float64             `json:"pressure_mb"`
			PrecipMm         float64             `json:"precip_mm"`
			Cloud            float64             `json:"cloud"`
			Condition        weatherAPICondition `json:"condition"`
		} `json:"current"`
	}

	if err := p.client.getJSON(ctx, "current", p.url("current.json", loc, nil), &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	cur := payload.Current
	ts := time.Now().UTC()
	if cur.LastUpdatedEpoch > 0 {
		ts = time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	}

	return weather.ProviderReading{
		ProviderName:   p.name,
		Timestamp:      ts,
		TemperatureC:   cur.TempC,
		HumidityPct:    cur.Humidity,
		WindSpeedKmh:   cur.WindKph,
		PressureKPa:    hpaToKPa(cur.PressureMb),
		PrecipMm:       cur.PrecipMm,
		SolarRadiation: ptr(weather.EstimateSolarRadiation(cur.TempC, cur.Humidity, cur.Cloud)),
		Cloudiness:     ptr(cur.Cloud),
		Condition:      weather.ConditionFromText(cur.Condition.Text),
	}, nil
}

// FetchForecast reads the daily summaries of the forecast endpoint. The
// daily block carries no pressure, so readings leave it unset.
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi: %w", errNoAPIKey)
	}

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					AvgTempC    float64             `json:"avgtemp_c"`
					AvgHumidity float64             `json:"avghumidity"`
					MaxWindKph  float64             `json:"maxwind_kph"`
					TotalPrecip float64             `json:"totalprecip_mm"`
					Condition   weatherAPICondition `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	extra := url.Values{"days": {strconv.Itoa(days)}}
	if err := p.client.getJSON(ctx, "forecast", p.url("forecast.json", loc, extra), &payload); err != nil {
		return nil, err
	}

	readings := make([]weather.ProviderReading, 0, len(payload.Forecast.ForecastDay))
	for _, fd := range payload.Forecast.ForecastDay {
		if len(readings) >= days {
			break
		}
		d := fd.Day
		cond := weather.ConditionFromText(d.Condition.Text)
		clouds := weather.CloudinessForCondition(cond)
		// date_epoch is midnight UTC of the forecast date; shift to noon.
		day := time.Unix(fd.DateEpoch, 0).UTC().Add(12 * time.Hour)

		readings = append(readings, weather.ProviderReading{
			ProviderName:   p.name,
			Timestamp:      day,
			TemperatureC:   d.AvgTempC,
			HumidityPct:    d.AvgHumidity,
			WindSpeedKmh:   d.MaxWindKph,
			PrecipMm:       d.TotalPrecip,
			SolarRadiation: ptr(weather.EstimateSolarRadiation(d.AvgTempC, d.AvgHumidity, clouds)),
			Cloudiness:     ptr(clouds),
			Condition:      cond,
		})
	}
	return readings, nil
}

package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

// OpenWeatherProvider implements weather.ForecastProvider for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *resilientClient
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5",
		client:  newResilientClient("openweathermap", cfg),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	Main string `json:"main"`
}

type owmMain struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
	Pressure float64 `json:"pressure"`
}

type owmPrecip struct {
	OneH   float64 `json:"1h"`
	ThreeH float64 `json:"3h"`
}

func (p *OpenWeatherProvider) url(path string, loc weather.Location) string {
	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("lat", fmt.Sprintf("%f", *loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", *loc.Lon))
	} else {
		values.Set("q", loc.Query())
	}
	return fmt.Sprintf("%s/%s?%s", p.baseURL, path, values.Encode())
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("openweather: %w", errNoAPIKey)
	}

	var payload struct {
		Dt   int64   `json:"dt"`
		Main owmMain `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Rain    owmPrecip      `json:"rain"`
		Snow    owmPrecip      `json:"snow"`
		Weather []owmCondition `json:"weather"`
	}

	if err := p.client.getJSON(ctx, "current", p.url("weather", loc), &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	clouds := payload.Clouds.All

	return weather.ProviderReading{
		ProviderName:   p.name,
		Timestamp:      ts,
		TemperatureC:   payload.Main.Temp,
		HumidityPct:    payload.Main.Humidity,
		WindSpeedKmh:   msToKmh(payload.Wind.Speed),
		PressureKPa:    hpaToKPa(payload.Main.Pressure),
		PrecipMm:       payload.Rain.OneH + payload.Snow.OneH,
		SolarRadiation: ptr(weather.EstimateSolarRadiation(payload.Main.Temp, payload.Main.Humidity, clouds)),
		Cloudiness:     ptr(clouds),
		Condition:      mapOpenWeatherCondition(payload.Weather),
	}, nil
}

// FetchForecast reads the 5 day / 3 hour forecast and folds it into one
// reading per local day: means for temperature, humidity, wind and pressure,
// a sum for precipitation and the first slot's condition.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w", errNoAPIKey)
	}

	var payload struct {
		City struct {
			Timezone int `json:"timezone"`
		} `json:"city"`
		List []struct {
			Dt   int64   `json:"dt"`
			Main owmMain `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Rain    owmPrecip      `json:"rain"`
			Snow    owmPrecip      `json:"snow"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}

	if err := p.client.getJSON(ctx, "forecast", p.url("forecast", loc), &payload); err != nil {
		return nil, err
	}

	zone := time.FixedZone("city", payload.City.Timezone)

	type bucket struct {
		day                        time.Time
		temp, humidity, wind, pres float64
		precip                     float64
		n                          int
		cond                       weather.Condition
	}
	buckets := make(map[string]*bucket)

	for _, item := range payload.List {
		local := time.Unix(item.Dt, 0).In(zone)
		key := local.Format("2006-01-02")

		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				// Noon keeps the day stable when re-bucketed in another zone.
				day:  time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, zone),
				cond: mapOpenWeatherCondition(item.Weather),
			}
			buckets[key] = b
		}
		b.temp += item.Main.Temp
		b.humidity += item.Main.Humidity
		b.wind += item.Wind.Speed
		b.pres += item.Main.Pressure
		b.precip += item.Rain.ThreeH + item.Snow.ThreeH
		b.n++
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > days {
		keys = keys[:days]
	}

	readings := make([]weather.ProviderReading, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		n := float64(b.n)
		temp, humidity := b.temp/n, b.humidity/n
		clouds := weather.CloudinessForCondition(b.cond)

		readings = append(readings, weather.ProviderReading{
			ProviderName:   p.name,
			Timestamp:      b.day.UTC(),
			TemperatureC:   temp,
			HumidityPct:    humidity,
			WindSpeedKmh:   msToKmh(b.wind / n),
			PressureKPa:    hpaToKPa(b.pres / n),
			PrecipMm:       b.precip,
			SolarRadiation: ptr(weather.EstimateSolarRadiation(temp, humidity, clouds)),
			Cloudiness:     ptr(clouds),
			Condition:      b.cond,
		})
	}
	return readings, nil
}

func mapOpenWeatherCondition(items []owmCondition) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}

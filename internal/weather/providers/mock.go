package providers

import (
	"context"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

// MockProvider serves fixed readings. It stands in for the real providers
// when no API key is configured.
type MockProvider struct {
	now func() time.Time
}

func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now}
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) reading(ts time.Time) weather.ProviderReading {
	return weather.ProviderReading{
		ProviderName:   p.Name(),
		Timestamp:      ts.UTC(),
		TemperatureC:   25,
		HumidityPct:    60,
		WindSpeedKmh:   10,
		PressureKPa:    ptr(101.3),
		SolarRadiation: ptr(18.5),
		Cloudiness:     ptr(30),
		Condition:      weather.ConditionCloudy,
	}
}

func (p *MockProvider) Fetch(ctx context.Context, _ weather.Location) (weather.ProviderReading, error) {
	if err := ctx.Err(); err != nil {
		return weather.ProviderReading{}, err
	}
	return p.reading(p.now()), nil
}

func (p *MockProvider) FetchForecast(ctx context.Context, _ weather.Location, days int) ([]weather.ProviderReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := p.now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour)
	readings := make([]weather.ProviderReading, 0, days)
	for i := 0; i < days; i++ {
		readings = append(readings, p.reading(start.AddDate(0, 0, i)))
	}
	return readings, nil
}

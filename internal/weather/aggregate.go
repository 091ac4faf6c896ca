package weather

import "time"

// AggregateReadings combines multiple provider readings into a single Snapshot.
// Numeric fields are averaged over the readings that report them; the
// condition is selected by majority, ties going to the earliest reading.
func AggregateReadings(loc Location, readings []ProviderReading) Snapshot {
	if len(readings) == 0 {
		return Snapshot{
			Location:  loc,
			Timestamp: time.Now().UTC(),
			Condition: ConditionUnknown,
		}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPrecip   float64

		pressure mean
		solar    mean
		clouds   mean
	)

	conditionCounts := make(map[Condition]int)
	providers := make([]ProviderContribution, 0, len(readings))
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedKmh
		sumPrecip += r.PrecipMm
		pressure.add(r.PressureKPa)
		solar.add(r.SolarRadiation)
		clouds.add(r.Cloudiness)

		conditionCounts[r.Condition]++

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
	}

	n := float64(len(readings))

	bestCond := ConditionUnknown
	bestCount := 0
	for _, r := range readings {
		if count := conditionCounts[r.Condition]; count > bestCount {
			bestCount = count
			bestCond = r.Condition
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	return Snapshot{
		Location:       loc,
		Timestamp:      newestTS.UTC(),
		Temperature:    sumTemp / n,
		Humidity:       sumHumidity / n,
		WindSpeed:      sumWind / n,
		Pressure:       pressure.value(),
		Precipitation:  sumPrecip / n,
		SolarRadiation: solar.value(),
		Cloudiness:     clouds.value(),
		Condition:      bestCond,
		Providers:      providers,
	}
}

// mean averages optional values, ignoring the ones that are absent.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

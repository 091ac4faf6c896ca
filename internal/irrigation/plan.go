package irrigation

import (
	"math"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/common"
)

// DailyWeather is one forecast day fed to Plan. Precipitation on the
// observation is used as that day's recent rainfall.
type DailyWeather struct {
	Date    time.Time
	Weather WeatherObservation
}

// PlanDay is the recommendation for a single forecast day.
type PlanDay struct {
	Date              time.Time      `json:"date"`
	DaysSincePlanting int            `json:"daysSincePlanting"`
	SoilMoisture      float64        `json:"soilMoisture"`
	Recommendation    Recommendation `json:"recommendation"`
}

// Plan runs Recommend over consecutive forecast days. Each day starts from the
// previous day's moisture after ET. When the previous verdict was irrigate,
// the applied water is added back, capped at field capacity.
func (e *Engine) Plan(p Parameters, days []DailyWeather) ([]PlanDay, error) {
	p = p.withDefaults()
	out := make([]PlanDay, 0, len(days))

	for _, day := range days {
		p.Weather = day.Weather
		p.RecentRainfall = day.Weather.PrecipitationMM()

		rec, err := e.Recommend(p)
		if err != nil {
			return nil, err
		}
		out = append(out, PlanDay{
			Date:              day.Date,
			DaysSincePlanting: p.DaysSincePlanting,
			SoilMoisture:      p.SoilMoisture,
			Recommendation:    rec,
		})

		wb := rec.Calculations.WaterBalance
		applied := rec.AmountMM * p.IrrigationEfficiency / 10
		next := wb.MoistureAfterET
		if rec.Verdict == VerdictIrrigate {
			next = math.Min(wb.FieldCapacity, next+applied)
		}
		p.SoilMoisture = common.Clamp(next, 0, 100)
		p.DaysSincePlanting++
	}
	return out, nil
}

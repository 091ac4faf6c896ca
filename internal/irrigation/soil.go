package irrigation

import (
	"math"

	"github.com/i474232898/irrigation-advisor/internal/refdata"
)

// WaterBalance is the soil water state for one evaluation. All moisture
// values are percentages; WaterDeficit is in mm.
//
// CurrentAvailableWaterPercent is not capped: values above 100 mean the soil
// holds more water than field capacity.
type WaterBalance struct {
	CurrentMoisture              float64 `json:"currentMoisture"`
	AvailableWaterCapacity       float64 `json:"availableWaterCapacity"`
	CurrentAvailableWater        float64 `json:"currentAvailableWater"`
	CurrentAvailableWaterPercent float64 `json:"currentAvailableWaterPercent"`
	WaterDeficit                 float64 `json:"waterDeficit"`
	MoistureAfterRainfall        float64 `json:"soilWaterAfterRainfall"`
	MoistureAfterET              float64 `json:"soilWaterAfterET"`
	WiltingPoint                 float64 `json:"wiltingPoint"`
	FieldCapacity                float64 `json:"fieldCapacity"`
}

// soilProfile resolves a soil, falling back to loamy.
func (e *Engine) soilProfile(soilType string) (refdata.SoilProfile, Resolution) {
	if soil, ok := e.lookup.Soil(soilType); ok {
		return soil, Resolved
	}
	if soil, ok := e.lookup.Soil(fallbackSoil); ok {
		return soil, FallbackUnknownSoil
	}
	return builtinLoamy, FallbackUnknownSoil
}

// WaterBalance computes available water and the projected moisture after
// rainfall and crop ET. moisturePercent is volumetric moisture in percent.
func (e *Engine) WaterBalance(soilType string, moisturePercent, cropET, rainfall float64) WaterBalance {
	wb, _ := e.waterBalance(soilType, moisturePercent, cropET, rainfall)
	return wb
}

func (e *Engine) waterBalance(soilType string, moisturePercent, cropET, rainfall float64) (WaterBalance, Resolution) {
	soil, res := e.soilProfile(soilType)
	moisture := moisturePercent / 100

	awc := soil.AvailableWaterCapacity()
	available := math.Max(0, moisture-soil.WiltingPoint)

	var availablePercent float64
	if awc > 0 {
		availablePercent = available / awc * 100
	}

	afterRain := math.Min(soil.FieldCapacity, moisture+rainfall/100)
	afterET := math.Max(soil.WiltingPoint, afterRain-cropET/100)

	return WaterBalance{
		CurrentMoisture:              moisture * 100,
		AvailableWaterCapacity:       awc * 100,
		CurrentAvailableWater:        available * 100,
		CurrentAvailableWaterPercent: availablePercent,
		WaterDeficit:                 math.Max(0, cropET-rainfall),
		MoistureAfterRainfall:        afterRain * 100,
		MoistureAfterET:              afterET * 100,
		WiltingPoint:                 soil.WiltingPoint * 100,
		FieldCapacity:                soil.FieldCapacity * 100,
	}, res
}

package irrigation

import "github.com/i474232898/irrigation-advisor/internal/refdata"

// GrowthStage maps days since planting to a growth stage. The first stage
// whose cumulative boundary is >= days wins; days past every boundary resolve
// to the terminal stage. Unknown crops resolve to "mid".
func (e *Engine) GrowthStage(cropType string, daysSincePlanting int) (refdata.Stage, Resolution) {
	crop, ok := e.lookup.Crop(cropType)
	if !ok || len(crop.Stages) == 0 {
		return fallbackStage, FallbackUnknownCrop
	}

	cumulative := 0
	for _, s := range crop.Stages {
		cumulative += s.Duration
		if daysSincePlanting <= cumulative {
			return s.Name, Resolved
		}
	}
	return crop.Stages[len(crop.Stages)-1].Name, Resolved
}

// CropCoefficient returns Kc for a crop at a stage. Unknown crops get 1.0 and
// unknown stages get the crop's mid coefficient.
func (e *Engine) CropCoefficient(cropType string, stage refdata.Stage) (float64, Resolution) {
	crop, ok := e.lookup.Crop(cropType)
	if !ok {
		return fallbackKc, FallbackUnknownCrop
	}
	if s, ok := crop.Stage(stage); ok {
		return s.Kc, Resolved
	}
	if mid, ok := crop.Stage(refdata.StageMid); ok {
		return mid.Kc, FallbackUnknownStage
	}
	return fallbackKc, FallbackUnknownStage
}

// CropET returns crop evapotranspiration (mm/day) as ET0 × Kc.
func (e *Engine) CropET(et0 float64, cropType string, daysSincePlanting int) float64 {
	stage, _ := e.GrowthStage(cropType, daysSincePlanting)
	kc, _ := e.CropCoefficient(cropType, stage)
	return et0 * kc
}

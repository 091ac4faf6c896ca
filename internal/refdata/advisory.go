package refdata

import (
	"fmt"
	"math"
)

const (
	unknownSuitability = "Unknown"
	notFoundText       = "Crop not found in database"
)

// CropInfo is the summary served for a single crop.
type CropInfo struct {
	Name         string            `json:"name"`
	Coefficients map[Stage]float64 `json:"coefficients"`
	Stages       map[Stage]int     `json:"stages"`
	Description  string            `json:"description"`
	Found        bool              `json:"found"`
}

// CropInfo returns coefficients and durations keyed by stage. Unknown crops
// get a placeholder with a single mid stage.
func (c *Catalog) CropInfo(id string) CropInfo {
	crop, ok := c.Crop(id)
	if !ok {
		return CropInfo{
			Name:         id,
			Coefficients: map[Stage]float64{StageMid: 1.0},
			Stages:       map[Stage]int{StageMid: 60},
			Description:  notFoundText,
		}
	}
	info := CropInfo{
		Name:         crop.ID,
		Coefficients: make(map[Stage]float64, len(crop.Stages)),
		Stages:       make(map[Stage]int, len(crop.Stages)),
		Description:  crop.Description,
		Found:        true,
	}
	for _, s := range crop.Stages {
		info.Coefficients[s.Name] = s.Kc
		info.Stages[s.Name] = s.Duration
	}
	return info
}

func (c *Catalog) WaterRequirements(cropID string) (*WaterRequirements, bool) {
	crop, ok := c.Crop(cropID)
	if !ok || crop.WaterRequirements == nil {
		return nil, false
	}
	return crop.WaterRequirements, true
}

func (c *Catalog) GrowingSeason(cropID string) ([]Season, bool) {
	crop, ok := c.Crop(cropID)
	if !ok || len(crop.GrowingSeason) == 0 {
		return nil, false
	}
	return crop.GrowingSeason, true
}

// OptimalPlantingDates maps season name to planting window.
func (c *Catalog) OptimalPlantingDates(cropID string) map[string]string {
	seasons, ok := c.GrowingSeason(cropID)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(seasons))
	for _, s := range seasons {
		out[s.Name] = s.Planting
	}
	return out
}

func (c *Catalog) CriticalPeriods(cropID string) []CriticalPeriod {
	req, ok := c.WaterRequirements(cropID)
	if !ok {
		return nil
	}
	return req.CriticalPeriods
}

// Suitability rates how well a soil suits a crop, or "Unknown".
func (c *Catalog) Suitability(cropID, soilID string) string {
	soil, ok := c.Soil(soilID)
	if !ok {
		return unknownSuitability
	}
	if rating, ok := soil.Suitability[normalize(cropID)]; ok {
		return rating
	}
	return unknownSuitability
}

func (c *Catalog) SoilAdjustment(cropID, soilID string) (SoilAdjustment, bool) {
	crop, ok := c.Crop(cropID)
	if !ok {
		return SoilAdjustment{}, false
	}
	adj, ok := crop.SoilAdjustments[normalize(soilID)]
	return adj, ok
}

// AdjustedWaterRequirement scales base by the soil's water retention factor.
func (c *Catalog) AdjustedWaterRequirement(cropID, soilID string, base float64) float64 {
	adj, ok := c.SoilAdjustment(cropID, soilID)
	if !ok {
		return base
	}
	return base * adj.WaterRetention
}

// Advisory is a crop/soil management hint. It is independent of the
// day-to-day irrigation verdict.
type Advisory struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// Advisories returns management hints for growing cropID on soilID.
func (c *Catalog) Advisories(cropID, soilID string) []Advisory {
	var out []Advisory
	cropID, soilID = normalize(cropID), normalize(soilID)

	if adj, ok := c.SoilAdjustment(cropID, soilID); ok {
		if adj.WaterRetention > 0 && adj.WaterRetention < 0.8 {
			out = append(out, Advisory{
				Type:     "irrigation",
				Priority: "high",
				Message: fmt.Sprintf("Increase irrigation frequency by %d%% due to low water retention",
					int(math.Round((1/adj.WaterRetention-1)*100))),
			})
		}
		if adj.Drainage == "Poor" {
			out = append(out, Advisory{
				Type:     "drainage",
				Priority: "high",
				Message:  "Implement drainage system to prevent waterlogging",
			})
		}
		if adj.IrrigationFrequency > 1.2 {
			out = append(out, Advisory{
				Type:     "efficiency",
				Priority: "medium",
				Message:  "Consider drip irrigation for better water efficiency",
			})
		}
	}

	if cropID == "rice" && soilID != "clay" {
		out = append(out, Advisory{
			Type:     "soil",
			Priority: "high",
			Message:  "Rice requires clay soil or soil with clay layer for proper water retention",
		})
	}
	if cropID == "cotton" && soilID == "sandy" {
		out = append(out, Advisory{
			Type:     "fertilization",
			Priority: "medium",
			Message:  "Use split fertilizer applications due to sandy soil leaching",
		})
	}
	return out
}

type SoilSummary struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Suitability string `json:"suitability"`
}

type SeasonalWater struct {
	Base     float64 `json:"base"`
	Adjusted float64 `json:"adjusted"`
	ForArea  float64 `json:"forArea"`
	Unit     string  `json:"unit"`
}

// CropPlan is the aggregated crop recommendation for a soil and area.
type CropPlan struct {
	Crop               CropProfile         `json:"crop"`
	Soil               SoilSummary         `json:"soil"`
	GrowingSeason      []Season            `json:"growingSeason"`
	WaterRequirements  SeasonalWater       `json:"waterRequirements"`
	SoilAdjustment     *SoilAdjustment     `json:"soilAdjustment"`
	CriticalPeriods    []CriticalPeriod    `json:"criticalPeriods"`
	IrrigationSchedule *IrrigationSchedule `json:"irrigationSchedule"`
	YieldFactors       *YieldFactors       `json:"yieldFactors"`
	Recommendations    []Advisory          `json:"recommendations"`
}

// CropRecommendation builds a seasonal plan. It reports false for unknown crops.
func (c *Catalog) CropRecommendation(cropID, soilID string, area float64) (CropPlan, bool) {
	crop, ok := c.Crop(cropID)
	if !ok {
		return CropPlan{}, false
	}

	plan := CropPlan{
		Crop: crop,
		Soil: SoilSummary{
			Type:        soilID,
			Name:        "Unknown",
			Suitability: c.Suitability(cropID, soilID),
		},
		GrowingSeason:      crop.GrowingSeason,
		CriticalPeriods:    c.CriticalPeriods(cropID),
		IrrigationSchedule: crop.IrrigationSchedule,
		YieldFactors:       crop.YieldFactors,
		Recommendations:    c.Advisories(cropID, soilID),
	}
	if soil, ok := c.Soil(soilID); ok {
		plan.Soil.Name = soil.Name
	}

	plan.WaterRequirements.Unit = "mm/ha"
	if req := crop.WaterRequirements; req != nil {
		plan.WaterRequirements.Base = req.TotalSeasonal
		plan.WaterRequirements.Unit = req.Unit
	}
	plan.WaterRequirements.Adjusted = c.AdjustedWaterRequirement(cropID, soilID, plan.WaterRequirements.Base)
	plan.WaterRequirements.ForArea = plan.WaterRequirements.Adjusted * area

	if adj, ok := c.SoilAdjustment(cropID, soilID); ok {
		plan.SoilAdjustment = &adj
	}
	return plan, true
}

package farm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Period is the look-back window of a savings report.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Environmental conversion factors per liter of water saved.
const (
	co2KgPerLiter        = 0.0004
	energyKWhPerLiter    = 0.001
	householdLitersDaily = 150.0
)

// ParsePeriod maps a query value onto a Period; anything unrecognized is monthly.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodWeekly:
		return PeriodWeekly
	case PeriodYearly:
		return PeriodYearly
	default:
		return PeriodMonthly
	}
}

// Days is the window length.
func (p Period) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodYearly:
		return 365
	default:
		return 30
	}
}

type SystemUsage struct {
	WaterUsed  int64   `json:"waterUsed"`
	Cost       float64 `json:"cost"`
	Efficiency float64 `json:"efficiency"`
}

type WaterSavings struct {
	WaterSaved      int64   `json:"waterSaved"`
	CostSaved       float64 `json:"costSaved"`
	EfficiencyGain  float64 `json:"efficiencyGain"`
	PercentageSaved float64 `json:"percentageSaved"`
}

type EnvironmentalImpact struct {
	CO2Saved             float64 `json:"co2Saved"`
	EnergySaved          float64 `json:"energySaved"`
	HouseholdsEquivalent int64   `json:"householdsEquivalent"`
}

type Projection struct {
	WaterSaved int64   `json:"waterSaved"`
	CostSaved  float64 `json:"costSaved"`
}

// SavingsReport compares logged water use against what a traditional
// system of the farm's baseline efficiency would have needed.
type SavingsReport struct {
	FarmID              string              `json:"farmId"`
	FarmName            string              `json:"farmName"`
	Period              Period              `json:"period"`
	CurrentSystem       SystemUsage         `json:"currentSystem"`
	TraditionalSystem   SystemUsage         `json:"traditionalSystem"`
	Savings             WaterSavings        `json:"savings"`
	EnvironmentalImpact EnvironmentalImpact `json:"environmentalImpact"`
	Projections         struct {
		Monthly Projection `json:"monthly"`
		Yearly  Projection `json:"yearly"`
	} `json:"projections"`
	Timestamp time.Time `json:"timestamp"`
}

// Savings builds the report for one farm over period.
//
// Delivering the same net water at the traditional efficiency takes
// actual × current/traditional liters.
func (s *Service) Savings(ctx context.Context, farmID string, period Period) (SavingsReport, error) {
	f, err := s.repo.GetFarm(ctx, farmID)
	if err != nil {
		return SavingsReport{}, err
	}

	now := s.now().UTC()
	days := period.Days()
	since := now.AddDate(0, 0, -days)

	actual, err := s.repo.WaterUsedSince(ctx, farmID, since)
	if err != nil {
		return SavingsReport{}, fmt.Errorf("water used: %w", err)
	}

	traditional := actual
	if f.TraditionalEfficiency > 0 {
		traditional = actual * f.CurrentEfficiency / f.TraditionalEfficiency
	}
	saved := traditional - actual
	actualCost := actual * f.WaterCostPerLiter
	traditionalCost := traditional * f.WaterCostPerLiter
	costSaved := traditionalCost - actualCost

	var pct float64
	if traditional > 0 {
		pct = math.Round(saved / traditional * 100)
	}

	r := SavingsReport{
		FarmID:   f.ID,
		FarmName: f.Name,
		Period:   period,
		CurrentSystem: SystemUsage{
			WaterUsed:  int64(math.Round(actual)),
			Cost:       round2(actualCost),
			Efficiency: f.CurrentEfficiency,
		},
		TraditionalSystem: SystemUsage{
			WaterUsed:  int64(math.Round(traditional)),
			Cost:       round2(traditionalCost),
			Efficiency: f.TraditionalEfficiency,
		},
		Savings: WaterSavings{
			WaterSaved:      int64(math.Round(saved)),
			CostSaved:       round2(costSaved),
			EfficiencyGain:  math.Round(f.CurrentEfficiency - f.TraditionalEfficiency),
			PercentageSaved: pct,
		},
		EnvironmentalImpact: EnvironmentalImpact{
			CO2Saved:             round2(saved * co2KgPerLiter),
			EnergySaved:          round2(saved * energyKWhPerLiter),
			HouseholdsEquivalent: int64(math.Round(saved / householdLitersDaily)),
		},
		Timestamp: now,
	}

	perDay := 1 / float64(days)
	r.Projections.Monthly = Projection{
		WaterSaved: int64(math.Round(saved * 30 * perDay)),
		CostSaved:  round2(costSaved * 30 * perDay),
	}
	r.Projections.Yearly = Projection{
		WaterSaved: int64(math.Round(saved * 365 * perDay)),
		CostSaved:  round2(costSaved * 365 * perDay),
	}
	return r, nil
}

package irrigation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/irrigation-advisor/internal/refdata"
)

// Verdict is the irrigation decision. It only ever takes one of three values.
type Verdict string

const (
	VerdictIrrigate     Verdict = "irrigate"
	VerdictMaybe        Verdict = "maybe"
	VerdictDontIrrigate Verdict = "dont-irrigate"
)

// DefaultEfficiency is the irrigation efficiency assumed when none is given.
const DefaultEfficiency = 0.85

// Thresholds are percentages of available water capacity.
const (
	criticalMoistureLevel = 30.0
	optimalMoistureLevel  = 70.0

	deficitTriggerMM   = 2.0
	maxDailyAmountMM   = 15.0
	maxReducedAmountMM = 8.0

	rainfallThresholdMM = 5.0
	windThresholdKmh    = 15.0
	humidityThreshold   = 80.0

	hotTemperature  = 30.0
	coolTemperature = 15.0
)

// Parameters are the per-call inputs of Recommend. Area is in hectares and
// must be set; IrrigationEfficiency defaults to DefaultEfficiency when zero.
type Parameters struct {
	CropType             string             `json:"cropType"`
	SoilType             string             `json:"soilType"`
	DaysSincePlanting    int                `json:"daysSincePlanting"`
	Area                 float64            `json:"area"`
	RecentRainfall       float64            `json:"recentRainfall"`
	SoilMoisture         float64            `json:"soilMoisture"`
	IrrigationEfficiency float64            `json:"irrigationEfficiency"`
	Weather              WeatherObservation `json:"weatherData"`
}

func (p Parameters) withDefaults() Parameters {
	if p.IrrigationEfficiency == 0 {
		p.IrrigationEfficiency = DefaultEfficiency
	}
	return p
}

// Validate checks parameter ranges. Area must be positive; there is no
// default field size. A zero efficiency is replaced by DefaultEfficiency
// before validation in Recommend.
func (p Parameters) Validate() error {
	switch {
	case p.DaysSincePlanting < 0:
		return fmt.Errorf("%w: days since planting must not be negative", ErrInvalidParameters)
	case !(p.Area > 0) || math.IsInf(p.Area, 0):
		return fmt.Errorf("%w: area must be positive", ErrInvalidParameters)
	case !(p.RecentRainfall >= 0) || math.IsInf(p.RecentRainfall, 0):
		return fmt.Errorf("%w: recent rainfall must not be negative", ErrInvalidParameters)
	case !(p.SoilMoisture >= 0 && p.SoilMoisture <= 100):
		return fmt.Errorf("%w: soil moisture must be within 0-100", ErrInvalidParameters)
	case !(p.IrrigationEfficiency > 0 && p.IrrigationEfficiency <= 1):
		return fmt.Errorf("%w: irrigation efficiency must be within (0, 1]", ErrInvalidParameters)
	}
	return p.Weather.Validate()
}

// Calculations is the trace of intermediate values behind a recommendation.
type Calculations struct {
	ET0                  float64       `json:"ET0"`
	CropET               float64       `json:"cropET"`
	GrowthStage          refdata.Stage `json:"growthStage"`
	CropCoefficient      float64       `json:"cropCoefficient"`
	WaterBalance         WaterBalance  `json:"waterBalance"`
	RecentRainfall       float64       `json:"recentRainfall"`
	IrrigationEfficiency float64       `json:"irrigationEfficiency"`
	Fallbacks            []Resolution  `json:"fallbacks,omitempty"`
}

// WeatherFactors echoes the weather inputs.
type WeatherFactors struct {
	Temperature             float64  `json:"temperature"`
	Humidity                float64  `json:"humidity"`
	WindSpeed               float64  `json:"windSpeed"`
	SolarRadiation          *float64 `json:"solarRadiation,omitempty"`
	SolarRadiationEstimated bool     `json:"solarRadiationEstimated"`
}

// Recommendation is the engine output. AmountLitersPerHectare is
// round(AmountMM × 10 × area).
type Recommendation struct {
	Verdict                Verdict        `json:"recommendation"`
	AmountLitersPerHectare int64          `json:"irrigationAmount"`
	AmountMM               float64        `json:"irrigationAmountMM"`
	OptimalTime            string         `json:"optimalTime"`
	Reason                 string         `json:"reason"`
	Calculations           Calculations   `json:"calculations"`
	WeatherFactors         WeatherFactors `json:"weatherFactors"`
}

// decision is the verdict/amount pair threaded through the rules.
type decision struct {
	verdict  Verdict
	amountMM float64
}

type ruleContext struct {
	params  Parameters
	balance WaterBalance
}

// adjustmentRule may downgrade a decision. It returns the rationale fragment
// when it fired, or "" when it did not.
type adjustmentRule func(d decision, rc ruleContext) (decision, string)

// adjustmentRules run in order after the threshold rule.
var adjustmentRules = []adjustmentRule{
	rainfallRule,
	windRule,
	humidityRule,
}

// thresholdRule sets the initial decision from available water.
func thresholdRule(rc ruleContext) (decision, string) {
	wb := rc.balance
	eff := rc.params.IrrigationEfficiency
	pct := wb.CurrentAvailableWaterPercent

	switch {
	case pct < criticalMoistureLevel:
		target := wb.FieldCapacity * (optimalMoistureLevel / 100)
		deficit := math.Max(0, target-wb.CurrentMoisture)
		return decision{VerdictIrrigate, deficit * 10 / eff},
			fmt.Sprintf("Critical soil moisture level (%.1f%%).", pct)
	case pct < optimalMoistureLevel && wb.WaterDeficit > deficitTriggerMM:
		return decision{VerdictIrrigate, math.Min(wb.WaterDeficit, maxDailyAmountMM) / eff},
			fmt.Sprintf("Suboptimal soil moisture (%.1f%%) with water deficit.", pct)
	case pct < optimalMoistureLevel:
		return decision{VerdictMaybe, math.Min(wb.WaterDeficit, maxReducedAmountMM) / eff},
			fmt.Sprintf("Moderate soil moisture (%.1f%%).", pct)
	default:
		return decision{VerdictDontIrrigate, 0},
			fmt.Sprintf("Adequate soil moisture (%.1f%%).", pct)
	}
}

func rainfallRule(d decision, rc ruleContext) (decision, string) {
	rain := rc.params.RecentRainfall
	if rain <= rainfallThresholdMM {
		return d, ""
	}
	switch d.verdict {
	case VerdictIrrigate:
		return decision{VerdictMaybe, d.amountMM * 0.5},
			fmt.Sprintf("Recent rainfall (%smm) detected.", formatNumber(rain))
	case VerdictMaybe:
		return decision{VerdictDontIrrigate, 0},
			fmt.Sprintf("Recent rainfall (%smm) makes irrigation unnecessary.", formatNumber(rain))
	}
	return d, ""
}

func windRule(d decision, rc ruleContext) (decision, string) {
	wind := rc.params.Weather.WindSpeed
	if wind <= windThresholdKmh || d.verdict != VerdictIrrigate {
		return d, ""
	}
	return decision{VerdictMaybe, d.amountMM * 0.7},
		fmt.Sprintf("High wind conditions (%s km/h).", formatNumber(wind))
}

func humidityRule(d decision, rc ruleContext) (decision, string) {
	rh := rc.params.Weather.Humidity
	if rh <= humidityThreshold || d.verdict != VerdictIrrigate {
		return d, ""
	}
	return decision{VerdictMaybe, d.amountMM * 0.8},
		fmt.Sprintf("High humidity (%s%%) reduces water demand.", formatNumber(rh))
}

// OptimalTime picks the irrigation window for an air temperature.
func OptimalTime(temperature float64) string {
	switch {
	case temperature > hotTemperature:
		return "05:00-07:00"
	case temperature < coolTemperature:
		return "08:00-10:00"
	default:
		return "06:00-08:00"
	}
}

// Recommend evaluates the full pipeline for one field. It returns an error
// only for invalid inputs; unknown crops and soils use fallback defaults.
func (e *Engine) Recommend(p Parameters) (Recommendation, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return Recommendation{}, err
	}

	et0, err := ReferenceET(p.Weather)
	if err != nil {
		return Recommendation{}, err
	}

	var fallbacks []Resolution
	note := func(r Resolution) {
		if r == Resolved {
			return
		}
		for _, f := range fallbacks {
			if f == r {
				return
			}
		}
		fallbacks = append(fallbacks, r)
	}

	stage, res := e.GrowthStage(p.CropType, p.DaysSincePlanting)
	note(res)
	kc, res := e.CropCoefficient(p.CropType, stage)
	note(res)
	cropET := et0 * kc

	wb, res := e.waterBalance(p.SoilType, p.SoilMoisture, cropET, p.RecentRainfall)
	note(res)

	rc := ruleContext{params: p, balance: wb}
	d, reason := thresholdRule(rc)
	reasons := []string{reason}
	for _, rule := range adjustmentRules {
		var fragment string
		d, fragment = rule(d, rc)
		if fragment != "" {
			reasons = append(reasons, fragment)
		}
	}

	amount := math.Max(0, d.amountMM)
	liters := int64(math.Round(amount * 10 * p.Area))
	if liters < 0 {
		liters = 0
	}

	factors := WeatherFactors{
		Temperature:             p.Weather.Temperature,
		Humidity:                p.Weather.Humidity,
		WindSpeed:               p.Weather.WindSpeed,
		SolarRadiationEstimated: !p.Weather.HasSolarRadiation(),
	}
	if p.Weather.HasSolarRadiation() {
		factors.SolarRadiation = Float(*p.Weather.SolarRadiation)
	}

	return Recommendation{
		Verdict:                d.verdict,
		AmountLitersPerHectare: liters,
		AmountMM:               amount,
		OptimalTime:            OptimalTime(p.Weather.Temperature),
		Reason:                 strings.Join(reasons, " "),
		Calculations: Calculations{
			ET0:                  round2(et0),
			CropET:               round2(cropET),
			GrowthStage:          stage,
			CropCoefficient:      round2(kc),
			WaterBalance:         wb,
			RecentRainfall:       p.RecentRainfall,
			IrrigationEfficiency: p.IrrigationEfficiency,
			Fallbacks:            fallbacks,
		},
		WeatherFactors: factors,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

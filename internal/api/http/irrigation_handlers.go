package httpapi

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/irrigation-advisor/internal/irrigation"
	"github.com/i474232898/irrigation-advisor/internal/metrics"
	"github.com/i474232898/irrigation-advisor/internal/refdata"
	"github.com/i474232898/irrigation-advisor/internal/weather"
)

const defaultPlanDays = weather.MaxForecastDays

// irrigationQuery holds the field parameters of a recommendation request.
type irrigationQuery struct {
	Area                 float64 `validate:"gt=0"`
	SoilMoisture         float64 `validate:"gte=0,lte=100"`
	SoilType             string  `validate:"required"`
	DaysSincePlanting    int     `validate:"gte=0"`
	RecentRainfall       float64 `validate:"gte=0"`
	IrrigationEfficiency float64 `validate:"gt=0,lte=1"`
}

func bindIrrigationQuery(c *fiber.Ctx) (irrigationQuery, error) {
	q := irrigationQuery{SoilType: strings.ToLower(c.Query("soilType", "loamy"))}
	var err error
	if q.Area, err = queryFloat(c, "area", 1); err != nil {
		return q, err
	}
	if q.SoilMoisture, err = queryFloat(c, "soilMoisture", 50); err != nil {
		return q, err
	}
	if q.DaysSincePlanting, err = queryInt(c, "daysSincePlanting", 60); err != nil {
		return q, err
	}
	if q.RecentRainfall, err = queryFloat(c, "recentRainfall", 0); err != nil {
		return q, err
	}
	if q.IrrigationEfficiency, err = queryFloat(c, "irrigationEfficiency", irrigation.DefaultEfficiency); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}

func (q irrigationQuery) parameters(cropType string, obs irrigation.WeatherObservation) irrigation.Parameters {
	return irrigation.Parameters{
		CropType:             cropType,
		SoilType:             q.SoilType,
		DaysSincePlanting:    q.DaysSincePlanting,
		Area:                 q.Area,
		RecentRainfall:       q.RecentRainfall,
		SoilMoisture:         q.SoilMoisture,
		IrrigationEfficiency: q.IrrigationEfficiency,
		Weather:              obs,
	}
}

// pathLocation builds the location named in the URL path.
func (h *handlers) pathLocation(c *fiber.Ctx) weather.Location {
	return weather.Location{
		City:    strings.TrimSpace(c.Params("location")),
		Country: strings.TrimSpace(c.Query("country", h.DefaultCountry)),
	}
}

// currentObservation returns live weather for loc, or the default
// observation when no provider can deliver one.
func (h *handlers) currentObservation(ctx context.Context, loc weather.Location) (irrigation.WeatherObservation, string) {
	snapshot, err := h.Weather.Current(ctx, loc)
	if err != nil {
		log.Printf("WARN: using default weather for %s: %v", loc.Key(), err)
		return weather.DefaultObservation(), "default"
	}
	return snapshot.Observation(), "live"
}

// cropLabel keeps metric cardinality bounded to catalog crops.
func (h *handlers) cropLabel(cropType string) string {
	if crop, ok := h.Catalog.Crop(cropType); ok {
		return crop.ID
	}
	return "unknown"
}

type cropSummary struct {
	Name            string        `json:"name"`
	GrowthStage     refdata.Stage `json:"growthStage"`
	CropCoefficient float64       `json:"cropCoefficient"`
	Description     string        `json:"description"`
}

type irrigationResponse struct {
	CropType          string                    `json:"cropType"`
	Location          string                    `json:"location"`
	Area              float64                   `json:"area"`
	SoilType          string                    `json:"soilType"`
	Recommendation    irrigation.Verdict        `json:"recommendation"`
	RecommendedAmount int64                     `json:"recommendedAmount"`
	AmountMM          float64                   `json:"irrigationAmountMM"`
	OptimalTime       string                    `json:"optimalTime"`
	Reason            string                    `json:"reason"`
	Calculations      irrigation.Calculations   `json:"calculations"`
	WeatherFactors    irrigation.WeatherFactors `json:"weatherFactors"`
	WeatherSource     string                    `json:"weatherSource"`
	CropInfo          cropSummary               `json:"cropInfo"`
	Advisories        []refdata.Advisory        `json:"advisories"`
	SoilMoisture      float64                   `json:"soilMoisture"`
	DaysSincePlanting int                       `json:"daysSincePlanting"`
	RecentRainfall    float64                   `json:"recentRainfall"`
	Timestamp         time.Time                 `json:"timestamp"`
}

func (h *handlers) irrigationRecommendation(c *fiber.Ctx) error {
	cropType := strings.ToLower(c.Params("cropType"))
	q, err := bindIrrigationQuery(c)
	if err != nil {
		return err
	}

	loc := h.pathLocation(c)
	obs, source := h.currentObservation(c.UserContext(), loc)

	rec, err := h.Engine.Recommend(q.parameters(cropType, obs))
	if err != nil {
		return domainError(err)
	}
	metrics.RecommendationsTotal.WithLabelValues(h.cropLabel(cropType), string(rec.Verdict)).Inc()

	info := h.Catalog.CropInfo(cropType)
	advisories := h.Catalog.Advisories(cropType, q.SoilType)
	if advisories == nil {
		advisories = []refdata.Advisory{}
	}

	return ok(c, irrigationResponse{
		CropType:          cropType,
		Location:          loc.City,
		Area:              q.Area,
		SoilType:          q.SoilType,
		Recommendation:    rec.Verdict,
		RecommendedAmount: rec.AmountLitersPerHectare,
		AmountMM:          rec.AmountMM,
		OptimalTime:       rec.OptimalTime,
		Reason:            rec.Reason,
		Calculations:      rec.Calculations,
		WeatherFactors:    rec.WeatherFactors,
		WeatherSource:     source,
		CropInfo: cropSummary{
			Name:            info.Name,
			GrowthStage:     rec.Calculations.GrowthStage,
			CropCoefficient: rec.Calculations.CropCoefficient,
			Description:     info.Description,
		},
		Advisories:        advisories,
		SoilMoisture:      q.SoilMoisture,
		DaysSincePlanting: q.DaysSincePlanting,
		RecentRainfall:    q.RecentRainfall,
		Timestamp:         time.Now().UTC(),
	})
}

func (h *handlers) irrigationPlan(c *fiber.Ctx) error {
	cropType := strings.ToLower(c.Params("cropType"))
	q, err := bindIrrigationQuery(c)
	if err != nil {
		return err
	}
	days, err := queryInt(c, "days", defaultPlanDays)
	if err != nil {
		return err
	}
	if days < 1 || days > weather.MaxForecastDays {
		return fiber.NewError(fiber.StatusBadRequest, weather.ErrInvalidDays.Error())
	}

	loc := h.pathLocation(c)
	forecast, err := h.Weather.Forecast(c.UserContext(), loc, days)
	if err != nil {
		return domainError(err)
	}

	daily := make([]irrigation.DailyWeather, 0, len(forecast))
	for _, s := range forecast {
		daily = append(daily, irrigation.DailyWeather{Date: s.Timestamp, Weather: s.Observation()})
	}

	plan, err := h.Engine.Plan(q.parameters(cropType, irrigation.WeatherObservation{}), daily)
	if err != nil {
		return domainError(err)
	}

	resp := planResponse{
		CropType:          cropType,
		Location:          loc.City,
		SoilType:          q.SoilType,
		Area:              q.Area,
		StartSoilMoisture: q.SoilMoisture,
		Days:              plan,
	}
	for _, d := range plan {
		resp.TotalLiters += d.Recommendation.AmountLitersPerHectare
	}
	return ok(c, resp)
}

type planResponse struct {
	CropType          string               `json:"cropType"`
	Location          string               `json:"location"`
	SoilType          string               `json:"soilType"`
	Area              float64              `json:"area"`
	StartSoilMoisture float64              `json:"startSoilMoisture"`
	TotalLiters       int64                `json:"totalIrrigationLiters"`
	Days              []irrigation.PlanDay `json:"days"`
}

// weatherInput is a client-supplied observation. Temperature and humidity
// are pointers so an absent field is told apart from a reading of zero.
type weatherInput struct {
	Temperature    *float64 `json:"temperature" validate:"required"`
	Humidity       *float64 `json:"humidity" validate:"required"`
	WindSpeed      float64  `json:"windSpeed"`
	Pressure       *float64 `json:"pressure,omitempty"`
	SolarRadiation *float64 `json:"solarRadiation,omitempty"`
	Precipitation  *float64 `json:"precipitation,omitempty"`
}

func (w weatherInput) observation() irrigation.WeatherObservation {
	return irrigation.WeatherObservation{
		Temperature:    *w.Temperature,
		Humidity:       *w.Humidity,
		WindSpeed:      w.WindSpeed,
		Pressure:       w.Pressure,
		SolarRadiation: w.SolarRadiation,
		Precipitation:  w.Precipitation,
	}
}

type et0Request struct {
	WeatherData *weatherInput `json:"weatherData"`
}

func (h *handlers) referenceET(c *fiber.Ctx) error {
	var req et0Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.WeatherData == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Weather data is required")
	}
	if err := validate.Struct(req.WeatherData); err != nil {
		return domainError(fmt.Errorf("%w: temperature and humidity are required", irrigation.ErrInvalidObservation))
	}
	obs := req.WeatherData.observation()

	et0, err := irrigation.ReferenceET(obs)
	if err != nil {
		return domainError(err)
	}
	return ok(c, fiber.Map{
		"ET0":         math.Round(et0*100) / 100,
		"unit":        "mm/day",
		"weatherData": obs,
	})
}

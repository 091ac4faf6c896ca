package httpapi

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/irrigation-advisor/internal/farm"
	"github.com/i474232898/irrigation-advisor/internal/irrigation"
	"github.com/i474232898/irrigation-advisor/internal/refdata"
	"github.com/i474232898/irrigation-advisor/internal/store"
	"github.com/i474232898/irrigation-advisor/internal/weather"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var validate = validator.New()

// Deps are the services the HTTP API is built on.
type Deps struct {
	Weather *weather.Service
	Engine  *irrigation.Engine
	Catalog *refdata.Catalog
	Farms   *farm.Service
	// DefaultCountry is used when a request names a city without a country.
	DefaultCountry string
}

type handlers struct {
	Deps
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.DefaultCountry == "" {
		deps.DefaultCountry = "UZ"
	}
	h := &handlers{Deps: deps}

	app.Get("/health", h.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	v1.Get("/health", h.health)

	v1.Get("/weather/current", h.currentWeather)
	v1.Get("/weather/forecast", h.weatherForecast)
	v1.Get("/weather/history", h.weatherHistory)
	v1.Get("/weather/stats", h.weatherStats)
	v1.Post("/weather/clear-cache", h.clearWeatherCache)
	v1.Get("/weather/:location/complete", h.completeWeather)

	// Static irrigation paths go before the :cropType/:location pattern.
	v1.Get("/irrigation/guidelines", h.guidelines)
	v1.Post("/irrigation/log", h.logIrrigation)
	v1.Get("/irrigation/logs/:farmId", h.irrigationLogs)
	v1.Get("/irrigation/:cropType/:location", h.irrigationRecommendation)
	v1.Get("/irrigation/:cropType/:location/plan", h.irrigationPlan)
	v1.Post("/et0", h.referenceET)

	v1.Get("/savings/:farmId", h.savings)

	v1.Get("/crops", h.crops)
	v1.Get("/crops/:cropType", h.crop)
	v1.Get("/crops/:cropType/coefficients/:growthStage", h.cropCoefficient)
	v1.Get("/crops/:cropType/water-requirements", h.waterRequirements)
	v1.Get("/crops/:cropType/growing-season", h.growingSeason)
	v1.Get("/crops/:cropType/recommendation", h.cropRecommendation)

	v1.Get("/soil-types", h.soilTypes)
	v1.Get("/soil-types/:soilType", h.soilType)
	v1.Get("/climate/uzbekistan", h.climate)
	v1.Get("/database/stats", h.databaseStats)

	v1.Get("/farms", h.listFarms)
	v1.Post("/farms", h.createFarm)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Endpoint not found")
	})
}

// ErrorHandler renders every error as {"success": false, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// domainError maps service errors onto HTTP status codes.
func domainError(err error) error {
	switch {
	case errors.Is(err, irrigation.ErrInvalidObservation),
		errors.Is(err, irrigation.ErrInvalidParameters),
		errors.Is(err, farm.ErrInvalidFarm),
		errors.Is(err, farm.ErrInvalidLog),
		errors.Is(err, weather.ErrInvalidDays):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, farm.ErrFarmNotFound),
		errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrNoProviders),
		errors.Is(err, weather.ErrNoData):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Irrigation API is running",
		"timestamp": time.Now().UTC(),
		"version":   Version,
	})
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City    string `validate:"required"`
	Country string `validate:"required"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
	}
}

func (h *handlers) parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{
		City:    strings.TrimSpace(c.Query("city")),
		Country: strings.TrimSpace(c.Query("country", h.DefaultCountry)),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *handlers) bindHistory(c *fiber.Ctx) (historyQuery, error) {
	var q historyQuery
	loc, err := h.parseLocationQuery(c)
	if err != nil {
		return q, err
	}
	q.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return q, errors.New("from and to query parameters are required")
	}

	if q.From, err = parseTime(fromStr); err != nil {
		return q, err
	}
	if q.To, err = parseTime(toStr); err != nil {
		return q, err
	}
	return q, validate.Struct(q)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// queryFloat reads an optional numeric query parameter.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": "+raw)
	}
	return v, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": "+raw)
	}
	return v, nil
}

package httpapi

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/irrigation-advisor/internal/store"
	"github.com/i474232898/irrigation-advisor/internal/weather"
)

func (h *handlers) currentWeather(c *fiber.Ctx) error {
	locReq, err := h.parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshot, err := h.Weather.Current(c.UserContext(), locReq.toLocation())
	if err != nil {
		return domainError(err)
	}
	return ok(c, fiber.Map{
		"weather":    snapshot,
		"irrigation": snapshot.Observation(),
	})
}

func (h *handlers) weatherForecast(c *fiber.Ctx) error {
	locReq, err := h.parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if c.Query("days") == "" {
		return fiber.NewError(fiber.StatusBadRequest, weather.ErrInvalidDays.Error())
	}
	days, err := queryInt(c, "days", 0)
	if err != nil {
		return err
	}
	if days < 1 || days > weather.MaxForecastDays {
		return fiber.NewError(fiber.StatusBadRequest, weather.ErrInvalidDays.Error())
	}

	forecast, err := h.Weather.Forecast(c.UserContext(), locReq.toLocation(), days)
	if err != nil {
		return domainError(err)
	}
	return ok(c, fiber.Map{
		"location": locReq.toLocation(),
		"days":     days,
		"forecast": forecast,
	})
}

const completeForecastDays = 5

// completeWeather answers current conditions and a five-day forecast for the
// city in the path. Both are fetched concurrently.
func (h *handlers) completeWeather(c *fiber.Ctx) error {
	loc := h.pathLocation(c)
	if loc.City == "" || loc.Country == "" {
		return fiber.NewError(fiber.StatusBadRequest, "location is required")
	}

	var (
		wg          sync.WaitGroup
		current     weather.Snapshot
		forecast    weather.Forecast
		currentErr  error
		forecastErr error
	)
	ctx := c.UserContext()
	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = h.Weather.Current(ctx, loc)
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = h.Weather.Forecast(ctx, loc, completeForecastDays)
	}()
	wg.Wait()

	if currentErr != nil {
		return domainError(currentErr)
	}
	if forecastErr != nil {
		return domainError(forecastErr)
	}
	return ok(c, fiber.Map{
		"location":   loc,
		"current":    current,
		"irrigation": current.Observation(),
		"forecast":   forecast,
		"timestamp":  time.Now().UTC(),
	})
}

func (h *handlers) weatherHistory(c *fiber.Ctx) error {
	req, err := h.bindHistory(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc := req.Location.toLocation()
	snapshots, err := h.Weather.GetRange(loc, req.From, req.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
	}

	return ok(c, fiber.Map{
		"location":  loc,
		"from":      req.From,
		"to":        req.To,
		"snapshots": snapshots,
	})
}

func (h *handlers) weatherStats(c *fiber.Ctx) error {
	return ok(c, h.Weather.Stats())
}

func (h *handlers) clearWeatherCache(c *fiber.Ctx) error {
	h.Weather.ClearCache()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Weather cache cleared",
	})
}

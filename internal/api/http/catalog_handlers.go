package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/irrigation-advisor/internal/refdata"
)

type cropListItem struct {
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	ScientificName string  `json:"scientificName"`
	Description    string  `json:"description"`
	SeasonDays     int     `json:"seasonDays"`
	TotalSeasonal  float64 `json:"totalSeasonalWater,omitempty"`
}

func (h *handlers) crops(c *fiber.Ctx) error {
	profiles := h.Catalog.Crops()
	out := make([]cropListItem, 0, len(profiles))
	for _, crop := range profiles {
		item := cropListItem{
			Type:           crop.ID,
			Name:           crop.Name,
			ScientificName: crop.ScientificName,
			Description:    crop.Description,
			SeasonDays:     crop.TotalDuration(),
		}
		if crop.WaterRequirements != nil {
			item.TotalSeasonal = crop.WaterRequirements.TotalSeasonal
		}
		out = append(out, item)
	}
	return ok(c, out)
}

func (h *handlers) crop(c *fiber.Ctx) error {
	crop, found := h.Catalog.Crop(c.Params("cropType"))
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Crop not found")
	}
	return ok(c, fiber.Map{
		"crop":                 crop,
		"optimalPlantingDates": h.Catalog.OptimalPlantingDates(crop.ID),
	})
}

func (h *handlers) cropCoefficient(c *fiber.Ctx) error {
	cropType := strings.ToLower(c.Params("cropType"))
	stage := refdata.Stage(strings.ToLower(c.Params("growthStage")))

	crop, found := h.Catalog.Crop(cropType)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Crop coefficient not found")
	}
	sp, found := crop.Stage(stage)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Crop coefficient not found")
	}
	return ok(c, fiber.Map{
		"cropType":    crop.ID,
		"growthStage": sp.Name,
		"coefficient": sp.Kc,
		"duration":    sp.Duration,
	})
}

func (h *handlers) waterRequirements(c *fiber.Ctx) error {
	cropType := strings.ToLower(c.Params("cropType"))
	req, found := h.Catalog.WaterRequirements(cropType)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Water requirements not found")
	}
	return ok(c, fiber.Map{
		"cropType":          cropType,
		"waterRequirements": req,
	})
}

func (h *handlers) growingSeason(c *fiber.Ctx) error {
	cropType := strings.ToLower(c.Params("cropType"))
	seasons, found := h.Catalog.GrowingSeason(cropType)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Growing season information not found")
	}
	return ok(c, fiber.Map{
		"cropType":      cropType,
		"growingSeason": seasons,
	})
}

func (h *handlers) cropRecommendation(c *fiber.Ctx) error {
	cropType := strings.ToLower(c.Params("cropType"))
	soilType := strings.ToLower(c.Query("soilType", "loamy"))
	area, err := queryFloat(c, "area", 1)
	if err != nil {
		return err
	}
	if !(area > 0) {
		return fiber.NewError(fiber.StatusBadRequest, "area must be positive")
	}

	plan, found := h.Catalog.CropRecommendation(cropType, soilType, area)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Crop "+cropType+" not found in database")
	}
	if plan.Recommendations == nil {
		plan.Recommendations = []refdata.Advisory{}
	}
	return ok(c, plan)
}

func (h *handlers) soilTypes(c *fiber.Ctx) error {
	return ok(c, h.Catalog.Soils())
}

func (h *handlers) soilType(c *fiber.Ctx) error {
	soil, found := h.Catalog.Soil(c.Params("soilType"))
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Soil type not found")
	}
	return ok(c, fiber.Map{
		"soil":                   soil,
		"availableWaterCapacity": soil.AvailableWaterCapacity(),
	})
}

func (h *handlers) climate(c *fiber.Ctx) error {
	climate := h.Catalog.Climate()
	if climate == nil {
		return fiber.NewError(fiber.StatusNotFound, "Climate information not found")
	}
	return ok(c, climate)
}

func (h *handlers) guidelines(c *fiber.Ctx) error {
	guidelines := h.Catalog.Guidelines()
	if guidelines == nil {
		return fiber.NewError(fiber.StatusNotFound, "Irrigation guidelines not found")
	}
	return ok(c, guidelines)
}

func (h *handlers) databaseStats(c *fiber.Ctx) error {
	data := fiber.Map{"catalog": h.Catalog.Stats()}
	if h.Farms != nil {
		st, err := h.Farms.Stats(c.UserContext())
		if err != nil {
			return err
		}
		data["farms"] = st
	}
	return ok(c, data)
}

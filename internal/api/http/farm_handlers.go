package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/irrigation-advisor/internal/farm"
)

func (h *handlers) listFarms(c *fiber.Ctx) error {
	farms, err := h.Farms.ListFarms(c.UserContext())
	if err != nil {
		return err
	}
	if farms == nil {
		farms = []farm.Farm{}
	}
	return ok(c, farms)
}

func (h *handlers) createFarm(c *fiber.Ctx) error {
	var in farm.NewFarm
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required fields: name, location, cropType, area")
	}

	f, err := h.Farms.CreateFarm(c.UserContext(), in)
	if err != nil {
		return domainError(err)
	}
	return created(c, "Farm created successfully", f)
}

func (h *handlers) logIrrigation(c *fiber.Ctx) error {
	var in farm.NewLog
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required fields: farmId, cropType, area, amount")
	}

	entry, err := h.Farms.LogIrrigation(c.UserContext(), in)
	if err != nil {
		return domainError(err)
	}
	return created(c, "Irrigation activity logged successfully", entry)
}

func (h *handlers) irrigationLogs(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	page, err := h.Farms.ListLogs(c.UserContext(), c.Params("farmId"), limit, offset)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *handlers) savings(c *fiber.Ctx) error {
	report, err := h.Farms.Savings(c.UserContext(), c.Params("farmId"), farm.ParsePeriod(c.Query("period")))
	if err != nil {
		return domainError(err)
	}
	return ok(c, report)
}

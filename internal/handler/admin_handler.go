package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/middleware"
	"github.com/mansoorceksport/ironlog/internal/service"
)

// AdminHandler edits the catalogs. Routes sit behind AuthorizeRole(admin); the
// service repeats the capability check.
type AdminHandler struct {
	catalogService *service.CatalogService
}

func NewAdminHandler(catalogService *service.CatalogService) *AdminHandler {
	return &AdminHandler{catalogService: catalogService}
}

// CreateExercise POST /v1/admin/exercises
func (h *AdminHandler) CreateExercise(c *fiber.Ctx) error {
	var req domain.Exercise
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.ID = ""
	ex, err := h.catalogService.CreateExercise(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ex})
}

// CreatePlanDay POST /v1/admin/plan-days
func (h *AdminHandler) CreatePlanDay(c *fiber.Ctx) error {
	var req domain.PlanDay
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.ID = ""
	day, err := h.catalogService.CreatePlanDay(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": day})
}

// CreateAchievement POST /v1/admin/achievements
func (h *AdminHandler) CreateAchievement(c *fiber.Ctx) error {
	var req domain.Achievement
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.ID = ""
	a, err := h.catalogService.CreateAchievement(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": a})
}

// CreateChallenge POST /v1/admin/challenges
func (h *AdminHandler) CreateChallenge(c *fiber.Ctx) error {
	var req domain.Challenge
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.ID = ""
	ch, err := h.catalogService.CreateChallenge(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ch})
}

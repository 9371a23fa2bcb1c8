package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/ironlog/internal/middleware"
	"github.com/mansoorceksport/ironlog/internal/service"
)

// WorkoutHandler serves the session lifecycle and set logging under /v1/me
type WorkoutHandler struct {
	sessionService *service.SessionService
	setService     *service.SetService
}

func NewWorkoutHandler(sessionService *service.SessionService, setService *service.SetService) *WorkoutHandler {
	return &WorkoutHandler{
		sessionService: sessionService,
		setService:     setService,
	}
}

// StartSession POST /v1/me/sessions
func (h *WorkoutHandler) StartSession(c *fiber.Ctx) error {
	var req struct {
		PlanDayID string `json:"plan_day_id"`
	}
	if err := parseOptionalBody(c, &req); err != nil {
		return badBody(c)
	}

	session, err := h.sessionService.StartSession(c.UserContext(), middleware.GetUserID(c), req.PlanDayID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": session})
}

// GetActiveSession GET /v1/me/sessions/active
func (h *WorkoutHandler) GetActiveSession(c *fiber.Ctx) error {
	view, err := h.sessionService.GetActiveSession(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": view})
}

// CompleteSession POST /v1/me/sessions/:id/complete
func (h *WorkoutHandler) CompleteSession(c *fiber.Ctx) error {
	var req struct {
		Notes      string `json:"notes"`
		MoodRating *int   `json:"mood_rating"`
	}
	if err := parseOptionalBody(c, &req); err != nil {
		return badBody(c)
	}

	result, err := h.sessionService.CompleteSession(c.UserContext(), service.CompleteSessionInput{
		SessionID:  c.Params("id"),
		UserID:     middleware.GetUserID(c),
		Notes:      req.Notes,
		MoodRating: req.MoodRating,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": result})
}

// DiscardSession DELETE /v1/me/sessions/:id
func (h *WorkoutHandler) DiscardSession(c *fiber.Ctx) error {
	if err := h.sessionService.DiscardSession(c.UserContext(), c.Params("id"), middleware.GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "discarded"})
}

// LogSet POST /v1/me/sessions/:id/sets
func (h *WorkoutHandler) LogSet(c *fiber.Ctx) error {
	var req struct {
		ExerciseID  string   `json:"exercise_id"`
		Reps        *int     `json:"reps"`
		TimeSeconds *int     `json:"time_seconds"`
		Weight      *float64 `json:"weight"`
		RPE         *float64 `json:"rpe"`
		IsWarmup    bool     `json:"is_warmup"`
		IsDropset   bool     `json:"is_dropset"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	result, err := h.setService.LogSet(c.UserContext(), service.LogSetInput{
		SessionID:   c.Params("id"),
		UserID:      middleware.GetUserID(c),
		ExerciseID:  req.ExerciseID,
		Reps:        req.Reps,
		TimeSeconds: req.TimeSeconds,
		Weight:      req.Weight,
		RPE:         req.RPE,
		IsWarmup:    req.IsWarmup,
		IsDropset:   req.IsDropset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": result})
}

// DeleteSet DELETE /v1/me/sets/:id
func (h *WorkoutHandler) DeleteSet(c *fiber.Ctx) error {
	if err := h.setService.DeleteSet(c.UserContext(), c.Params("id"), middleware.GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

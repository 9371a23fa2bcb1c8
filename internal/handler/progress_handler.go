package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/middleware"
	"github.com/mansoorceksport/ironlog/internal/service"
)

// ProgressHandler serves stats, achievements, challenges and leaderboards
type ProgressHandler struct {
	statsService     *service.StatsService
	challengeService *service.ChallengeService
}

func NewProgressHandler(statsService *service.StatsService, challengeService *service.ChallengeService) *ProgressHandler {
	return &ProgressHandler{
		statsService:     statsService,
		challengeService: challengeService,
	}
}

// GetStats GET /v1/me/stats
func (h *ProgressHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.statsService.GetUserStats(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetProgress GET /v1/me/progress
func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	summary, err := h.statsService.GetProgressSummary(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": summary})
}

// ListAchievements GET /v1/me/achievements
func (h *ProgressHandler) ListAchievements(c *fiber.Ctx) error {
	list, err := h.statsService.ListAchievements(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": list})
}

// JoinChallenge POST /v1/me/challenges/:id/join
func (h *ProgressHandler) JoinChallenge(c *fiber.Ctx) error {
	enrollment, err := h.challengeService.Join(c.UserContext(), c.Params("id"), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": enrollment})
}

// GetChallengeStandings GET /v1/challenges/:id/standings
func (h *ProgressHandler) GetChallengeStandings(c *fiber.Ctx) error {
	standings, err := h.statsService.GetChallengeStandings(c.UserContext(), c.Params("id"), c.QueryInt("limit", service.DefaultLeaderboardLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": standings})
}

// GetLeaderboard GET /v1/leaderboards/:metric
func (h *ProgressHandler) GetLeaderboard(c *fiber.Ctx) error {
	metric := domain.LeaderboardMetric(c.Params("metric"))
	entries, err := h.statsService.GetLeaderboard(c.UserContext(), metric, c.QueryInt("limit", service.DefaultLeaderboardLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": entries})
}

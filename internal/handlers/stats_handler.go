package handlers

import (
	"github.com/gofiber/fiber/v2"

	"projetodesenvolve/meeting-evaluator/internal/repositories"
)

type StatsHandler struct {
	meetingRepo repositories.MeetingRepository
}

func NewStatsHandler(meetingRepo repositories.MeetingRepository) *StatsHandler {
	return &StatsHandler{meetingRepo: meetingRepo}
}

// HandleMonitors handles GET /stats/monitors
func (h *StatsHandler) HandleMonitors(c *fiber.Ctx) error {
	minCount := c.QueryInt("min", 2)
	if minCount < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "min must be a positive integer")
	}

	averages, err := h.meetingRepo.MonitorAverages(minCount)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute monitor averages",
		})
	}

	return c.JSON(averages)
}

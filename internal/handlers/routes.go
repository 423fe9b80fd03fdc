package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Meetings    *MeetingHandler
	Evaluations *EvaluationHandler
	Sync        *SyncHandler
	Stats       *StatsHandler
	Search      *SearchHandler
}

// RegisterRoutes mounts the API on router, normally the /api/v1 group.
func RegisterRoutes(router fiber.Router, h Handlers) {
	router.Get("/health", HandleHealth)

	router.Get("/meetings", h.Meetings.HandleList)
	router.Get("/meetings/:id", h.Meetings.HandleGet)
	router.Post("/meetings/:id/evaluate", h.Evaluations.HandleEvaluate)
	router.Post("/evaluations/parse", h.Evaluations.HandleParse)
	router.Post("/update", h.Sync.HandleSync)
	router.Get("/stats/monitors", h.Stats.HandleMonitors)
	router.Get("/search", h.Search.HandleSearch)
}

// HandleHealth handles GET /health
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	})
}

package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"projetodesenvolve/meeting-evaluator/internal/services"
)

type SearchHandler struct {
	searchService services.SearchService
}

func NewSearchHandler(searchService services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// HandleSearch handles GET /search
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	hits, err := h.searchService.Search(c.UserContext(), query, c.QueryInt("limit", 10))
	if err != nil {
		if errors.Is(err, services.ErrSearchDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	return c.JSON(hits)
}

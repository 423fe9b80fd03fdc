package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/services"
)

type SyncHandler struct {
	syncService services.SyncService
}

// NewSyncHandler accepts a nil service when no spreadsheet is configured.
func NewSyncHandler(syncService services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// HandleSync handles POST /update
func (h *SyncHandler) HandleSync(c *fiber.Ctx) error {
	if h.syncService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Spreadsheet sync is not configured",
		})
	}

	report, err := h.syncService.Sync(c.UserContext())
	if err != nil {
		log.Printf("❌ Sync failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Erro ao atualizar reuniões.",
		})
	}

	message := "Nenhuma nova reunião encontrada para adicionar."
	if report.Inserted > 0 {
		message = fmt.Sprintf("Adicionadas %d novas reuniões.", report.Inserted)
	}

	return c.JSON(models.SyncResponse{
		RunID:    report.RunID.String(),
		Fetched:  report.Fetched,
		Inserted: report.Inserted,
		Message:  message,
	})
}

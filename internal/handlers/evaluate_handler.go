package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
	"projetodesenvolve/meeting-evaluator/internal/services"
)

type EvaluationHandler struct {
	meetingRepo repositories.MeetingRepository
	queue       services.JobQueue
	schema      *rubric.Schema
}

func NewEvaluationHandler(
	meetingRepo repositories.MeetingRepository,
	queue services.JobQueue,
	schema *rubric.Schema,
) *EvaluationHandler {
	return &EvaluationHandler{
		meetingRepo: meetingRepo,
		queue:       queue,
		schema:      schema,
	}
}

// HandleEvaluate handles POST /meetings/:id/evaluate
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid meeting ID format",
		})
	}

	meeting, err := h.meetingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrMeetingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Meeting not found",
			})
		}
		return err
	}

	if meeting.Status == models.StatusProcessing {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Meeting is already being evaluated",
		})
	}

	if err := h.meetingRepo.UpdateStatus(id, models.StatusQueued); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to queue evaluation",
		})
	}

	// A full queue is fine: the meeting is queued in the database and the
	// poller will pick it up.
	h.queue.EnqueueJob(id)

	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:     id.String(),
		Status: string(models.StatusQueued),
	})
}

// HandleParse handles POST /evaluations/parse
func (h *EvaluationHandler) HandleParse(c *fiber.Ctx) error {
	var req models.ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	return c.JSON(rubric.Parse(req.Text, h.schema, req.PriorScore))
}

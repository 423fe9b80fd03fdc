package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"projetodesenvolve/meeting-evaluator/internal/models"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

const dateLayout = "2006-01-02"

type MeetingHandler struct {
	meetingRepo repositories.MeetingRepository
	schema      *rubric.Schema
}

func NewMeetingHandler(meetingRepo repositories.MeetingRepository, schema *rubric.Schema) *MeetingHandler {
	return &MeetingHandler{
		meetingRepo: meetingRepo,
		schema:      schema,
	}
}

// HandleList handles GET /meetings
func (h *MeetingHandler) HandleList(c *fiber.Ctx) error {
	filter := repositories.MeetingFilter{
		Owner:   c.Query("owner"),
		Keyword: c.Query("keyword"),
	}

	var err error
	if filter.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		return err
	}
	if filter.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		return err
	}

	filter.Mode, err = repositories.ParseFilterMode(c.Query("filter"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	meetings, err := h.meetingRepo.List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list meetings",
		})
	}

	response := make([]models.MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		response = append(response, models.NewMeetingResponse(m))
	}

	return c.JSON(response)
}

// HandleGet handles GET /meetings/:id. The stored evaluation text is parsed
// again against the current rubric, with the stored score as the prior, so
// the itemized list and the headline score come from one parse.
func (h *MeetingHandler) HandleGet(c *fiber.Ctx) error {
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
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load meeting",
		})
	}

	response := models.MeetingDetailResponse{Meeting: *meeting}
	if meeting.EvaluationText != "" && meeting.Status != models.StatusSkipped {
		result := rubric.Parse(meeting.EvaluationText, h.schema, meeting.Score)
		response.Evaluation = &result
	}

	return c.JSON(response)
}

func parseDateQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be formatted as YYYY-MM-DD")
	}
	return &d, nil
}

package journey

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/gate"
	"github.com/neuro21/neuro21/internal/session"
)

// Handler exposes the daily journey preview.
type Handler struct{}

// NewHandler constructs a journey HTTP handler.
func NewHandler() *Handler {
	return &Handler{}
}

type previewRequest struct {
	Scores map[string]int `json:"scores"`
}

// Preview scores the posted goals with the plan of the session user the
// guard admitted.
func (h *Handler) Preview(c *fiber.Ctx) error {
	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	goals, err := Apply(req.Scores)
	if err != nil {
		if errors.Is(err, ErrUnknownGoal) || errors.Is(err, ErrScoreRange) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	plan := session.PlanFree
	if user := gate.Snapshot(c).User; user != nil && user.Plan != "" {
		plan = user.Plan
	}
	return c.Status(http.StatusOK).JSON(NewPreview(goals, plan))
}

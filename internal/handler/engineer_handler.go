package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"manpower/internal/model"
	"manpower/internal/scheduling"
	"manpower/internal/service"
)

// EngineerHandler handles the engineer roster endpoints.
type EngineerHandler struct {
	engineerService service.EngineerService
}

// NewEngineerHandler creates a new engineer handler.
func NewEngineerHandler(engineerService service.EngineerService) *EngineerHandler {
	return &EngineerHandler{engineerService: engineerService}
}

// AvailabilityRequest asks which engineers are free for every slot.
// EngineerIDs narrows the check; when empty the whole roster is checked.
type AvailabilityRequest struct {
	TimeSlots   []TimeSlotRequest `json:"timeSlots" validate:"required,min=1,dive"`
	EngineerIDs []string          `json:"engineerIds" validate:"omitempty,dive,required"`
}

// EngineerListResponse wraps the engineer roster.
type EngineerListResponse struct {
	Success   bool         `json:"success"`
	Count     int          `json:"count"`
	Engineers []model.User `json:"engineers"`
}

// AvailabilityResponse lists the free engineers and the commitments that
// block the others.
type AvailabilityResponse struct {
	Success            bool                  `json:"success"`
	Message            string                `json:"message"`
	AvailableEngineers []model.User          `json:"availableEngineers"`
	Busy               []scheduling.Conflict `json:"busy"`
}

// ListEngineers godoc
// @Summary List engineers
// @Tags engineers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} EngineerListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /engineers [get]
func (h *EngineerHandler) ListEngineers(c echo.Context) error {
	engineers, err := h.engineerService.ListEngineers(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, EngineerListResponse{Success: true, Count: len(engineers), Engineers: engineers})
}

// Available godoc
// @Summary Engineers free for the given slots
// @Tags engineers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AvailabilityRequest true "Requested slots"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /engineers/available [post]
func (h *EngineerHandler) Available(c echo.Context) error {
	var req AvailabilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.engineerService.Available(c.Request().Context(), toSlots(req.TimeSlots), req.EngineerIDs)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, AvailabilityResponse{
		Success:            true,
		Message:            fmt.Sprintf("Found %d available engineers out of %d total engineers", len(result.Available), result.Total),
		AvailableEngineers: result.Available,
		Busy:               result.Busy,
	})
}

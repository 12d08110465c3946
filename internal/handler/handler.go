package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"manpower/internal/errors"
	"manpower/internal/model"
)

// bindAndValidate decodes the request body into req and runs the
// registered validator on it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ValidationResponse(err))
	}
	return nil
}

// serviceError translates a service error into an HTTP error. The service
// error is kept as the internal cause for logging.
func serviceError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// statusFilter reads the optional ?status= query parameter.
func statusFilter(c echo.Context) (*model.TaskStatus, error) {
	raw := c.QueryParam("status")
	if raw == "" {
		return nil, nil
	}
	status := model.TaskStatus(raw)
	if !status.Valid() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "status must be one of [ACTIVE COMPLETED]",
			Code:  "VALIDATION_ERROR",
			Details: []errors.FieldError{{
				Field:   "status",
				Rule:    "oneof",
				Message: "status must be one of [ACTIVE COMPLETED]",
			}},
		})
	}
	return &status, nil
}

// TimeSlotRequest is one requested interval. Instants are RFC 3339.
type TimeSlotRequest struct {
	StartDateTime time.Time `json:"startDateTime" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" validate:"required,gtfield=StartDateTime"`
}

func toSlots(in []TimeSlotRequest) []model.TimeSlot {
	if in == nil {
		return nil
	}
	out := make([]model.TimeSlot, len(in))
	for i, s := range in {
		out[i] = model.TimeSlot{StartDateTime: s.StartDateTime, EndDateTime: s.EndDateTime}
	}
	return out
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

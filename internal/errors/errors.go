package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"manpower/internal/scheduling"
)

var (
	// ErrTaskNotFound is returned when a task is not found.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrTaskCompleted is returned when a completed task is edited or deleted.
	ErrTaskCompleted = errors.New("completed tasks are read-only")
	// ErrUsernameTaken is returned when creating a user with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidAssignees is returned when an assignee is unknown or not an engineer.
	ErrInvalidAssignees = errors.New("one or more assigned users not found or not engineers")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIncorrectPassword is returned when the current password does not match.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrSlotInPast is returned when a new slot starts before now.
	ErrSlotInPast = errors.New("start time cannot be in the past")
	// ErrInvalidTimeSlot is returned when a slot does not end after it starts.
	ErrInvalidTimeSlot = errors.New("end time must be after start time for all time slots")
)

// ConflictError reports an availability check that found overlapping commitments.
type ConflictError struct {
	Conflicts []scheduling.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("engineer availability conflict with %d existing slot(s)", len(e.Conflicts))
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error     string                `json:"error"`
	Code      string                `json:"code"`
	Details   []FieldError          `json:"details,omitempty"`
	Conflicts []scheduling.Conflict `json:"conflicts,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Conflicts  []scheduling.Conflict
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Conflicts: e.Conflicts,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		httpErr := NewHTTPError(http.StatusConflict, "one or more engineers are already booked for the requested time", "AVAILABILITY_CONFLICT")
		httpErr.Conflicts = conflict.Conflicts
		return httpErr
	case errors.Is(err, ErrTaskNotFound):
		return NewHTTPError(http.StatusNotFound, ErrTaskNotFound.Error(), "TASK_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrTaskCompleted):
		return NewHTTPError(http.StatusBadRequest, ErrTaskCompleted.Error(), "TASK_COMPLETED")
	case errors.Is(err, ErrUsernameTaken):
		return NewHTTPError(http.StatusConflict, ErrUsernameTaken.Error(), "USERNAME_TAKEN")
	case errors.Is(err, ErrInvalidAssignees):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidAssignees.Error(), "INVALID_ASSIGNEES")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrIncorrectPassword):
		return NewHTTPError(http.StatusBadRequest, ErrIncorrectPassword.Error(), "INCORRECT_PASSWORD")
	case errors.Is(err, ErrSlotInPast):
		return NewHTTPError(http.StatusBadRequest, ErrSlotInPast.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrInvalidTimeSlot):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidTimeSlot.Error(), "VALIDATION_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// ValidationResponse builds the 400 body for a failed request validation.
func ValidationResponse(err error) ErrorResponse {
	return ErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_ERROR",
		Details: ValidationDetails(err),
	}
}

// ValidationDetails flattens validator errors into field-level details.
func ValidationDetails(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Namespace(),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s) or character(s)", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"manpower/internal/model"
	"manpower/internal/service"
)

// UserHandler handles admin user management endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents a new MANAGER or ENGINEER account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=MANAGER ENGINEER"`
}

// SetPasswordRequest represents an admin password reset.
type SetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UserResponse wraps one user.
type UserResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *model.User `json:"user"`
}

// UserListResponse wraps a user list.
type UserListResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Users   []model.User `json:"users"`
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /auth/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req.Username, req.Name, req.Password, model.Role(req.Role))
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, UserResponse{
		Success: true,
		Message: "user created successfully",
		User:    user,
	})
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, UserListResponse{Success: true, Count: len(users), Users: users})
}

// SetPassword godoc
// @Summary Force-set a user's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body SetPasswordRequest true "New password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/users/{id}/password [put]
func (h *UserHandler) SetPassword(c echo.Context) error {
	var req SetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.userService.SetPassword(c.Request().Context(), c.Param("id"), req.NewPassword); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "password updated successfully"})
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.userService.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "user deleted successfully"})
}

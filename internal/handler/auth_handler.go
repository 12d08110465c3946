package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"manpower/internal/auth"
	"manpower/internal/errors"
	"manpower/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents a self-service password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *auth.Principal `json:"user"`
}

// MeResponse carries the caller's identity.
type MeResponse struct {
	Success bool            `json:"success"`
	User    *auth.Principal `json:"user"`
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, principal, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "login successful",
		Token:   token,
		User:    principal,
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	principal := auth.PrincipalFrom(c)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "authentication required",
			Code:  "UNAUTHORIZED",
		})
	}
	return c.JSON(http.StatusOK, MeResponse{Success: true, User: principal})
}

// ChangePassword godoc
// @Summary Change own password
// @Description Tokens issued before the change stop working.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	principal := auth.PrincipalFrom(c)
	if principal == nil || principal.ID == auth.BootstrapAdminID {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "the built-in admin password is set by configuration",
			Code:  "PASSWORD_NOT_CHANGEABLE",
		})
	}

	if err := h.userService.ChangeOwnPassword(c.Request().Context(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "password changed successfully, please login again",
	})
}

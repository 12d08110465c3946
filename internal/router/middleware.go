package router

import (
	"errors"
	"log/slog"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"manpower/internal/auth"
	apperrors "manpower/internal/errors"
	"manpower/internal/model"
	"manpower/internal/service"
)

// TokenErrorHandler answers 401 when no bearer token was sent and 403 when
// the token could not be verified.
func TokenErrorHandler(c echo.Context, err error) error {
	var extractErr *echojwt.TokenExtractionError
	if errors.As(err, &extractErr) {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "access token required",
			Code:  "UNAUTHORIZED",
		})
	}
	return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
		Error: "invalid or expired token",
		Code:  "INVALID_TOKEN",
	}).SetInternal(err)
}

// Authenticate re-validates the verified token against the user store and
// stores the resulting principal on the context.
func Authenticate(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("user").(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "access token required",
					Code:  "UNAUTHORIZED",
				})
			}

			principal, err := authService.Authenticate(c.Request().Context(), claims)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUserGone),
					errors.Is(err, service.ErrRoleChanged),
					errors.Is(err, service.ErrCredentialsChanged),
					errors.Is(err, service.ErrPasswordChanged):
					return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
						Error: err.Error(),
						Code:  "TOKEN_INVALIDATED",
					})
				default:
					return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
						Error: "internal server error",
						Code:  "INTERNAL_ERROR",
					}).SetInternal(err)
				}
			}

			auth.SetPrincipal(c, principal)
			return next(c)
		}
	}
}

// RequireRole rejects principals holding none of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := auth.PrincipalFrom(c)
			if principal == nil || !principal.HasRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: "insufficient permissions",
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// HTTPErrorHandler renders every error as an ErrorResponse body.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := apperrors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case apperrors.ErrorResponse:
				body = msg
			case string:
				body = apperrors.ErrorResponse{Error: msg}
			case error:
				body = apperrors.ErrorResponse{Error: msg.Error()}
			default:
				body = apperrors.ErrorResponse{Error: http.StatusText(status)}
			}
			if he.Internal != nil && status >= http.StatusInternalServerError {
				logger.Error("request failed", slog.Any("error", he.Internal), slog.String("uri", c.Request().RequestURI))
			}
		} else {
			logger.Error("unhandled error", slog.Any("error", err), slog.String("uri", c.Request().RequestURI))
		}

		if body.Code == "" {
			body.Code = codeForStatus(status)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", slog.Any("error", err))
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

package router

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"manpower/internal/auth"
	"manpower/internal/handler"
	"manpower/internal/model"
	"manpower/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Engineer *handler.EngineerHandler
	Task     *handler.TaskHandler
	Health   *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	authService service.AuthService,
	h Handlers,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.Default()
	}

	e.HTTPErrorHandler = HTTPErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", h.Health.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")
	api.GET("/health", h.Health.Health)

	// Public routes
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
				claims, err := jwtService.ValidateToken(token)
				if err != nil {
					return nil, err
				}
				return claims, nil
			},
			ErrorHandler: TokenErrorHandler,
		}),
		Authenticate(authService),
	)

	secured.GET("/auth/me", h.Auth.Me)
	secured.PUT("/auth/password", h.Auth.ChangePassword)

	admin := secured.Group("", RequireRole(model.RoleAdmin))
	admin.POST("/auth/users", h.User.CreateUser)
	admin.GET("/auth/users", h.User.ListUsers)
	admin.PUT("/auth/users/:id/password", h.User.SetPassword)
	admin.DELETE("/auth/users/:id", h.User.DeleteUser)

	secured.GET("/engineers", h.Engineer.ListEngineers)
	secured.POST("/engineers/available", h.Engineer.Available)

	manage := RequireRole(model.RoleManager, model.RoleAdmin)
	secured.GET("/tasks", h.Task.List)
	secured.GET("/tasks/my-tasks", h.Task.MyTasks)
	secured.PUT("/tasks/update-statuses", h.Task.UpdateStatuses)
	secured.GET("/tasks/:id", h.Task.Get)
	secured.POST("/tasks", h.Task.Create, manage)
	secured.PUT("/tasks/:id", h.Task.Update, manage)
	secured.DELETE("/tasks/:id", h.Task.Delete, manage)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports failing fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

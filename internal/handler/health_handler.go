package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SchedulerStatus reports whether the background sweep is running.
type SchedulerStatus interface {
	Running() bool
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	scheduler SchedulerStatus
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(scheduler SchedulerStatus) *HealthHandler {
	return &HealthHandler{scheduler: scheduler}
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Scheduler struct {
		Running bool `json:"running"`
	} `json:"scheduler"`
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	var resp HealthResponse
	resp.Status = "OK"
	resp.Scheduler.Running = h.scheduler.Running()
	return c.JSON(http.StatusOK, resp)
}

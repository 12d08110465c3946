package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"manpower/internal/auth"
	"manpower/internal/model"
	"manpower/internal/service"
)

// StatusSweeper triggers an on-demand status sweep.
type StatusSweeper interface {
	RunNow(ctx context.Context) int
}

// TaskHandler handles task endpoints.
type TaskHandler struct {
	taskService service.TaskService
	sweeper     StatusSweeper
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService, sweeper StatusSweeper) *TaskHandler {
	return &TaskHandler{taskService: taskService, sweeper: sweeper}
}

// CreateTaskRequest represents a new task.
type CreateTaskRequest struct {
	Project    string            `json:"project" validate:"required"`
	TimeSlots  []TimeSlotRequest `json:"timeSlots" validate:"required,min=1,dive"`
	AssignedTo []string          `json:"assignedTo" validate:"omitempty,dive,required"`
	ContactNo  string            `json:"contactNo" validate:"required"`
	Priority   string            `json:"priority" validate:"omitempty,oneof=HIGH NORMAL"`
	Remarks    string            `json:"remarks"`
}

// UpdateTaskRequest represents a partial task edit. Omitted fields are kept.
type UpdateTaskRequest struct {
	Project    *string           `json:"project" validate:"omitnil,min=1"`
	TimeSlots  []TimeSlotRequest `json:"timeSlots" validate:"omitempty,dive"`
	AssignedTo []string          `json:"assignedTo" validate:"omitempty,dive,required"`
	ContactNo  *string           `json:"contactNo" validate:"omitnil,min=1"`
	Priority   *string           `json:"priority" validate:"omitempty,oneof=HIGH NORMAL"`
	Remarks    *string           `json:"remarks"`
}

// TaskResponse wraps one task.
type TaskResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Task    *model.TaskDetail `json:"task"`
}

// TaskListResponse wraps a task list.
type TaskListResponse struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Tasks   []model.TaskDetail `json:"tasks"`
}

// SweepResponse reports a manual status sweep.
type SweepResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updatedCount"`
}

// Create godoc
// @Summary Create a task
// @Description Fails with 409 when an assigned engineer is already booked.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	principal := auth.PrincipalFrom(c)
	task, err := h.taskService.Create(c.Request().Context(), principal.ID, service.CreateTaskInput{
		Project:    req.Project,
		TimeSlots:  toSlots(req.TimeSlots),
		AssignedTo: req.AssignedTo,
		ContactNo:  req.ContactNo,
		Priority:   model.Priority(req.Priority),
		Remarks:    req.Remarks,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, TaskResponse{
		Success: true,
		Message: "task created successfully",
		Task:    task,
	})
}

// List godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "ACTIVE or COMPLETED"
// @Success 200 {object} TaskListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	status, err := statusFilter(c)
	if err != nil {
		return err
	}
	tasks, err := h.taskService.List(c.Request().Context(), status)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, TaskListResponse{Success: true, Count: len(tasks), Tasks: tasks})
}

// MyTasks godoc
// @Summary List tasks assigned to the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "ACTIVE or COMPLETED"
// @Success 200 {object} TaskListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks/my-tasks [get]
func (h *TaskHandler) MyTasks(c echo.Context) error {
	status, err := statusFilter(c)
	if err != nil {
		return err
	}
	principal := auth.PrincipalFrom(c)
	tasks, err := h.taskService.ListAssigned(c.Request().Context(), principal.ID, status)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, TaskListResponse{Success: true, Count: len(tasks), Tasks: tasks})
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	task, err := h.taskService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, TaskResponse{Success: true, Task: task})
}

// Update godoc
// @Summary Update a task
// @Description Completed tasks are read-only. Changing slots or assignees re-runs the availability check.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Changed fields"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	var req UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.UpdateTaskInput{
		Project:    req.Project,
		TimeSlots:  toSlots(req.TimeSlots),
		AssignedTo: req.AssignedTo,
		ContactNo:  req.ContactNo,
		Remarks:    req.Remarks,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		in.Priority = &p
	}

	task, err := h.taskService.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, TaskResponse{
		Success: true,
		Message: "task updated successfully",
		Task:    task,
	})
}

// Delete godoc
// @Summary Delete a task
// @Description Completed tasks cannot be deleted.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.taskService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "task deleted successfully"})
}

// UpdateStatuses godoc
// @Summary Run the status sweep now
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SweepResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks/update-statuses [put]
func (h *TaskHandler) UpdateStatuses(c echo.Context) error {
	updated := h.sweeper.RunNow(c.Request().Context())
	return c.JSON(http.StatusOK, SweepResponse{
		Success:      true,
		Message:      fmt.Sprintf("Updated %d tasks to COMPLETED status", updated),
		UpdatedCount: updated,
	})
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crmserver/internal/model"
	"crmserver/internal/service/crm"
)

type TaskHandler struct {
	crmService *crm.Service
	logger     *zap.Logger
}

func NewTaskHandler(crmService *crm.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{crmService: crmService, logger: logger}
}

// ListCustomerTasks handles GET /customers/:id/tasks.
// Tasks come back in urgency order: overdue first, then priority,
// then due date, then recency.
func (h *TaskHandler) ListCustomerTasks(c *gin.Context) {
	customerID := c.Param("id")

	tasks, err := h.crmService.CustomerTasks(c.Request.Context(), customerID)
	if err != nil {
		h.logger.Error("ListCustomerTasks: failed to fetch tasks",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CreateTask handles POST /customers/:id/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		Priority    string     `json:"priority"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task := &model.Task{
		CustomerID:  c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Source:      model.TaskSourceManual,
	}

	if err := h.crmService.CreateTask(c.Request.Context(), task); err != nil {
		h.logger.Error("CreateTask: insert failed",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var patch crm.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task, err := h.crmService.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, crm.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task status"})
		default:
			h.logger.Error("UpdateTask: update failed",
				zap.String("task_id", c.Param("id")),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

// ToggleTask handles POST /tasks/:id/complete. Completing an already
// completed task reopens it.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	task, err := h.crmService.ToggleTaskCompletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("ToggleTask: toggle failed",
			zap.String("task_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.crmService.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("DeleteTask: delete failed",
			zap.String("task_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

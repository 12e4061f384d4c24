package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crmserver/internal/service/crm"
)

type DashboardHandler struct {
	crmService *crm.Service
	logger     *zap.Logger
}

func NewDashboardHandler(crmService *crm.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{crmService: crmService, logger: logger}
}

// UrgentCustomers handles GET /dashboard/urgent?q=.
// Customers without active tasks are omitted entirely.
func (h *DashboardHandler) UrgentCustomers(c *gin.Context) {
	ranked, err := h.crmService.Dashboard(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("UrgentCustomers: ranking failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rank customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": ranked})
}

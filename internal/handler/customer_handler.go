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

type CustomerHandler struct {
	crmService *crm.Service
	logger     *zap.Logger
}

func NewCustomerHandler(crmService *crm.Service, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{crmService: crmService, logger: logger}
}

// ListCustomers handles GET /customers?q=
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.crmService.ListCustomers(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("ListCustomers: failed to fetch customers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// CreateCustomer handles POST /customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req struct {
		Name        string     `json:"name" binding:"required"`
		ARRUSD      float64    `json:"arr_usd" binding:"gte=0"`
		RenewalDate *time.Time `json:"renewal_date"`
		IsSatisfied bool       `json:"is_satisfied"`
		IsAtRisk    bool       `json:"is_at_risk"`
		LogoURL     string     `json:"logo_url"`
		Notes       string     `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	customer := &model.Customer{
		Name:        req.Name,
		ARRUSD:      req.ARRUSD,
		RenewalDate: req.RenewalDate,
		IsSatisfied: req.IsSatisfied,
		IsAtRisk:    req.IsAtRisk,
		LogoURL:     req.LogoURL,
		Notes:       req.Notes,
	}

	view, err := h.crmService.CreateCustomer(c.Request.Context(), customer)
	if err != nil {
		h.logger.Error("CreateCustomer: insert failed",
			zap.String("name", req.Name),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetCustomer handles GET /customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	view, err := h.crmService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		h.logger.Error("GetCustomer: lookup failed",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch customer"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateCustomer handles PATCH /customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var patch crm.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	view, err := h.crmService.UpdateCustomer(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		h.logger.Error("UpdateCustomer: update failed",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteCustomer handles DELETE /customers/:id
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.crmService.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("DeleteCustomer: delete failed",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AddContact handles POST /customers/:id/contacts
func (h *CustomerHandler) AddContact(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Title string `json:"title"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		Notes string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	contact := &model.Contact{
		CustomerID: c.Param("id"),
		Name:       req.Name,
		Title:      req.Title,
		Email:      req.Email,
		Phone:      req.Phone,
		Notes:      req.Notes,
	}

	if err := h.crmService.AddContact(c.Request.Context(), contact); err != nil {
		h.logger.Error("AddContact: insert failed",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add contact"})
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// DeleteContact handles DELETE /customers/:id/contacts/:cid
func (h *CustomerHandler) DeleteContact(c *gin.Context) {
	if err := h.crmService.DeleteContact(c.Request.Context(), c.Param("id"), c.Param("cid")); err != nil {
		h.logger.Error("DeleteContact: delete failed",
			zap.String("customer_id", c.Param("id")),
			zap.String("contact_id", c.Param("cid")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete contact"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	purchaseService *service.PurchaseService
	catalogService  *service.CatalogService
	ledgerService   *service.LedgerService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	purchaseService *service.PurchaseService,
	catalogService *service.CatalogService,
	ledgerService *service.LedgerService,
) *Handler {
	return &Handler{
		purchaseService: purchaseService,
		catalogService:  catalogService,
		ledgerService:   ledgerService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/purchases", h.purchase)
		v1.POST("/purchases/combo", h.purchaseCombo)

		v1.GET("/catalog", h.catalogSummary)
		v1.GET("/catalog/availability", h.availability)

		v1.GET("/stock", h.stockOverview)
		v1.POST("/stock", h.addStock)
		v1.DELETE("/stock", h.deleteStock)

		v1.GET("/combos", h.listCombos)
		v1.POST("/combos", h.addCombo)

		v1.GET("/customers", h.listCustomers)
		v1.GET("/customers/:id/balance", h.balance)
		v1.POST("/customers/:id/credit", h.credit)
		v1.POST("/customers/:id/deduct", h.deduct)
		v1.DELETE("/customers/:id", h.removeCustomer)
		v1.GET("/customers/:id/purchases", h.purchaseCount)
		v1.GET("/customers/:id/purchases/:purchaseId/verify", h.verifyOwnership)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// PurchaseRequest is a single-unit purchase submitted by the front end.
type PurchaseRequest struct {
	CustomerID int64   `json:"customer_id" binding:"required"`
	Platform   string  `json:"platform" binding:"required"`
	PlanLabel  string  `json:"plan_label" binding:"required"`
	Price      float64 `json:"price" binding:"required,gt=0"`
}

// ComboPurchaseRequest is a combo purchase submitted by the front end.
type ComboPurchaseRequest struct {
	CustomerID int64  `json:"customer_id" binding:"required"`
	ComboTitle string `json:"combo_title" binding:"required"`
}

// AddStockRequest is an administrative stock addition.
type AddStockRequest struct {
	Platform  string  `json:"platform" binding:"required"`
	PlanLabel string  `json:"plan_label" binding:"required"`
	Login     string  `json:"login" binding:"required"`
	Secret    string  `json:"secret" binding:"required"`
	Price     float64 `json:"price" binding:"required,gt=0"`
	Capacity  int     `json:"capacity"`
}

// DeleteStockRequest identifies one unit to remove.
type DeleteStockRequest struct {
	Platform  string `json:"platform" binding:"required"`
	PlanLabel string `json:"plan_label" binding:"required"`
	Login     string `json:"login" binding:"required"`
}

// AmountRequest carries an administrative credit or deduction amount.
type AmountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (h *Handler) purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	receipt, err := h.purchaseService.Purchase(c.Request.Context(), req.CustomerID, req.Platform, req.PlanLabel, req.Price)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) purchaseCombo(c *gin.Context) {
	var req ComboPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	receipts, err := h.purchaseService.PurchaseCombo(c.Request.Context(), req.CustomerID, req.ComboTitle)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipts": receipts})
}

// respondPurchaseError maps recoverable outcomes to structured 409 responses
// so the front end can show a precise message; everything else is a 500.
func respondPurchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"code": "INSUFFICIENT_FUNDS", "error": "Balance does not cover the price"})
	case errors.Is(err, service.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"code": "OUT_OF_STOCK", "error": "Requested stock is exhausted"})
	case errors.Is(err, service.ErrComboNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "COMBO_NOT_FOUND", "error": "Unknown combo"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Purchase failed", "details": err.Error()})
	}
}

func (h *Handler) catalogSummary(c *gin.Context) {
	summary, err := h.catalogService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load catalog", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) availability(c *gin.Context) {
	platform := c.Query("platform")
	category, ok := models.ParseCategory(c.Query("category"))
	if platform == "" || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform and category query params required"})
		return
	}

	count, err := h.catalogService.CountAvailable(c.Request.Context(), platform, category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count stock", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"platform": platform, "category": category, "available": count})
}

func (h *Handler) stockOverview(c *gin.Context) {
	counts, err := h.catalogService.StockOverview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": counts})
}

func (h *Handler) addStock(c *gin.Context) {
	var req AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	unit := models.InventoryUnit{
		Platform:  req.Platform,
		PlanLabel: req.PlanLabel,
		Login:     req.Login,
		Secret:    req.Secret,
		UnitPrice: req.Price,
	}
	if err := h.purchaseService.AddStock(c.Request.Context(), unit, req.Capacity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to add stock", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

func (h *Handler) deleteStock(c *gin.Context) {
	var req DeleteStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	found, err := h.purchaseService.DeleteStock(c.Request.Context(), req.Platform, req.PlanLabel, req.Login)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock", "details": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unit not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) listCombos(c *gin.Context) {
	combos, err := h.purchaseService.Combos(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load combos", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"combos": combos})
}

func (h *Handler) addCombo(c *gin.Context) {
	var combo models.ComboDefinition
	if err := c.ShouldBindJSON(&combo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.purchaseService.AddCombo(c.Request.Context(), combo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to add combo", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

func (h *Handler) listCustomers(c *gin.Context) {
	accounts, err := h.ledgerService.Accounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load accounts", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": accounts})
}

func (h *Handler) balance(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	balance, err := h.ledgerService.Balance(customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "balance": balance})
}

func (h *Handler) credit(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	balance, err := h.purchaseService.CreditBalance(c.Request.Context(), customerID, req.Amount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to credit balance", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "balance": balance})
}

func (h *Handler) deduct(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	balance, err := h.purchaseService.DeductBalance(c.Request.Context(), customerID, req.Amount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deduct balance", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "balance": balance})
}

func (h *Handler) removeCustomer(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	if err := h.purchaseService.RemoveAccount(c.Request.Context(), customerID); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove account", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) purchaseCount(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	count, err := h.purchaseService.CustomerPurchaseCount(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count purchases", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "purchases": count})
}

func (h *Handler) verifyOwnership(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	verification, err := h.purchaseService.VerifyPurchaseOwnership(c.Request.Context(), customerID, c.Param("purchaseId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify purchase", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "verification": verification})
}

func customerIDParam(c *gin.Context) (int64, bool) {
	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return 0, false
	}
	return customerID, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

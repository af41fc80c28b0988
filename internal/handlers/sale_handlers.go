package handlers

import (
	"net/http"
	"strings"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets a client retry CreateSale without selling twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// SaleHandler serves sale groups and their lines.
type SaleHandler struct {
	saleService services.SaleService
	cache       InventoryCache
}

// NewSaleHandler creates a new SaleHandler. cache may be nil.
func NewSaleHandler(ss services.SaleService, cache InventoryCache) *SaleHandler {
	return &SaleHandler{saleService: ss, cache: cache}
}

// CreateSale records a checkout as one sale group.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req services.CreateSaleRequest
	if !bindJSON(c, &req, "CreateSale") {
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))

	group, err := h.saleService.CreateSale(c.Request.Context(), sess, req)
	if err != nil {
		invalidateOnPartialFailure(c, h.cache, sess.StoreID, err)
		respondServiceError(c, err, "CreateSale: Error from saleService.CreateSale", "Failed to create sale.")
		return
	}
	invalidateStock(c, h.cache, sess.StoreID)
	c.JSON(http.StatusCreated, group)
}

func (h *SaleHandler) GetSales(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.SaleFilters
	if !bindQuery(c, &filters) {
		return
	}
	if !validDate(c, filters.Date, "date") {
		return
	}

	groups, total, err := h.saleService.ListSaleGroups(c.Request.Context(), sess, filters)
	if err != nil {
		respondServiceError(c, err, "GetSales: Error from saleService.ListSaleGroups", "Failed to fetch sales.")
		return
	}
	if groups == nil {
		groups = []models.SaleGroup{}
	}
	listResponse(c, groups, total, filters.Page, filters.PageSize)
}

func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "sale")
	if !ok {
		return
	}

	group, err := h.saleService.GetSaleGroup(c.Request.Context(), sess, id)
	if err != nil {
		respondServiceError(c, err, "GetSaleByID: Error from saleService.GetSaleGroup", "Failed to fetch sale.")
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteSale removes a whole sale group and returns its stock.
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "sale")
	if !ok {
		return
	}

	if err := h.saleService.DeleteSaleGroup(c.Request.Context(), sess, id); err != nil {
		invalidateOnPartialFailure(c, h.cache, sess.StoreID, err)
		respondServiceError(c, err, "DeleteSale: Error from saleService.DeleteSaleGroup", "Failed to delete sale.")
		return
	}
	invalidateStock(c, h.cache, sess.StoreID)
	c.Status(http.StatusNoContent)
}

func (h *SaleHandler) EditSaleLine(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "sale line")
	if !ok {
		return
	}
	var req services.EditSaleLineRequest
	if !bindJSON(c, &req, "EditSaleLine") {
		return
	}

	line, err := h.saleService.EditSaleLine(c.Request.Context(), sess, id, req)
	if err != nil {
		invalidateOnPartialFailure(c, h.cache, sess.StoreID, err)
		respondServiceError(c, err, "EditSaleLine: Error from saleService.EditSaleLine", "Failed to update sale line.")
		return
	}
	invalidateStock(c, h.cache, sess.StoreID)
	c.JSON(http.StatusOK, line)
}

func (h *SaleHandler) DeleteSaleLine(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "sale line")
	if !ok {
		return
	}

	if err := h.saleService.DeleteSaleLine(c.Request.Context(), sess, id); err != nil {
		invalidateOnPartialFailure(c, h.cache, sess.StoreID, err)
		respondServiceError(c, err, "DeleteSaleLine: Error from saleService.DeleteSaleLine", "Failed to delete sale line.")
		return
	}
	invalidateStock(c, h.cache, sess.StoreID)
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"retail_backoffice/internal/cache"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves stock reads through the cache.
type InventoryHandler struct {
	ledger services.InventoryLedger
	cache  InventoryCache
}

// NewInventoryHandler creates a new InventoryHandler. cache may be nil.
func NewInventoryHandler(ledger services.InventoryLedger, cache InventoryCache) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, cache: cache}
}

type inventoryPage struct {
	Records []models.InventoryRecord `json:"records"`
	Total   int                      `json:"total"`
}

// GetInventory lists stock records; low_stock limits it to records at or below the threshold.
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.InventoryFilters
	if !bindQuery(c, &filters) {
		return
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	key := cache.InventoryListKey(sess.StoreID, filters)
	var page inventoryPage
	if !cacheGet(c, h.cache, key, &page) {
		records, total, err := h.ledger.ListInventory(c.Request.Context(), sess, filters)
		if err != nil {
			respondServiceError(c, err, "GetInventory: Error from ledger.ListInventory", "Failed to fetch inventory.")
			return
		}
		if records == nil {
			records = []models.InventoryRecord{}
		}
		page = inventoryPage{Records: records, Total: total}
		cacheSet(c, h.cache, sess.StoreID, key, page)
	}
	listResponse(c, page.Records, page.Total, filters.Page, filters.PageSize)
}

// GetInventoryByProduct returns the stock record of one product.
func (h *InventoryHandler) GetInventoryByProduct(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId", "product")
	if !ok {
		return
	}

	key := cache.InventoryKey(sess.StoreID, productID)
	var rec models.InventoryRecord
	if !cacheGet(c, h.cache, key, &rec) {
		stored, err := h.ledger.GetInventory(c.Request.Context(), sess, productID)
		if err != nil {
			respondServiceError(c, err, "GetInventoryByProduct: Error from ledger.GetInventory", "Failed to fetch inventory.")
			return
		}
		rec = *stored
		cacheSet(c, h.cache, sess.StoreID, key, rec)
	}
	c.JSON(http.StatusOK, rec)
}

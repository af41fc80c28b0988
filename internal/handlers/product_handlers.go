package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves the catalog and restocking.
type ProductHandler struct {
	productService services.ProductService
	ledger         services.InventoryLedger
	cache          InventoryCache
}

// NewProductHandler creates a new ProductHandler. cache may be nil.
func NewProductHandler(ps services.ProductService, ledger services.InventoryLedger, cache InventoryCache) *ProductHandler {
	return &ProductHandler{productService: ps, ledger: ledger, cache: cache}
}

// CreateProduct adds a product and seeds its stock.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req services.CreateProductRequest
	if !bindJSON(c, &req, "CreateProduct") {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), sess, req)
	if err != nil {
		invalidateOnPartialFailure(c, h.cache, sess.StoreID, err)
		respondServiceError(c, err, "CreateProduct: Error from productService.CreateProduct", "Failed to create product.")
		return
	}
	invalidateStock(c, h.cache, sess.StoreID)
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.ProductFilters
	if !bindQuery(c, &filters) {
		return
	}

	products, total, err := h.productService.ListProducts(c.Request.Context(), sess, filters)
	if err != nil {
		respondServiceError(c, err, "GetProducts: Error from productService.ListProducts", "Failed to fetch products.")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	listResponse(c, products, total, filters.Page, filters.PageSize)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), sess, id)
	if err != nil {
		respondServiceError(c, err, "GetProductByID: Error from productService.GetProduct", "Failed to fetch product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

// RestockProduct adds a purchased batch to stock.
func (h *ProductHandler) RestockProduct(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}
	var req services.RestockRequest
	if !bindJSON(c, &req, "RestockProduct") {
		return
	}

	rec, err := h.ledger.Restock(c.Request.Context(), sess, id, req)
	if err != nil {
		invalidateOnPartialFailure(c, h.cache, sess.StoreID, err)
		respondServiceError(c, err, "RestockProduct: Error from ledger.Restock", "Failed to restock product.")
		return
	}
	invalidateStock(c, h.cache, sess.StoreID)
	c.JSON(http.StatusOK, rec)
}

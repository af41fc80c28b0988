package handlers

import (
	"context"
	"errors"

	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryCache is the read-through cache in front of stock reads.
// Cache failures never fail a request.
type InventoryCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, storeID int64, key string, value interface{}) error
	InvalidateStore(ctx context.Context, storeID int64) error
}

func cacheGet(c *gin.Context, cache InventoryCache, key string, dest interface{}) bool {
	if cache == nil {
		return false
	}
	found, err := cache.GetJSON(c.Request.Context(), key, dest)
	if err != nil {
		utils.LogWarn("Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return found
}

func cacheSet(c *gin.Context, cache InventoryCache, storeID int64, key string, value interface{}) {
	if cache == nil {
		return
	}
	if err := cache.SetJSON(c.Request.Context(), storeID, key, value); err != nil {
		utils.LogWarn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// invalidateStock drops cached stock of the store after a write that moved inventory.
func invalidateStock(c *gin.Context, cache InventoryCache, storeID int64) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateStore(c.Request.Context(), storeID); err != nil {
		utils.LogWarn("Cache invalidation failed", map[string]interface{}{"store_id": storeID, "error": err.Error()})
	}
}

// invalidateOnPartialFailure drops cached stock when a failed write may still have moved inventory.
func invalidateOnPartialFailure(c *gin.Context, cache InventoryCache, storeID int64, err error) {
	if errors.Is(err, services.ErrPartialFailure) {
		invalidateStock(c, cache, storeID)
	}
}

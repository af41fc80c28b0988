package handlers

import (
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// InventoryMovementHandler exposes the stock audit trail.
type InventoryMovementHandler struct {
	ledger services.InventoryLedger
}

// NewInventoryMovementHandler creates a new InventoryMovementHandler.
func NewInventoryMovementHandler(ledger services.InventoryLedger) *InventoryMovementHandler {
	return &InventoryMovementHandler{ledger: ledger}
}

// GetInventoryMovements handles fetching movements filtered by product and type.
func (h *InventoryMovementHandler) GetInventoryMovements(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.MovementFilters
	if !bindQuery(c, &filters) {
		return
	}

	movements, total, err := h.ledger.ListMovements(c.Request.Context(), sess, filters)
	if err != nil {
		respondServiceError(c, err, "GetInventoryMovements: Error from ledger.ListMovements", "Failed to fetch inventory movements.")
		return
	}
	if movements == nil {
		movements = []models.InventoryMovement{}
	}
	listResponse(c, movements, total, filters.Page, filters.PageSize)
}

package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// DebtHandler serves the debt ledger.
type DebtHandler struct {
	debtService services.DebtService
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(ds services.DebtService) *DebtHandler {
	return &DebtHandler{debtService: ds}
}

// CreateDebt records goods handed over on credit.
func (h *DebtHandler) CreateDebt(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req services.RecordDebtRequest
	if !bindJSON(c, &req, "CreateDebt") {
		return
	}

	debt, err := h.debtService.RecordDebt(c.Request.Context(), sess, req)
	if err != nil {
		respondServiceError(c, err, "CreateDebt: Error from debtService.RecordDebt", "Failed to record debt.")
		return
	}
	c.JSON(http.StatusCreated, debt)
}

// GetDebts lists every debt, settled ones last.
func (h *DebtHandler) GetDebts(c *gin.Context) {
	h.listDebts(c, false)
}

// GetOutstandingDebts lists unpaid and partially paid debts, oldest first.
func (h *DebtHandler) GetOutstandingDebts(c *gin.Context) {
	h.listDebts(c, true)
}

func (h *DebtHandler) listDebts(c *gin.Context, outstanding bool) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.DebtFilters
	if !bindQuery(c, &filters) {
		return
	}

	var (
		debts []models.DebtRecord
		total int
		err   error
	)
	if outstanding {
		debts, total, err = h.debtService.ListOutstanding(c.Request.Context(), sess, filters)
	} else {
		debts, total, err = h.debtService.ListDebts(c.Request.Context(), sess, filters)
	}
	if err != nil {
		respondServiceError(c, err, "GetDebts: Error from debtService", "Failed to fetch debts.")
		return
	}
	if debts == nil {
		debts = []models.DebtRecord{}
	}
	listResponse(c, debts, total, filters.Page, filters.PageSize)
}

func (h *DebtHandler) GetDebtByID(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "debt")
	if !ok {
		return
	}

	debt, err := h.debtService.GetDebt(c.Request.Context(), sess, id)
	if err != nil {
		respondServiceError(c, err, "GetDebtByID: Error from debtService.GetDebt", "Failed to fetch debt.")
		return
	}
	c.JSON(http.StatusOK, debt)
}

// CreatePayment records a repayment against a debt.
func (h *DebtHandler) CreatePayment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "debt")
	if !ok {
		return
	}
	var req services.RecordPaymentRequest
	if !bindJSON(c, &req, "CreatePayment") {
		return
	}

	payment, err := h.debtService.RecordPayment(c.Request.Context(), sess, id, req)
	if err != nil {
		respondServiceError(c, err, "CreatePayment: Error from debtService.RecordPayment", "Failed to record payment.")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *DebtHandler) GetPayments(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "debt")
	if !ok {
		return
	}

	payments, err := h.debtService.ListPayments(c.Request.Context(), sess, id)
	if err != nil {
		respondServiceError(c, err, "GetPayments: Error from debtService.ListPayments", "Failed to fetch payments.")
		return
	}
	if payments == nil {
		payments = []models.PaymentRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": payments, "total": len(payments)})
}

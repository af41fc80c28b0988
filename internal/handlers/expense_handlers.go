package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService services.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(es services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: es}
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req services.CreateExpenseRequest
	if !bindJSON(c, &req, "CreateExpense") {
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), sess, req)
	if err != nil {
		respondServiceError(c, err, "CreateExpense: Error from expenseService.CreateExpense", "Failed to create expense.")
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// GetExpenses lists expenses in a date range with their total amount.
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.ExpenseFilters
	if !bindQuery(c, &filters) {
		return
	}
	if !validDate(c, filters.From, "from") || !validDate(c, filters.To, "to") {
		return
	}

	list, err := h.expenseService.ListExpenses(c.Request.Context(), sess, filters)
	if err != nil {
		respondServiceError(c, err, "GetExpenses: Error from expenseService.ListExpenses", "Failed to fetch expenses.")
		return
	}
	expenses := list.Expenses
	if expenses == nil {
		expenses = []models.Expense{}
	}
	page, pageSize := filters.Page, filters.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	c.JSON(http.StatusOK, gin.H{
		"data":         expenses,
		"total":        list.Total,
		"total_amount": list.TotalAmount,
		"page":         page,
		"page_size":    pageSize,
	})
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "expense")
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), sess, id); err != nil {
		respondServiceError(c, err, "DeleteExpense: Error from expenseService.DeleteExpense", "Failed to delete expense.")
		return
	}
	c.Status(http.StatusNoContent)
}

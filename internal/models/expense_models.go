package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          int64           `json:"id"`
	StoreID     int64           `json:"store_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	CreatedBy   *int64          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseFilters struct {
	From     *string `form:"from"` // YYYY-MM-DD
	To       *string `form:"to"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleGroup is one checkout. TotalAmount equals the sum of its line amounts.
type SaleGroup struct {
	ID                 int64           `json:"id"`
	StoreID            int64           `json:"store_id"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaymentMethod      string          `json:"payment_method"`
	IdempotencyKey     *string         `json:"idempotency_key,omitempty"`
	RequestFingerprint *string         `json:"-"`
	CreatedBy          *int64          `json:"created_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	Lines              []SaleLine      `json:"lines,omitempty"`
}

// SaleLine is one product within a sale group. DeviceIDs and DeviceSizes are
// aligned by position; an empty identifier marks an untracked unit.
type SaleLine struct {
	ID            int64           `json:"id"`
	SaleGroupID   int64           `json:"sale_group_id"`
	StoreID       int64           `json:"store_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	DeviceIDs     []string        `json:"device_ids"`
	DeviceSizes   []string        `json:"device_sizes"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleFilters defines the available filters for querying sale groups.
type SaleFilters struct {
	PaymentMethod *string `form:"payment_method"`
	Date          *string `form:"date"` // YYYY-MM-DD
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

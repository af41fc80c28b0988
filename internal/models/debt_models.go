package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DebtStatus string

const (
	DebtStatusOwing   DebtStatus = "owing"
	DebtStatusPartial DebtStatus = "partial"
	DebtStatusPaid    DebtStatus = "paid"
)

// DeriveDebtStatus computes the status from the owed amount and the sum of payments.
func DeriveDebtStatus(owed, paid decimal.Decimal) DebtStatus {
	switch {
	case owed.Sub(paid).LessThanOrEqual(decimal.Zero):
		return DebtStatusPaid
	case paid.GreaterThan(decimal.Zero):
		return DebtStatusPartial
	default:
		return DebtStatusOwing
	}
}

// DebtRecord is a credit sale. AmountPaid, RemainingBalance and Status are
// derived from the payment history and never stored.
type DebtRecord struct {
	ID               int64           `json:"id"`
	StoreID          int64           `json:"store_id"`
	CustomerID       int64           `json:"customer_id"`
	CustomerName     string          `json:"customer_name,omitempty"`
	ProductID        int64           `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	Qty              int             `json:"qty"`
	AmountOwed       decimal.Decimal `json:"amount_owed"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Status           DebtStatus      `json:"status"`
	DebtDate         time.Time       `json:"debt_date"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ApplyPaid fills the derived fields. The remaining balance is clamped at zero.
func (d *DebtRecord) ApplyPaid(paid decimal.Decimal) {
	d.AmountPaid = paid
	remaining := d.AmountOwed.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	d.RemainingBalance = remaining
	d.Status = DeriveDebtStatus(d.AmountOwed, paid)
}

// PaymentRecord is an append-only installment against a debt.
type PaymentRecord struct {
	ID          int64           `json:"id"`
	DebtID      int64           `json:"debt_id"`
	StoreID     int64           `json:"store_id"`
	CustomerID  int64           `json:"customer_id"`
	ProductID   int64           `json:"product_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate time.Time       `json:"payment_date"`
}

type DebtFilters struct {
	CustomerID      *int64 `form:"customer_id"`
	OutstandingOnly bool   `form:"-"`
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size"`
}

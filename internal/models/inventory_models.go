package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry of a store. PurchasePrice is the cost of the
// whole purchased batch and PurchaseQty its size.
type Product struct {
	ID               int64           `json:"id"`
	StoreID          int64           `json:"store_id"`
	Name             string          `json:"name"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	PurchaseQty      int             `json:"purchase_qty"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	SupplierName     *string         `json:"supplier_name,omitempty"`
	DeviceIDTemplate *string         `json:"device_id_template,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Inventory *InventoryRecord `json:"inventory,omitempty"`
}

// UnitCost is purchase_price / purchase_qty, zero for an empty batch.
func (p Product) UnitCost() decimal.Decimal {
	if p.PurchaseQty <= 0 {
		return decimal.Zero
	}
	return p.PurchasePrice.Div(decimal.NewFromInt(int64(p.PurchaseQty))).Round(2)
}

// InventoryRecord tracks stock of one product. AvailableQty never goes below zero.
type InventoryRecord struct {
	ProductID    int64     `json:"product_id"`
	StoreID      int64     `json:"store_id"`
	ProductName  string    `json:"product_name,omitempty"`
	AvailableQty int       `json:"available_qty"`
	QuantitySold int       `json:"quantity_sold"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Movement types written to inventory_movements.
const (
	MovementTypeSeed       = "seed"
	MovementTypeSale       = "sale"
	MovementTypeSaleEdit   = "sale_edit"
	MovementTypeSaleDelete = "sale_delete"
	MovementTypeRestock    = "restock"
)

// InventoryMovement is one applied stock delta.
type InventoryMovement struct {
	ID              int64     `json:"id"`
	StoreID         int64     `json:"store_id"`
	ProductID       int64     `json:"product_id"`
	ProductName     string    `json:"product_name,omitempty"`
	UserID          *int64    `json:"user_id,omitempty"`
	MovementType    string    `json:"movement_type"`
	QuantityChanged int       `json:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty"`
	ReferenceID     *int64    `json:"reference_id,omitempty"`
	MovementDate    time.Time `json:"movement_date"`
}

type ProductFilters struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type InventoryFilters struct {
	LowStockThreshold *int `form:"low_stock"`
	Page              int  `form:"page"`
	PageSize          int  `form:"page_size"`
}

type MovementFilters struct {
	ProductID    *int64  `form:"product_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}

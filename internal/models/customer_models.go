package models

import "time"

// Customer is a buyer of the store, referenced by debts.
type Customer struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	FullName    string    `json:"full_name" binding:"required"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CustomerFilters struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

package models

import "time"

// Store roles. The owner manages staff accounts of the store.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Store is a tenant; every business row carries its id.
type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	StoreID      int64     `json:"store_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credentials for login request
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegistrationPayload creates a store together with its owner account.
type RegistrationPayload struct {
	StoreName string  `json:"store_name" binding:"required"`
	Username  string  `json:"username" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	FullName  *string `json:"full_name,omitempty"`
}

// CreateUserPayload is used by an owner to add staff.
type CreateUserPayload struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName *string `json:"full_name,omitempty"`
	Role     string  `json:"role" binding:"omitempty,oneof=owner staff"`
}

type UserStatusPayload struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// LoginResponse is returned by login and register.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
	Store       *Store    `json:"store,omitempty"`
}

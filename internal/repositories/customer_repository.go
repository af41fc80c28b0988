package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
)

// CustomerRepository defines the interface for customer-related database operations.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, executor SQLExecutor, storeID, id int64) (*models.Customer, error)
	GetCustomers(ctx context.Context, storeID int64, filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, executor SQLExecutor, storeID, id int64) error
}

type customerRepository struct {
	db SQLExecutor
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db SQLExecutor) CustomerRepository {
	return &customerRepository{db: db}
}

// CreateCustomer inserts a new customer. A phone number is unique within a store.
func (r *customerRepository) CreateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) error {
	query := `INSERT INTO customers (store_id, full_name, phone_number, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	currentTime := time.Now().UTC()
	customer.CreatedAt = currentTime
	customer.UpdatedAt = currentTime

	err := executor.QueryRowContext(ctx, query,
		customer.StoreID, customer.FullName, customer.PhoneNumber, customer.Notes, customer.CreatedAt, customer.UpdatedAt,
	).Scan(&customer.ID)
	if err != nil {
		return mapError(err, "creating customer")
	}
	return nil
}

// GetCustomerByID retrieves a customer by its ID.
func (r *customerRepository) GetCustomerByID(ctx context.Context, executor SQLExecutor, storeID, id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT id, store_id, full_name, phone_number, notes, created_at, updated_at
	          FROM customers WHERE store_id = $1 AND id = $2`
	err := executor.QueryRowContext(ctx, query, storeID, id).Scan(
		&customer.ID, &customer.StoreID, &customer.FullName, &customer.PhoneNumber, &customer.Notes,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("getting customer by ID %d", id))
	}
	return customer, nil
}

// GetCustomers retrieves a list of customers with pagination and optional search.
func (r *customerRepository) GetCustomers(ctx context.Context, storeID int64, filters models.CustomerFilters) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, store_id, full_name, phone_number, notes, created_at, updated_at, COUNT(*) OVER() AS total_count
	                          FROM customers WHERE store_id = $1`)
	args := []interface{}{storeID}
	argCount := 2

	if search := strings.TrimSpace(filters.Search); search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (full_name ILIKE $%d OR phone_number ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+search+"%")
		argCount++
	}
	queryBuilder.WriteString(" ORDER BY full_name ASC, id ASC")
	args = appendPagination(&queryBuilder, args, argCount, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapError(err, "querying customers")
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.StoreID, &c.FullName, &c.PhoneNumber, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt, &totalCount); err != nil {
			return nil, 0, mapError(err, "scanning customer")
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "iterating customer rows")
	}
	return customers, totalCount, nil
}

// UpdateCustomer updates an existing customer in the database.
func (r *customerRepository) UpdateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers SET full_name = $1, phone_number = $2, notes = $3, updated_at = $4
	          WHERE store_id = $5 AND id = $6`
	customer.UpdatedAt = time.Now().UTC()
	result, err := executor.ExecContext(ctx, query,
		customer.FullName, customer.PhoneNumber, customer.Notes, customer.UpdatedAt, customer.StoreID, customer.ID)
	if err != nil {
		return mapError(err, fmt.Sprintf("updating customer %d", customer.ID))
	}
	return requireAffected(result, fmt.Sprintf("updating customer %d", customer.ID))
}

// DeleteCustomer fails with ErrForeignKey while debts still reference the customer.
func (r *customerRepository) DeleteCustomer(ctx context.Context, executor SQLExecutor, storeID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM customers WHERE store_id = $1 AND id = $2`, storeID, id)
	if err != nil {
		return mapError(err, fmt.Sprintf("deleting customer %d", id))
	}
	return requireAffected(result, fmt.Sprintf("deleting customer %d", id))
}

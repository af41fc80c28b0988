package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
)

// InventoryRepository holds one stock row per product.
type InventoryRepository interface {
	CreateInventory(ctx context.Context, executor SQLExecutor, record *models.InventoryRecord) error
	GetInventory(ctx context.Context, executor SQLExecutor, storeID, productID int64) (*models.InventoryRecord, error)
	GetInventoryList(ctx context.Context, storeID int64, filters models.InventoryFilters) ([]models.InventoryRecord, int, error)
	// AdjustStock adds availableDelta to available_qty in one guarded statement.
	// It returns ErrConditionFailed when the result would be negative and
	// ErrNotFound when the product has no inventory row.
	AdjustStock(ctx context.Context, executor SQLExecutor, storeID, productID int64, availableDelta, soldDelta int) (*models.InventoryRecord, error)
}

type inventoryRepository struct {
	db SQLExecutor
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db SQLExecutor) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateInventory(ctx context.Context, executor SQLExecutor, record *models.InventoryRecord) error {
	query := `INSERT INTO inventory (product_id, store_id, available_qty, quantity_sold, last_updated)
	          VALUES ($1, $2, $3, $4, $5)`
	record.LastUpdated = time.Now().UTC()
	_, err := executor.ExecContext(ctx, query,
		record.ProductID, record.StoreID, record.AvailableQty, record.QuantitySold, record.LastUpdated)
	if err != nil {
		return mapError(err, "creating inventory record")
	}
	return nil
}

func (r *inventoryRepository) GetInventory(ctx context.Context, executor SQLExecutor, storeID, productID int64) (*models.InventoryRecord, error) {
	query := `SELECT i.product_id, i.store_id, p.name, i.available_qty, i.quantity_sold, i.last_updated
	          FROM inventory i
	          JOIN products p ON p.id = i.product_id
	          WHERE i.store_id = $1 AND i.product_id = $2`
	rec := &models.InventoryRecord{}
	err := executor.QueryRowContext(ctx, query, storeID, productID).Scan(
		&rec.ProductID, &rec.StoreID, &rec.ProductName, &rec.AvailableQty, &rec.QuantitySold, &rec.LastUpdated,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("getting inventory for product %d", productID))
	}
	return rec, nil
}

func (r *inventoryRepository) GetInventoryList(ctx context.Context, storeID int64, filters models.InventoryFilters) ([]models.InventoryRecord, int, error) {
	records := []models.InventoryRecord{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT i.product_id, i.store_id, p.name, i.available_qty, i.quantity_sold, i.last_updated,
	    COUNT(*) OVER() AS total_count
	  FROM inventory i
	  JOIN products p ON p.id = i.product_id
	  WHERE i.store_id = $1`)
	args := []interface{}{storeID}
	argCounter := 2

	if filters.LowStockThreshold != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND i.available_qty <= $%d", argCounter))
		args = append(args, *filters.LowStockThreshold)
		argCounter++
	}
	queryBuilder.WriteString(" ORDER BY i.available_qty ASC, p.name ASC")
	args = appendPagination(&queryBuilder, args, argCounter, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapError(err, "querying inventory")
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.InventoryRecord
		if err := rows.Scan(&rec.ProductID, &rec.StoreID, &rec.ProductName, &rec.AvailableQty,
			&rec.QuantitySold, &rec.LastUpdated, &totalCount); err != nil {
			return nil, 0, mapError(err, "scanning inventory")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "iterating inventory rows")
	}
	return records, totalCount, nil
}

func (r *inventoryRepository) AdjustStock(ctx context.Context, executor SQLExecutor, storeID, productID int64, availableDelta, soldDelta int) (*models.InventoryRecord, error) {
	query := `UPDATE inventory
	          SET available_qty = available_qty + $1,
	              quantity_sold = GREATEST(quantity_sold + $2, 0),
	              last_updated = $3
	          WHERE store_id = $4 AND product_id = $5 AND available_qty + $1 >= 0
	          RETURNING product_id, store_id, available_qty, quantity_sold, last_updated`

	rec := &models.InventoryRecord{}
	err := executor.QueryRowContext(ctx, query, availableDelta, soldDelta, time.Now().UTC(), storeID, productID).Scan(
		&rec.ProductID, &rec.StoreID, &rec.AvailableQty, &rec.QuantitySold, &rec.LastUpdated,
	)
	if err == nil {
		return rec, nil
	}
	mapped := mapError(err, fmt.Sprintf("adjusting stock of product %d", productID))
	if errors.Is(mapped, ErrCheckViolation) {
		return nil, fmt.Errorf("%w: %v", ErrConditionFailed, mapped)
	}
	if !errors.Is(mapped, ErrNotFound) {
		return nil, mapped
	}

	// No row matched: either the guard failed or there is no inventory row.
	var exists bool
	if err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory WHERE store_id = $1 AND product_id = $2)`,
		storeID, productID).Scan(&exists); err != nil {
		return nil, mapError(err, "checking inventory row")
	}
	if exists {
		return nil, ErrConditionFailed
	}
	return nil, ErrNotFound
}

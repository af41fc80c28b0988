package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
)

// InventoryMovementRepository defines the interface for inventory movement-related database operations.
type InventoryMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.InventoryMovement) error
	GetMovements(ctx context.Context, storeID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementRepository struct {
	db SQLExecutor
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(db SQLExecutor) InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.InventoryMovement) error {
	query := `INSERT INTO inventory_movements
	          (store_id, product_id, user_id, movement_type, quantity_changed, reason, reference_id, movement_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if movement.MovementDate.IsZero() {
		movement.MovementDate = time.Now().UTC()
	}

	err := executor.QueryRowContext(ctx, query,
		movement.StoreID, movement.ProductID, movement.UserID, movement.MovementType,
		movement.QuantityChanged, movement.Reason, movement.ReferenceID, movement.MovementDate,
	).Scan(&movement.ID)
	if err != nil {
		return mapError(err, "creating inventory movement")
	}
	return nil
}

func (r *inventoryMovementRepository) GetMovements(ctx context.Context, storeID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.store_id, im.product_id, p.name, im.user_id, im.movement_type,
	    im.quantity_changed, im.reason, im.reference_id, im.movement_date,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  JOIN products p ON p.id = im.product_id
	  WHERE im.store_id = $1`)

	args := []interface{}{storeID}
	argCount := 2

	if filters.ProductID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND im.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND im.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}
	queryBuilder.WriteString(" ORDER BY im.movement_date DESC, im.id DESC")
	args = appendPagination(&queryBuilder, args, argCount, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapError(err, "querying inventory movements")
	}
	defer rows.Close()

	for rows.Next() {
		var m models.InventoryMovement
		if err := rows.Scan(
			&m.ID, &m.StoreID, &m.ProductID, &m.ProductName, &m.UserID, &m.MovementType,
			&m.QuantityChanged, &m.Reason, &m.ReferenceID, &m.MovementDate, &totalCount,
		); err != nil {
			return nil, 0, mapError(err, "scanning inventory movement")
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "iterating inventory movement rows")
	}
	return movements, totalCount, nil
}

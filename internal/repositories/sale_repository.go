package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale group and sale line operations.
type SaleRepository interface {
	// Sale group methods
	CreateSaleGroup(ctx context.Context, executor SQLExecutor, group *models.SaleGroup) error
	GetSaleGroupByID(ctx context.Context, executor SQLExecutor, storeID, groupID int64) (*models.SaleGroup, error)
	GetSaleGroupByIdempotencyKey(ctx context.Context, executor SQLExecutor, storeID int64, key string) (*models.SaleGroup, error)
	GetSaleGroups(ctx context.Context, storeID int64, filters models.SaleFilters) ([]models.SaleGroup, int, error)
	RecalculateSaleGroupTotal(ctx context.Context, executor SQLExecutor, storeID, groupID int64) (decimal.Decimal, error)
	DeleteSaleGroup(ctx context.Context, executor SQLExecutor, storeID, groupID int64) error

	// Sale line methods
	CreateSaleLine(ctx context.Context, executor SQLExecutor, line *models.SaleLine) error
	GetSaleLineByID(ctx context.Context, executor SQLExecutor, storeID, lineID int64, forUpdate bool) (*models.SaleLine, error)
	GetSaleLinesByGroupID(ctx context.Context, executor SQLExecutor, storeID, groupID int64) ([]models.SaleLine, error)
	UpdateSaleLine(ctx context.Context, executor SQLExecutor, line *models.SaleLine) error
	DeleteSaleLine(ctx context.Context, executor SQLExecutor, storeID, lineID int64) error
	CountSaleLines(ctx context.Context, executor SQLExecutor, storeID, groupID int64) (int, error)
	// FindLinesWithDeviceIDs returns lines of the store sharing any of ids, except excludeLineID.
	FindLinesWithDeviceIDs(ctx context.Context, executor SQLExecutor, storeID int64, ids []string, excludeLineID int64) ([]models.SaleLine, error)
}

type saleRepository struct {
	db SQLExecutor
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db SQLExecutor) SaleRepository {
	return &saleRepository{db: db}
}

// --- Sale group methods ---

const saleGroupColumns = `g.id, g.store_id, g.total_amount, g.payment_method, g.idempotency_key, g.request_fingerprint, g.created_by, g.created_at`

func scanSaleGroup(s scanner, g *models.SaleGroup, extra ...interface{}) error {
	dest := []interface{}{&g.ID, &g.StoreID, &g.TotalAmount, &g.PaymentMethod, &g.IdempotencyKey, &g.RequestFingerprint, &g.CreatedBy, &g.CreatedAt}
	return s.Scan(append(dest, extra...)...)
}

func (r *saleRepository) CreateSaleGroup(ctx context.Context, executor SQLExecutor, group *models.SaleGroup) error {
	query := `INSERT INTO sale_groups (store_id, total_amount, payment_method, idempotency_key, request_fingerprint, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	err := executor.QueryRowContext(ctx, query,
		group.StoreID, group.TotalAmount, group.PaymentMethod, group.IdempotencyKey, group.RequestFingerprint, group.CreatedBy, group.CreatedAt,
	).Scan(&group.ID)
	if err != nil {
		return mapError(err, "creating sale group")
	}
	return nil
}

func (r *saleRepository) GetSaleGroupByID(ctx context.Context, executor SQLExecutor, storeID, groupID int64) (*models.SaleGroup, error) {
	query := `SELECT ` + saleGroupColumns + ` FROM sale_groups g WHERE g.store_id = $1 AND g.id = $2`
	group := &models.SaleGroup{}
	if err := scanSaleGroup(executor.QueryRowContext(ctx, query, storeID, groupID), group); err != nil {
		return nil, mapError(err, fmt.Sprintf("getting sale group %d", groupID))
	}
	return group, nil
}

func (r *saleRepository) GetSaleGroupByIdempotencyKey(ctx context.Context, executor SQLExecutor, storeID int64, key string) (*models.SaleGroup, error) {
	query := `SELECT ` + saleGroupColumns + ` FROM sale_groups g WHERE g.store_id = $1 AND g.idempotency_key = $2`
	group := &models.SaleGroup{}
	if err := scanSaleGroup(executor.QueryRowContext(ctx, query, storeID, key), group); err != nil {
		return nil, mapError(err, "getting sale group by idempotency key")
	}
	return group, nil
}

func (r *saleRepository) GetSaleGroups(ctx context.Context, storeID int64, filters models.SaleFilters) ([]models.SaleGroup, int, error) {
	groups := []models.SaleGroup{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + saleGroupColumns + `, COUNT(*) OVER() AS total_count
	  FROM sale_groups g
	  WHERE g.store_id = $1`)
	args := []interface{}{storeID}
	argCounter := 2

	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND g.payment_method = $%d", argCounter))
		args = append(args, *filters.PaymentMethod)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		if start, end, ok := dayBounds(*filters.Date); ok {
			queryBuilder.WriteString(fmt.Sprintf(" AND g.created_at >= $%d AND g.created_at < $%d", argCounter, argCounter+1))
			args = append(args, start, end)
			argCounter += 2
		}
	}
	queryBuilder.WriteString(" ORDER BY g.created_at DESC, g.id DESC")
	args = appendPagination(&queryBuilder, args, argCounter, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapError(err, "querying sale groups")
	}
	defer rows.Close()

	for rows.Next() {
		var g models.SaleGroup
		if err := scanSaleGroup(rows, &g, &totalCount); err != nil {
			return nil, 0, mapError(err, "scanning sale group")
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "iterating sale group rows")
	}
	return groups, totalCount, nil
}

// RecalculateSaleGroupTotal sets total_amount to the sum of the group's line amounts.
func (r *saleRepository) RecalculateSaleGroupTotal(ctx context.Context, executor SQLExecutor, storeID, groupID int64) (decimal.Decimal, error) {
	query := `UPDATE sale_groups g
	          SET total_amount = COALESCE((SELECT SUM(l.amount) FROM sale_lines l WHERE l.sale_group_id = g.id), 0)
	          WHERE g.store_id = $1 AND g.id = $2
	          RETURNING g.total_amount`
	var total decimal.Decimal
	if err := executor.QueryRowContext(ctx, query, storeID, groupID).Scan(&total); err != nil {
		return decimal.Zero, mapError(err, fmt.Sprintf("recalculating total of sale group %d", groupID))
	}
	return total, nil
}

// DeleteSaleGroup removes the header; its lines go with it (ON DELETE CASCADE).
func (r *saleRepository) DeleteSaleGroup(ctx context.Context, executor SQLExecutor, storeID, groupID int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM sale_groups WHERE store_id = $1 AND id = $2`, storeID, groupID)
	if err != nil {
		return mapError(err, fmt.Sprintf("deleting sale group %d", groupID))
	}
	return requireAffected(result, fmt.Sprintf("deleting sale group %d", groupID))
}

// --- Sale line methods ---

const saleLineColumns = `l.id, l.sale_group_id, l.store_id, l.product_id, p.name, l.quantity, l.unit_price, l.amount,
	l.device_ids, l.device_sizes, l.payment_method, l.created_at, l.updated_at`

func scanSaleLine(s scanner, l *models.SaleLine) error {
	err := s.Scan(&l.ID, &l.SaleGroupID, &l.StoreID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.Amount,
		pq.Array(&l.DeviceIDs), pq.Array(&l.DeviceSizes), &l.PaymentMethod, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return err
	}
	if l.DeviceIDs == nil {
		l.DeviceIDs = []string{}
	}
	if l.DeviceSizes == nil {
		l.DeviceSizes = []string{}
	}
	return nil
}

func (r *saleRepository) CreateSaleLine(ctx context.Context, executor SQLExecutor, line *models.SaleLine) error {
	query := `INSERT INTO sale_lines
	            (sale_group_id, store_id, product_id, quantity, unit_price, amount, device_ids, device_sizes,
	             payment_method, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	now := time.Now().UTC()
	line.CreatedAt = now
	line.UpdatedAt = now
	err := executor.QueryRowContext(ctx, query,
		line.SaleGroupID, line.StoreID, line.ProductID, line.Quantity, line.UnitPrice, line.Amount,
		pq.Array(line.DeviceIDs), pq.Array(line.DeviceSizes), line.PaymentMethod, line.CreatedAt, line.UpdatedAt,
	).Scan(&line.ID)
	if err != nil {
		return mapError(err, "creating sale line")
	}
	return nil
}

func (r *saleRepository) GetSaleLineByID(ctx context.Context, executor SQLExecutor, storeID, lineID int64, forUpdate bool) (*models.SaleLine, error) {
	query := `SELECT ` + saleLineColumns + `
	          FROM sale_lines l
	          JOIN products p ON p.id = l.product_id
	          WHERE l.store_id = $1 AND l.id = $2`
	if forUpdate {
		query += " FOR UPDATE OF l"
	}
	line := &models.SaleLine{}
	if err := scanSaleLine(executor.QueryRowContext(ctx, query, storeID, lineID), line); err != nil {
		return nil, mapError(err, fmt.Sprintf("getting sale line %d", lineID))
	}
	return line, nil
}

func (r *saleRepository) GetSaleLinesByGroupID(ctx context.Context, executor SQLExecutor, storeID, groupID int64) ([]models.SaleLine, error) {
	query := `SELECT ` + saleLineColumns + `
	          FROM sale_lines l
	          JOIN products p ON p.id = l.product_id
	          WHERE l.store_id = $1 AND l.sale_group_id = $2
	          ORDER BY l.id ASC`
	return r.queryLines(ctx, executor, query, storeID, groupID)
}

func (r *saleRepository) FindLinesWithDeviceIDs(ctx context.Context, executor SQLExecutor, storeID int64, ids []string, excludeLineID int64) ([]models.SaleLine, error) {
	if len(ids) == 0 {
		return []models.SaleLine{}, nil
	}
	query := `SELECT ` + saleLineColumns + `
	          FROM sale_lines l
	          JOIN products p ON p.id = l.product_id
	          WHERE l.store_id = $1 AND l.device_ids && $2::text[] AND l.id <> $3
	          ORDER BY l.id ASC`
	return r.queryLines(ctx, executor, query, storeID, pq.Array(ids), excludeLineID)
}

func (r *saleRepository) queryLines(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.SaleLine, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "querying sale lines")
	}
	defer rows.Close()

	lines := []models.SaleLine{}
	for rows.Next() {
		var l models.SaleLine
		if err := scanSaleLine(rows, &l); err != nil {
			return nil, mapError(err, "scanning sale line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterating sale line rows")
	}
	return lines, nil
}

func (r *saleRepository) UpdateSaleLine(ctx context.Context, executor SQLExecutor, line *models.SaleLine) error {
	query := `UPDATE sale_lines SET
	            quantity = $1, unit_price = $2, amount = $3, device_ids = $4, device_sizes = $5,
	            payment_method = $6, updated_at = $7
	          WHERE store_id = $8 AND id = $9`
	line.UpdatedAt = time.Now().UTC()
	result, err := executor.ExecContext(ctx, query,
		line.Quantity, line.UnitPrice, line.Amount, pq.Array(line.DeviceIDs), pq.Array(line.DeviceSizes),
		line.PaymentMethod, line.UpdatedAt, line.StoreID, line.ID,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("updating sale line %d", line.ID))
	}
	return requireAffected(result, fmt.Sprintf("updating sale line %d", line.ID))
}

func (r *saleRepository) DeleteSaleLine(ctx context.Context, executor SQLExecutor, storeID, lineID int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM sale_lines WHERE store_id = $1 AND id = $2`, storeID, lineID)
	if err != nil {
		return mapError(err, fmt.Sprintf("deleting sale line %d", lineID))
	}
	return requireAffected(result, fmt.Sprintf("deleting sale line %d", lineID))
}

func (r *saleRepository) CountSaleLines(ctx context.Context, executor SQLExecutor, storeID, groupID int64) (int, error) {
	var n int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sale_lines WHERE store_id = $1 AND sale_group_id = $2`, storeID, groupID).Scan(&n)
	if err != nil {
		return 0, mapError(err, fmt.Sprintf("counting lines of sale group %d", groupID))
	}
	return n, nil
}

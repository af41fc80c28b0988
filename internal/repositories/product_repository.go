package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product catalog operations.
type ProductRepository interface {
	CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	GetProductByID(ctx context.Context, executor SQLExecutor, storeID, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, storeID int64, filters models.ProductFilters) ([]models.Product, int, error)
	AddPurchaseBatch(ctx context.Context, executor SQLExecutor, storeID, id int64, qty int, cost decimal.Decimal) (*models.Product, error)
}

type productRepository struct {
	db SQLExecutor
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db SQLExecutor) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.store_id, p.name, p.purchase_price, p.purchase_qty, p.selling_price,
	p.supplier_name, p.device_id_template, p.created_at, p.updated_at`

func scanProduct(s scanner, p *models.Product, extra ...interface{}) error {
	dest := []interface{}{
		&p.ID, &p.StoreID, &p.Name, &p.PurchasePrice, &p.PurchaseQty, &p.SellingPrice,
		&p.SupplierName, &p.DeviceIDTemplate, &p.CreatedAt, &p.UpdatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

func (r *productRepository) CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	query := `INSERT INTO products
	            (store_id, name, purchase_price, purchase_qty, selling_price, supplier_name, device_id_template, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := executor.QueryRowContext(ctx, query,
		product.StoreID, product.Name, product.PurchasePrice, product.PurchaseQty, product.SellingPrice,
		product.SupplierName, product.DeviceIDTemplate, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return mapError(err, "creating product")
	}
	return nil
}

func (r *productRepository) GetProductByID(ctx context.Context, executor SQLExecutor, storeID, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.store_id = $1 AND p.id = $2`
	product := &models.Product{}
	if err := scanProduct(executor.QueryRowContext(ctx, query, storeID, id), product); err != nil {
		return nil, mapError(err, fmt.Sprintf("getting product by ID %d", id))
	}
	return product, nil
}

// GetProducts lists products with their inventory row.
func (r *productRepository) GetProducts(ctx context.Context, storeID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `,
	    COALESCE(i.available_qty, 0), COALESCE(i.quantity_sold, 0), COALESCE(i.last_updated, p.updated_at),
	    COUNT(*) OVER() AS total_count
	  FROM products p
	  LEFT JOIN inventory i ON i.product_id = p.id AND i.store_id = p.store_id
	  WHERE p.store_id = $1`)

	args := []interface{}{storeID}
	argCounter := 2

	if search := strings.TrimSpace(filters.Search); search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (p.name ILIKE $%d OR p.supplier_name ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+search+"%")
		argCounter++
	}
	queryBuilder.WriteString(" ORDER BY p.name ASC, p.id ASC")
	args = appendPagination(&queryBuilder, args, argCounter, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapError(err, "querying products")
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		inv := &models.InventoryRecord{}
		if err := scanProduct(rows, &p, &inv.AvailableQty, &inv.QuantitySold, &inv.LastUpdated, &totalCount); err != nil {
			return nil, 0, mapError(err, "scanning product")
		}
		inv.ProductID = p.ID
		inv.StoreID = p.StoreID
		inv.ProductName = p.Name
		p.Inventory = inv
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "iterating product rows")
	}
	return products, totalCount, nil
}

// AddPurchaseBatch grows purchase_qty by qty and purchase_price by cost.
func (r *productRepository) AddPurchaseBatch(ctx context.Context, executor SQLExecutor, storeID, id int64, qty int, cost decimal.Decimal) (*models.Product, error) {
	query := `UPDATE products p
	          SET purchase_qty = p.purchase_qty + $1,
	              purchase_price = p.purchase_price + $2,
	              updated_at = $3
	          WHERE p.store_id = $4 AND p.id = $5
	          RETURNING ` + productColumns

	product := &models.Product{}
	row := executor.QueryRowContext(ctx, query, qty, cost, time.Now().UTC(), storeID, id)
	if err := scanProduct(row, product); err != nil {
		return nil, mapError(err, fmt.Sprintf("adding purchase batch to product %d", id))
	}
	return product, nil
}

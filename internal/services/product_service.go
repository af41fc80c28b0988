package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Product DTOs ---
type CreateProductRequest struct {
	Name             string          `json:"name" binding:"required"`
	PurchasePrice    decimal.Decimal `json:"purchase_price" binding:"gte=0"`
	PurchaseQty      int             `json:"purchase_qty" binding:"gte=0"`
	SellingPrice     decimal.Decimal `json:"selling_price" binding:"gte=0"`
	SupplierName     *string         `json:"supplier_name"`
	DeviceIDTemplate *string         `json:"device_id_template"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, sess models.Session, req CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, sess models.Session, productID int64) (*models.Product, error)
	ListProducts(ctx context.Context, sess models.Session, filters models.ProductFilters) ([]models.Product, int, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	ledger      InventoryLedger
	db          repositories.Database
	tx          txRunner
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, ledger InventoryLedger, db repositories.Database, timeout time.Duration) ProductService {
	return &productService{
		productRepo: pr,
		ledger:      ledger,
		db:          db,
		tx:          txRunner{db: db, timeout: timeout},
	}
}

func validateProduct(req CreateProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return newValidationError("name", "is required")
	}
	if req.PurchasePrice.IsNegative() {
		return newValidationError("purchase_price", "must not be negative")
	}
	if req.PurchaseQty < 0 {
		return newValidationError("purchase_qty", "must not be negative")
	}
	if req.SellingPrice.IsNegative() {
		return newValidationError("selling_price", "must not be negative")
	}
	return nil
}

// CreateProduct adds a product and seeds its inventory with the purchased batch.
func (s *productService) CreateProduct(ctx context.Context, sess models.Session, req CreateProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:          sess.StoreID,
		Name:             strings.TrimSpace(req.Name),
		PurchasePrice:    utils.RoundMoney(req.PurchasePrice),
		PurchaseQty:      req.PurchaseQty,
		SellingPrice:     utils.RoundMoney(req.SellingPrice),
		SupplierName:     utils.TrimmedPtr(req.SupplierName),
		DeviceIDTemplate: utils.TrimmedPtr(req.DeviceIDTemplate),
	}

	err := s.tx.run(ctx, "create product", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		if err := s.productRepo.CreateProduct(ctx, tx, product); err != nil {
			return persistenceErr("create product", err, nil)
		}
		steps.add("product %d created", product.ID)

		inv, err := s.ledger.SeedInventory(ctx, tx, sess, product)
		if err != nil {
			return err
		}
		steps.add("inventory of product %d seeded with %d", product.ID, inv.AvailableQty)
		product.Inventory = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Product created", map[string]interface{}{
		"store_id": sess.StoreID, "product_id": product.ID, "purchase_qty": product.PurchaseQty,
	})
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, sess models.Session, productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, s.db, sess.StoreID, productID)
	if err != nil {
		return nil, persistenceErr("get product", err, ErrProductNotFound)
	}
	inv, err := s.ledger.GetInventory(ctx, sess, productID)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}
	product.Inventory = inv
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, sess models.Session, filters models.ProductFilters) ([]models.Product, int, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	products, total, err := s.productRepo.GetProducts(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, 0, persistenceErr("list products", err, nil)
	}
	return products, total, nil
}

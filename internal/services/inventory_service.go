package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail_backoffice/internal/config"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// RestockRequest adds a purchased batch to a product.
type RestockRequest struct {
	Quantity int              `json:"quantity" binding:"required,gt=0"`
	Cost     *decimal.Decimal `json:"cost" binding:"omitempty,gte=0"`
	Reason   *string          `json:"reason"`
}

// InventoryLedger keeps available_qty non-negative and consistent with sales.
// Methods taking an executor run inside the caller's transaction.
type InventoryLedger interface {
	CheckAvailability(ctx context.Context, executor repositories.SQLExecutor, storeID, productID int64, requested int) error
	ApplySaleDelta(ctx context.Context, executor repositories.SQLExecutor, sess models.Session, productID int64, qtyDelta int, kind string, referenceID *int64) (*models.InventoryRecord, error)
	SeedInventory(ctx context.Context, executor repositories.SQLExecutor, sess models.Session, product *models.Product) (*models.InventoryRecord, error)

	Restock(ctx context.Context, sess models.Session, productID int64, req RestockRequest) (*models.InventoryRecord, error)
	GetInventory(ctx context.Context, sess models.Session, productID int64) (*models.InventoryRecord, error)
	ListInventory(ctx context.Context, sess models.Session, filters models.InventoryFilters) ([]models.InventoryRecord, int, error)
	ListMovements(ctx context.Context, sess models.Session, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type InventoryLedgerConfig struct {
	SoldCounterPolicy string
	OperationTimeout  time.Duration
}

type inventoryLedger struct {
	inventoryRepo repositories.InventoryRepository
	productRepo   repositories.ProductRepository
	movementRepo  repositories.InventoryMovementRepository
	db            repositories.Database
	tx            txRunner
	soldPolicy    string
}

// NewInventoryLedger creates a new instance of InventoryLedger.
func NewInventoryLedger(
	ir repositories.InventoryRepository,
	pr repositories.ProductRepository,
	mr repositories.InventoryMovementRepository,
	db repositories.Database,
	cfg InventoryLedgerConfig,
) InventoryLedger {
	policy := cfg.SoldCounterPolicy
	if policy == "" {
		policy = config.SoldCounterLifetime
	}
	return &inventoryLedger{
		inventoryRepo: ir,
		productRepo:   pr,
		movementRepo:  mr,
		db:            db,
		tx:            txRunner{db: db, timeout: cfg.OperationTimeout},
		soldPolicy:    policy,
	}
}

// CheckAvailability reads the current stock and fails when it cannot cover requested.
func (l *inventoryLedger) CheckAvailability(ctx context.Context, executor repositories.SQLExecutor, storeID, productID int64, requested int) error {
	rec, err := l.inventoryRepo.GetInventory(ctx, executor, storeID, productID)
	if err != nil {
		return persistenceErr("check availability", err, ErrProductNotFound)
	}
	if requested > rec.AvailableQty {
		return &InsufficientStockError{
			ProductID:   productID,
			ProductName: rec.ProductName,
			Available:   rec.AvailableQty,
			Requested:   requested,
		}
	}
	return nil
}

// soldDelta is the change of quantity_sold for a stock delta of the given kind.
func (l *inventoryLedger) soldDelta(kind string, qtyDelta int) int {
	switch kind {
	case models.MovementTypeSale:
		return -qtyDelta
	case models.MovementTypeSaleEdit, models.MovementTypeSaleDelete:
		if l.soldPolicy == config.SoldCounterNet {
			return -qtyDelta
		}
	}
	return 0
}

// ApplySaleDelta changes available_qty by qtyDelta with a single guarded
// update and records the movement. A decrement that would go below zero
// fails with *InsufficientStockError and changes nothing.
func (l *inventoryLedger) ApplySaleDelta(ctx context.Context, executor repositories.SQLExecutor, sess models.Session, productID int64, qtyDelta int, kind string, referenceID *int64) (*models.InventoryRecord, error) {
	if qtyDelta == 0 {
		rec, err := l.inventoryRepo.GetInventory(ctx, executor, sess.StoreID, productID)
		return rec, persistenceErr("read inventory", err, ErrProductNotFound)
	}

	rec, err := l.inventoryRepo.AdjustStock(ctx, executor, sess.StoreID, productID, qtyDelta, l.soldDelta(kind, qtyDelta))
	if errors.Is(err, repositories.ErrConditionFailed) {
		stockErr := &InsufficientStockError{ProductID: productID, Requested: -qtyDelta}
		if current, readErr := l.inventoryRepo.GetInventory(ctx, executor, sess.StoreID, productID); readErr == nil {
			stockErr.ProductName = current.ProductName
			stockErr.Available = current.AvailableQty
		}
		return nil, stockErr
	}
	if err != nil {
		return nil, persistenceErr("apply inventory delta", err, ErrProductNotFound)
	}

	if err := l.recordMovement(ctx, executor, sess, productID, kind, qtyDelta, nil, referenceID); err != nil {
		return nil, err
	}
	return rec, nil
}

// SeedInventory creates the stock row of a new product from its purchase batch.
func (l *inventoryLedger) SeedInventory(ctx context.Context, executor repositories.SQLExecutor, sess models.Session, product *models.Product) (*models.InventoryRecord, error) {
	rec := &models.InventoryRecord{
		ProductID:    product.ID,
		StoreID:      product.StoreID,
		ProductName:  product.Name,
		AvailableQty: product.PurchaseQty,
	}
	if err := l.inventoryRepo.CreateInventory(ctx, executor, rec); err != nil {
		return nil, persistenceErr("seed inventory", err, nil)
	}
	if product.PurchaseQty > 0 {
		if err := l.recordMovement(ctx, executor, sess, product.ID, models.MovementTypeSeed, product.PurchaseQty, nil, nil); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (l *inventoryLedger) recordMovement(ctx context.Context, executor repositories.SQLExecutor, sess models.Session, productID int64, kind string, qty int, reason *string, referenceID *int64) error {
	var userID *int64
	if sess.UserID > 0 {
		id := sess.UserID
		userID = &id
	}
	movement := &models.InventoryMovement{
		StoreID:         sess.StoreID,
		ProductID:       productID,
		UserID:          userID,
		MovementType:    kind,
		QuantityChanged: qty,
		Reason:          reason,
		ReferenceID:     referenceID,
	}
	if err := l.movementRepo.CreateMovement(ctx, executor, movement); err != nil {
		return persistenceErr("record inventory movement", err, nil)
	}
	return nil
}

// Restock adds a purchased batch: available stock and the product's batch size
// grow by the quantity, the batch cost by the given cost.
func (l *inventoryLedger) Restock(ctx context.Context, sess models.Session, productID int64, req RestockRequest) (*models.InventoryRecord, error) {
	if req.Quantity <= 0 {
		return nil, newValidationError("quantity", "must be greater than zero")
	}
	cost := decimal.Zero
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return nil, newValidationError("cost", "must not be negative")
		}
		cost = utils.RoundMoney(*req.Cost)
	}
	reason := utils.TrimmedPtr(req.Reason)

	var rec *models.InventoryRecord
	err := l.tx.run(ctx, "restock product", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		product, err := l.productRepo.AddPurchaseBatch(ctx, tx, sess.StoreID, productID, req.Quantity, cost)
		if err != nil {
			return persistenceErr("restock product", err, ErrProductNotFound)
		}
		steps.add("product %d purchase batch +%d", productID, req.Quantity)

		rec, err = l.inventoryRepo.AdjustStock(ctx, tx, sess.StoreID, productID, req.Quantity, 0)
		if err != nil {
			return persistenceErr("restock inventory", err, ErrProductNotFound)
		}
		rec.ProductName = product.Name
		steps.add("inventory of product %d +%d", productID, req.Quantity)

		return l.recordMovement(ctx, tx, sess, productID, models.MovementTypeRestock, req.Quantity, reason, nil)
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Product restocked", map[string]interface{}{
		"store_id": sess.StoreID, "product_id": productID, "added_qty": req.Quantity, "available_qty": rec.AvailableQty,
	})
	return rec, nil
}

func (l *inventoryLedger) GetInventory(ctx context.Context, sess models.Session, productID int64) (*models.InventoryRecord, error) {
	rec, err := l.inventoryRepo.GetInventory(ctx, l.db, sess.StoreID, productID)
	if err != nil {
		return nil, persistenceErr(fmt.Sprintf("get inventory of product %d", productID), err, ErrProductNotFound)
	}
	return rec, nil
}

func (l *inventoryLedger) ListInventory(ctx context.Context, sess models.Session, filters models.InventoryFilters) ([]models.InventoryRecord, int, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	records, total, err := l.inventoryRepo.GetInventoryList(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, 0, persistenceErr("list inventory", err, nil)
	}
	return records, total, nil
}

func (l *inventoryLedger) ListMovements(ctx context.Context, sess models.Session, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	movements, total, err := l.movementRepo.GetMovements(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, 0, persistenceErr("list inventory movements", err, nil)
	}
	return movements, total, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

func normalizePage(page, pageSize *int) {
	if *page <= 0 {
		*page = 1
	}
	if *pageSize <= 0 {
		*pageSize = defaultPageSize
	}
	if *pageSize > maxPageSize {
		*pageSize = maxPageSize
	}
}

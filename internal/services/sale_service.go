package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLen = 255

// --- Sale DTOs ---

// SaleLineRequest describes one cart line. Without QuantityManual the number
// of non-empty DeviceIDs becomes the quantity.
type SaleLineRequest struct {
	ProductID      int64           `json:"product_id" binding:"required,gt=0"`
	Quantity       int             `json:"quantity" binding:"gte=0"`
	QuantityManual bool            `json:"quantity_manual"`
	UnitPrice      decimal.Decimal `json:"unit_price" binding:"gt=0"`
	DeviceIDs      []string        `json:"device_ids"`
	DeviceSizes    []string        `json:"device_sizes"`
}

type CreateSaleRequest struct {
	PaymentMethod  string            `json:"payment_method" binding:"required"`
	Lines          []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	IdempotencyKey string            `json:"-"`
}

// EditSaleLineRequest patches a sale line; nil fields keep their value. A nil
// DeviceIDs keeps the stored identifiers, an empty list clears them.
type EditSaleLineRequest struct {
	Quantity       *int             `json:"quantity" binding:"omitempty,gt=0"`
	QuantityManual bool             `json:"quantity_manual"`
	UnitPrice      *decimal.Decimal `json:"unit_price" binding:"omitempty,gt=0"`
	DeviceIDs      []string         `json:"device_ids"`
	DeviceSizes    []string         `json:"device_sizes"`
	PaymentMethod  *string          `json:"payment_method"`
}

// Locker serialises work on a key across server instances.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// SaleService coordinates sale groups, sale lines and the inventory they move.
type SaleService interface {
	CreateSale(ctx context.Context, sess models.Session, req CreateSaleRequest) (*models.SaleGroup, error)
	EditSaleLine(ctx context.Context, sess models.Session, lineID int64, req EditSaleLineRequest) (*models.SaleLine, error)
	DeleteSaleLine(ctx context.Context, sess models.Session, lineID int64) error
	DeleteSaleGroup(ctx context.Context, sess models.Session, groupID int64) error
	GetSaleGroup(ctx context.Context, sess models.Session, groupID int64) (*models.SaleGroup, error)
	ListSaleGroups(ctx context.Context, sess models.Session, filters models.SaleFilters) ([]models.SaleGroup, int, error)
}

type SaleServiceConfig struct {
	OperationTimeout    time.Duration
	GlobalDeviceIDCheck bool
	IdempotencyLockTTL  time.Duration
}

type saleService struct {
	saleRepo repositories.SaleRepository
	ledger   InventoryLedger
	db       repositories.Database
	locker   Locker
	tx       txRunner
	cfg      SaleServiceConfig
}

// NewSaleService creates a new instance of SaleService. locker may be nil.
func NewSaleService(
	sr repositories.SaleRepository,
	ledger InventoryLedger,
	db repositories.Database,
	locker Locker,
	cfg SaleServiceConfig,
) SaleService {
	if cfg.IdempotencyLockTTL <= 0 {
		cfg.IdempotencyLockTTL = 15 * time.Second
	}
	return &saleService{
		saleRepo: sr,
		ledger:   ledger,
		db:       db,
		locker:   locker,
		tx:       txRunner{db: db, timeout: cfg.OperationTimeout},
		cfg:      cfg,
	}
}

func prefixField(err error, prefix string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: prefix + "." + ve.Field, Message: ve.Message}
	}
	return err
}

// prepareLines validates every cart line before anything is read or written.
func (s *saleService) prepareLines(sess models.Session, paymentMethod string, reqs []SaleLineRequest) ([]models.SaleLine, []string, error) {
	lines := make([]models.SaleLine, 0, len(reqs))
	var cartIDs []string
	seen := make(map[string]struct{})

	for i, lr := range reqs {
		field := fmt.Sprintf("lines[%d]", i)
		if lr.ProductID <= 0 {
			return nil, nil, newValidationError(field+".product_id", "is required")
		}
		set, err := ValidateDeviceIDs(lr.DeviceIDs, lr.DeviceSizes, lr.Quantity, lr.QuantityManual)
		if err != nil {
			return nil, nil, prefixField(err, field)
		}
		if set.Quantity <= 0 {
			return nil, nil, newValidationError(field+".quantity", "must be greater than zero")
		}
		price := utils.RoundMoney(lr.UnitPrice)
		if !price.IsPositive() {
			return nil, nil, newValidationError(field+".unit_price", "must be at least 0.01")
		}
		for _, id := range set.Tracked() {
			if _, dup := seen[id]; dup {
				return nil, nil, &DuplicateDeviceIDError{DeviceID: id}
			}
			seen[id] = struct{}{}
			cartIDs = append(cartIDs, id)
		}

		lines = append(lines, models.SaleLine{
			StoreID:       sess.StoreID,
			ProductID:     lr.ProductID,
			Quantity:      set.Quantity,
			UnitPrice:     price,
			Amount:        price.Mul(decimal.NewFromInt(int64(set.Quantity))),
			DeviceIDs:     set.IDs,
			DeviceSizes:   set.Sizes,
			PaymentMethod: paymentMethod,
		})
	}
	return lines, cartIDs, nil
}

// CreateSale records a sale group with its lines and decrements stock for
// each line, all in one transaction. Availability of the whole cart is
// checked before the first write; quantities of a repeated product are summed.
func (s *saleService) CreateSale(ctx context.Context, sess models.Session, req CreateSaleRequest) (*models.SaleGroup, error) {
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		return nil, newValidationError("payment_method", "is required")
	}
	if len(req.Lines) == 0 {
		return nil, newValidationError("lines", "at least one line is required")
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, newValidationError("idempotency_key", "must be at most %d characters", maxIdempotencyKeyLen)
	}

	lines, cartIDs, err := s.prepareLines(sess, paymentMethod, req.Lines)
	if err != nil {
		return nil, err
	}

	var fingerprint string
	if key != "" {
		fingerprint = saleFingerprint(paymentMethod, lines)
		release, err := s.obtainIdempotencyLock(ctx, sess, key)
		if err != nil {
			return nil, err
		}
		defer release()

		existing, err := s.findByIdempotencyKey(ctx, sess, key, fingerprint)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	var group *models.SaleGroup
	err = s.tx.run(ctx, "create sale", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		requested := make(map[int64]int)
		var productOrder []int64
		for _, l := range lines {
			if _, ok := requested[l.ProductID]; !ok {
				productOrder = append(productOrder, l.ProductID)
			}
			requested[l.ProductID] += l.Quantity
		}
		for _, productID := range productOrder {
			if err := s.ledger.CheckAvailability(ctx, tx, sess.StoreID, productID, requested[productID]); err != nil {
				return err
			}
		}
		if s.cfg.GlobalDeviceIDCheck && len(cartIDs) > 0 {
			recorded, err := s.saleRepo.FindLinesWithDeviceIDs(ctx, tx, sess.StoreID, cartIDs, 0)
			if err != nil {
				return persistenceErr("check device ids", err, nil)
			}
			if err := checkDeviceConflicts(cartIDs, recorded, 0); err != nil {
				return err
			}
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Amount)
		}
		createdBy := sess.UserID
		group = &models.SaleGroup{
			StoreID:            sess.StoreID,
			TotalAmount:        total,
			PaymentMethod:      paymentMethod,
			IdempotencyKey:     utils.NewNullString(key),
			RequestFingerprint: utils.NewNullString(fingerprint),
			CreatedBy:          &createdBy,
		}
		if err := s.saleRepo.CreateSaleGroup(ctx, tx, group); err != nil {
			return persistenceErr("create sale group", err, nil)
		}
		steps.add("sale group %d created", group.ID)

		for i := range lines {
			lines[i].SaleGroupID = group.ID
			if err := s.saleRepo.CreateSaleLine(ctx, tx, &lines[i]); err != nil {
				return persistenceErr("create sale line", err, nil)
			}
			steps.add("sale line %d created", lines[i].ID)
		}

		for _, l := range lines {
			if _, err := s.ledger.ApplySaleDelta(ctx, tx, sess, l.ProductID, -l.Quantity, models.MovementTypeSale, &group.ID); err != nil {
				return err
			}
			steps.add("inventory of product %d adjusted by %d", l.ProductID, -l.Quantity)
		}

		stored, err := s.saleRepo.GetSaleLinesByGroupID(ctx, tx, sess.StoreID, group.ID)
		if err != nil {
			return persistenceErr("load sale lines", err, nil)
		}
		group.Lines = stored
		return nil
	})
	if err != nil {
		// A concurrent request with the same key won the unique constraint.
		if key != "" && errors.Is(err, repositories.ErrDuplicateKey) {
			return s.findByIdempotencyKey(ctx, sess, key, fingerprint)
		}
		return nil, err
	}

	utils.LogInfo("Sale created", map[string]interface{}{
		"store_id": sess.StoreID, "sale_group_id": group.ID, "lines": len(group.Lines), "total": group.TotalAmount.StringFixed(2),
	})
	return group, nil
}

func (s *saleService) obtainIdempotencyLock(ctx context.Context, sess models.Session, key string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Obtain(ctx, fmt.Sprintf("sale-idem:%d:%s", sess.StoreID, key), s.cfg.IdempotencyLockTTL)
	if err != nil {
		if errors.Is(err, ErrRequestInProgress) {
			return nil, err
		}
		// The unique constraint on the key still guards against duplicates.
		utils.LogWarn("Idempotency lock unavailable, continuing without it", map[string]interface{}{
			"store_id": sess.StoreID, "error": err.Error(),
		})
		return func() {}, nil
	}
	return release, nil
}

// saleFingerprint identifies the normalized cart a key was first used with.
func saleFingerprint(paymentMethod string, lines []models.SaleLine) string {
	var b strings.Builder
	b.WriteString(paymentMethod)
	for _, l := range lines {
		fmt.Fprintf(&b, "\x1e%d|%d|%s|%s|%s", l.ProductID, l.Quantity, l.UnitPrice.StringFixed(2),
			strings.Join(l.DeviceIDs, "\x1f"), strings.Join(l.DeviceSizes, "\x1f"))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()
}

func (s *saleService) findByIdempotencyKey(ctx context.Context, sess models.Session, key, fingerprint string) (*models.SaleGroup, error) {
	group, err := s.saleRepo.GetSaleGroupByIdempotencyKey(ctx, s.db, sess.StoreID, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("find sale by idempotency key", err, nil)
	}
	if group.RequestFingerprint != nil && *group.RequestFingerprint != fingerprint {
		utils.LogWarn("Idempotency key reused with a different sale", map[string]interface{}{
			"store_id": sess.StoreID, "sale_group_id": group.ID,
		})
		return nil, newValidationError("idempotency_key", "was already used for a different sale")
	}
	lines, err := s.saleRepo.GetSaleLinesByGroupID(ctx, s.db, sess.StoreID, group.ID)
	if err != nil {
		return nil, persistenceErr("load sale lines", err, nil)
	}
	group.Lines = lines
	utils.LogDebug("Sale replayed for idempotency key", map[string]interface{}{
		"store_id": sess.StoreID, "sale_group_id": group.ID,
	})
	return group, nil
}

// EditSaleLine applies the patch and moves stock by the quantity difference.
// Only an increase needs available stock.
func (s *saleService) EditSaleLine(ctx context.Context, sess models.Session, lineID int64, req EditSaleLineRequest) (*models.SaleLine, error) {
	var updated models.SaleLine
	err := s.tx.run(ctx, "edit sale line", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		original, err := s.saleRepo.GetSaleLineByID(ctx, tx, sess.StoreID, lineID, true)
		if err != nil {
			return persistenceErr("load sale line", err, ErrSaleLineNotFound)
		}

		qty := original.Quantity
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		ids, sizes, manual := original.DeviceIDs, original.DeviceSizes, true
		if req.DeviceIDs != nil {
			ids, sizes, manual = req.DeviceIDs, req.DeviceSizes, req.QuantityManual
		} else if req.DeviceSizes != nil {
			sizes = req.DeviceSizes
		}
		set, err := ValidateDeviceIDs(ids, sizes, qty, manual)
		if err != nil {
			return err
		}
		if set.Quantity <= 0 {
			return newValidationError("quantity", "must be greater than zero")
		}

		price := original.UnitPrice
		if req.UnitPrice != nil {
			price = utils.RoundMoney(*req.UnitPrice)
			if !price.IsPositive() {
				return newValidationError("unit_price", "must be at least 0.01")
			}
		}
		paymentMethod := original.PaymentMethod
		if req.PaymentMethod != nil {
			paymentMethod = strings.TrimSpace(*req.PaymentMethod)
			if paymentMethod == "" {
				return newValidationError("payment_method", "must not be empty")
			}
		}

		tracked := set.Tracked()
		if len(tracked) > 0 {
			siblings, err := s.saleRepo.GetSaleLinesByGroupID(ctx, tx, sess.StoreID, original.SaleGroupID)
			if err != nil {
				return persistenceErr("load sale lines", err, nil)
			}
			if err := checkDeviceConflicts(tracked, siblings, original.ID); err != nil {
				return err
			}
			if s.cfg.GlobalDeviceIDCheck {
				recorded, err := s.saleRepo.FindLinesWithDeviceIDs(ctx, tx, sess.StoreID, tracked, original.ID)
				if err != nil {
					return persistenceErr("check device ids", err, nil)
				}
				if err := checkDeviceConflicts(tracked, recorded, original.ID); err != nil {
					return err
				}
			}
		}

		delta := set.Quantity - original.Quantity
		if delta > 0 {
			if err := s.ledger.CheckAvailability(ctx, tx, sess.StoreID, original.ProductID, delta); err != nil {
				return err
			}
		}

		updated = *original
		updated.Quantity = set.Quantity
		updated.UnitPrice = price
		updated.Amount = price.Mul(decimal.NewFromInt(int64(set.Quantity)))
		updated.DeviceIDs = set.IDs
		updated.DeviceSizes = set.Sizes
		updated.PaymentMethod = paymentMethod
		if err := s.saleRepo.UpdateSaleLine(ctx, tx, &updated); err != nil {
			return persistenceErr("update sale line", err, ErrSaleLineNotFound)
		}
		steps.add("sale line %d updated", updated.ID)

		if delta != 0 {
			if _, err := s.ledger.ApplySaleDelta(ctx, tx, sess, original.ProductID, -delta, models.MovementTypeSaleEdit, &original.SaleGroupID); err != nil {
				return err
			}
			steps.add("inventory of product %d adjusted by %d", original.ProductID, -delta)
		}

		if _, err := s.saleRepo.RecalculateSaleGroupTotal(ctx, tx, sess.StoreID, original.SaleGroupID); err != nil {
			return persistenceErr("recalculate sale total", err, nil)
		}
		steps.add("sale group %d total recalculated", original.SaleGroupID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Sale line edited", map[string]interface{}{
		"store_id": sess.StoreID, "sale_line_id": lineID, "quantity": updated.Quantity,
	})
	return &updated, nil
}

// DeleteSaleLine removes the line, and its group when it was the last line,
// then returns the quantity to stock.
func (s *saleService) DeleteSaleLine(ctx context.Context, sess models.Session, lineID int64) error {
	var groupRemoved bool
	err := s.tx.run(ctx, "delete sale line", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		line, err := s.saleRepo.GetSaleLineByID(ctx, tx, sess.StoreID, lineID, true)
		if err != nil {
			return persistenceErr("load sale line", err, ErrSaleLineNotFound)
		}

		if err := s.saleRepo.DeleteSaleLine(ctx, tx, sess.StoreID, lineID); err != nil {
			return persistenceErr("delete sale line", err, ErrSaleLineNotFound)
		}
		steps.add("sale line %d deleted", lineID)

		remaining, err := s.saleRepo.CountSaleLines(ctx, tx, sess.StoreID, line.SaleGroupID)
		if err != nil {
			return persistenceErr("count sale lines", err, nil)
		}
		if remaining == 0 {
			if err := s.saleRepo.DeleteSaleGroup(ctx, tx, sess.StoreID, line.SaleGroupID); err != nil {
				return persistenceErr("delete sale group", err, nil)
			}
			groupRemoved = true
			steps.add("sale group %d deleted", line.SaleGroupID)
		} else {
			if _, err := s.saleRepo.RecalculateSaleGroupTotal(ctx, tx, sess.StoreID, line.SaleGroupID); err != nil {
				return persistenceErr("recalculate sale total", err, nil)
			}
			steps.add("sale group %d total recalculated", line.SaleGroupID)
		}

		if _, err := s.ledger.ApplySaleDelta(ctx, tx, sess, line.ProductID, line.Quantity, models.MovementTypeSaleDelete, &line.SaleGroupID); err != nil {
			return err
		}
		steps.add("inventory of product %d adjusted by %d", line.ProductID, line.Quantity)
		return nil
	})
	if err != nil {
		return err
	}

	utils.LogInfo("Sale line deleted", map[string]interface{}{
		"store_id": sess.StoreID, "sale_line_id": lineID, "group_removed": groupRemoved,
	})
	return nil
}

// DeleteSaleGroup removes a sale and returns the stock of every line.
func (s *saleService) DeleteSaleGroup(ctx context.Context, sess models.Session, groupID int64) error {
	err := s.tx.run(ctx, "delete sale group", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		if _, err := s.saleRepo.GetSaleGroupByID(ctx, tx, sess.StoreID, groupID); err != nil {
			return persistenceErr("load sale group", err, ErrSaleNotFound)
		}
		lines, err := s.saleRepo.GetSaleLinesByGroupID(ctx, tx, sess.StoreID, groupID)
		if err != nil {
			return persistenceErr("load sale lines", err, nil)
		}

		if err := s.saleRepo.DeleteSaleGroup(ctx, tx, sess.StoreID, groupID); err != nil {
			return persistenceErr("delete sale group", err, ErrSaleNotFound)
		}
		steps.add("sale group %d deleted with %d lines", groupID, len(lines))

		for _, l := range lines {
			if _, err := s.ledger.ApplySaleDelta(ctx, tx, sess, l.ProductID, l.Quantity, models.MovementTypeSaleDelete, &groupID); err != nil {
				return err
			}
			steps.add("inventory of product %d adjusted by %d", l.ProductID, l.Quantity)
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.LogInfo("Sale group deleted", map[string]interface{}{"store_id": sess.StoreID, "sale_group_id": groupID})
	return nil
}

func (s *saleService) GetSaleGroup(ctx context.Context, sess models.Session, groupID int64) (*models.SaleGroup, error) {
	group, err := s.saleRepo.GetSaleGroupByID(ctx, s.db, sess.StoreID, groupID)
	if err != nil {
		return nil, persistenceErr("get sale group", err, ErrSaleNotFound)
	}
	lines, err := s.saleRepo.GetSaleLinesByGroupID(ctx, s.db, sess.StoreID, groupID)
	if err != nil {
		return nil, persistenceErr("load sale lines", err, nil)
	}
	group.Lines = lines
	return group, nil
}

func (s *saleService) ListSaleGroups(ctx context.Context, sess models.Session, filters models.SaleFilters) ([]models.SaleGroup, int, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	groups, total, err := s.saleRepo.GetSaleGroups(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, 0, persistenceErr("list sale groups", err, nil)
	}
	return groups, total, nil
}

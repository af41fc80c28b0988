package services

import (
	"context"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Debt DTOs ---
type RecordDebtRequest struct {
	CustomerID     int64            `json:"customer_id" binding:"required,gt=0"`
	ProductID      int64            `json:"product_id" binding:"required,gt=0"`
	Qty            int              `json:"qty" binding:"required,gt=0"`
	AmountOwed     decimal.Decimal  `json:"amount_owed" binding:"gt=0"`
	InitialDeposit *decimal.Decimal `json:"initial_deposit" binding:"omitempty,gte=0"`
	DebtDate       *time.Time       `json:"debt_date"`
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"gt=0"`
	PaymentDate *time.Time      `json:"payment_date"`
}

// DebtService is the debt ledger. Balances are always derived from the
// payment history; a payment can never exceed the remaining balance.
type DebtService interface {
	RecordDebt(ctx context.Context, sess models.Session, req RecordDebtRequest) (*models.DebtRecord, error)
	RecordPayment(ctx context.Context, sess models.Session, debtID int64, req RecordPaymentRequest) (*models.PaymentRecord, error)
	GetDebt(ctx context.Context, sess models.Session, debtID int64) (*models.DebtRecord, error)
	ListDebts(ctx context.Context, sess models.Session, filters models.DebtFilters) ([]models.DebtRecord, int, error)
	ListOutstanding(ctx context.Context, sess models.Session, filters models.DebtFilters) ([]models.DebtRecord, int, error)
	ListPayments(ctx context.Context, sess models.Session, debtID int64) ([]models.PaymentRecord, error)
}

type debtService struct {
	debtRepo     repositories.DebtRepository
	customerRepo repositories.CustomerRepository
	productRepo  repositories.ProductRepository
	db           repositories.Database
	tx           txRunner
}

// NewDebtService creates a new instance of DebtService.
func NewDebtService(
	dr repositories.DebtRepository,
	cr repositories.CustomerRepository,
	pr repositories.ProductRepository,
	db repositories.Database,
	timeout time.Duration,
) DebtService {
	return &debtService{
		debtRepo:     dr,
		customerRepo: cr,
		productRepo:  pr,
		db:           db,
		tx:           txRunner{db: db, timeout: timeout},
	}
}

// RecordDebt creates a debt. A positive initial deposit is stored as the first payment.
func (s *debtService) RecordDebt(ctx context.Context, sess models.Session, req RecordDebtRequest) (*models.DebtRecord, error) {
	if req.Qty <= 0 {
		return nil, newValidationError("qty", "must be greater than zero")
	}
	owed := utils.RoundMoney(req.AmountOwed)
	if !owed.IsPositive() {
		return nil, newValidationError("amount_owed", "must be at least 0.01")
	}
	deposit := decimal.Zero
	if req.InitialDeposit != nil {
		if req.InitialDeposit.IsNegative() {
			return nil, newValidationError("initial_deposit", "must not be negative")
		}
		deposit = utils.RoundMoney(*req.InitialDeposit)
	}
	if deposit.GreaterThan(owed) {
		return nil, &OverPaymentError{Remaining: owed, Attempted: deposit}
	}

	debt := &models.DebtRecord{
		StoreID:    sess.StoreID,
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Qty:        req.Qty,
		AmountOwed: owed,
	}
	if req.DebtDate != nil {
		debt.DebtDate = req.DebtDate.UTC()
	}

	err := s.tx.run(ctx, "record debt", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		customer, err := s.customerRepo.GetCustomerByID(ctx, tx, sess.StoreID, req.CustomerID)
		if err != nil {
			return persistenceErr("load customer", err, ErrCustomerNotFound)
		}
		product, err := s.productRepo.GetProductByID(ctx, tx, sess.StoreID, req.ProductID)
		if err != nil {
			return persistenceErr("load product", err, ErrProductNotFound)
		}

		if err := s.debtRepo.CreateDebt(ctx, tx, debt); err != nil {
			return persistenceErr("create debt", err, nil)
		}
		steps.add("debt %d created", debt.ID)
		debt.CustomerName = customer.FullName
		debt.ProductName = product.Name

		if deposit.IsPositive() {
			payment := &models.PaymentRecord{
				DebtID:      debt.ID,
				StoreID:     sess.StoreID,
				CustomerID:  debt.CustomerID,
				ProductID:   debt.ProductID,
				AmountPaid:  deposit,
				PaymentDate: debt.CreatedAt,
			}
			if err := s.debtRepo.CreatePayment(ctx, tx, payment); err != nil {
				return persistenceErr("create initial payment", err, nil)
			}
			steps.add("initial payment %d recorded", payment.ID)
		}
		debt.ApplyPaid(deposit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Debt recorded", map[string]interface{}{
		"store_id": sess.StoreID, "debt_id": debt.ID, "amount_owed": owed.StringFixed(2), "deposit": deposit.StringFixed(2),
	})
	return debt, nil
}

// RecordPayment appends a payment. The debt row is locked while the remaining
// balance is recomputed, so concurrent payments cannot overpay together.
func (s *debtService) RecordPayment(ctx context.Context, sess models.Session, debtID int64, req RecordPaymentRequest) (*models.PaymentRecord, error) {
	amount := utils.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, newValidationError("amount", "must be at least 0.01")
	}

	var payment *models.PaymentRecord
	err := s.tx.run(ctx, "record payment", sess, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		debt, err := s.debtRepo.GetDebtByID(ctx, tx, sess.StoreID, debtID, true)
		if err != nil {
			return persistenceErr("load debt", err, ErrDebtNotFound)
		}
		remaining := debt.AmountOwed.Sub(debt.AmountPaid)
		if amount.GreaterThan(remaining) {
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			return &OverPaymentError{DebtID: debtID, Remaining: remaining, Attempted: amount}
		}

		payment = &models.PaymentRecord{
			DebtID:     debt.ID,
			StoreID:    sess.StoreID,
			CustomerID: debt.CustomerID,
			ProductID:  debt.ProductID,
			AmountPaid: amount,
		}
		if req.PaymentDate != nil {
			payment.PaymentDate = req.PaymentDate.UTC()
		}
		if err := s.debtRepo.CreatePayment(ctx, tx, payment); err != nil {
			return persistenceErr("create payment", err, nil)
		}
		steps.add("payment %d recorded", payment.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Debt payment recorded", map[string]interface{}{
		"store_id": sess.StoreID, "debt_id": debtID, "payment_id": payment.ID, "amount": amount.StringFixed(2),
	})
	return payment, nil
}

func (s *debtService) GetDebt(ctx context.Context, sess models.Session, debtID int64) (*models.DebtRecord, error) {
	debt, err := s.debtRepo.GetDebtByID(ctx, s.db, sess.StoreID, debtID, false)
	if err != nil {
		return nil, persistenceErr("get debt", err, ErrDebtNotFound)
	}
	return debt, nil
}

// ListDebts returns outstanding debts before settled ones, oldest first.
func (s *debtService) ListDebts(ctx context.Context, sess models.Session, filters models.DebtFilters) ([]models.DebtRecord, int, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	debts, total, err := s.debtRepo.GetDebts(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, 0, persistenceErr("list debts", err, nil)
	}
	return debts, total, nil
}

// ListOutstanding returns debts with a positive remaining balance, oldest debt_date first.
func (s *debtService) ListOutstanding(ctx context.Context, sess models.Session, filters models.DebtFilters) ([]models.DebtRecord, int, error) {
	filters.OutstandingOnly = true
	return s.ListDebts(ctx, sess, filters)
}

func (s *debtService) ListPayments(ctx context.Context, sess models.Session, debtID int64) ([]models.PaymentRecord, error) {
	if _, err := s.debtRepo.GetDebtByID(ctx, s.db, sess.StoreID, debtID, false); err != nil {
		return nil, persistenceErr("get debt", err, ErrDebtNotFound)
	}
	payments, err := s.debtRepo.GetPaymentsByDebtID(ctx, s.db, sess.StoreID, debtID)
	if err != nil {
		return nil, persistenceErr("list payments", err, nil)
	}
	return payments, nil
}

package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// DebtRepository stores debts and their append-only payments. Balances are
// never stored; they are computed from debt_payments on read.
type DebtRepository interface {
	CreateDebt(ctx context.Context, executor SQLExecutor, debt *models.DebtRecord) error
	// GetDebtByID loads the debt with derived balance fields. With forUpdate the
	// debt row stays locked until the surrounding transaction ends.
	GetDebtByID(ctx context.Context, executor SQLExecutor, storeID, debtID int64, forUpdate bool) (*models.DebtRecord, error)
	GetDebts(ctx context.Context, storeID int64, filters models.DebtFilters) ([]models.DebtRecord, int, error)

	CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.PaymentRecord) error
	SumPayments(ctx context.Context, executor SQLExecutor, debtID int64) (decimal.Decimal, error)
	GetPaymentsByDebtID(ctx context.Context, executor SQLExecutor, storeID, debtID int64) ([]models.PaymentRecord, error)
}

type debtRepository struct {
	db SQLExecutor
}

// NewDebtRepository creates a new instance of DebtRepository.
func NewDebtRepository(db SQLExecutor) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) CreateDebt(ctx context.Context, executor SQLExecutor, debt *models.DebtRecord) error {
	query := `INSERT INTO debts (store_id, customer_id, product_id, qty, amount_owed, debt_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	debt.CreatedAt = time.Now().UTC()
	if debt.DebtDate.IsZero() {
		debt.DebtDate = debt.CreatedAt
	}
	err := executor.QueryRowContext(ctx, query,
		debt.StoreID, debt.CustomerID, debt.ProductID, debt.Qty, debt.AmountOwed, debt.DebtDate, debt.CreatedAt,
	).Scan(&debt.ID)
	if err != nil {
		return mapError(err, "creating debt")
	}
	debt.ApplyPaid(decimal.Zero)
	return nil
}

func (r *debtRepository) GetDebtByID(ctx context.Context, executor SQLExecutor, storeID, debtID int64, forUpdate bool) (*models.DebtRecord, error) {
	query := `SELECT d.id, d.store_id, d.customer_id, c.full_name, d.product_id, p.name, d.qty,
	                 d.amount_owed, d.debt_date, d.created_at
	          FROM debts d
	          JOIN customers c ON c.id = d.customer_id
	          JOIN products p ON p.id = d.product_id
	          WHERE d.store_id = $1 AND d.id = $2`
	if forUpdate {
		query += " FOR UPDATE OF d"
	}

	debt := &models.DebtRecord{}
	err := executor.QueryRowContext(ctx, query, storeID, debtID).Scan(
		&debt.ID, &debt.StoreID, &debt.CustomerID, &debt.CustomerName, &debt.ProductID, &debt.ProductName,
		&debt.Qty, &debt.AmountOwed, &debt.DebtDate, &debt.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("getting debt %d", debtID))
	}

	paid, err := r.SumPayments(ctx, executor, debtID)
	if err != nil {
		return nil, err
	}
	debt.ApplyPaid(paid)
	return debt, nil
}

// GetDebts lists debts with outstanding ones first, each block ordered by
// debt_date then id. OutstandingOnly keeps rows with a positive remainder.
func (r *debtRepository) GetDebts(ctx context.Context, storeID int64, filters models.DebtFilters) ([]models.DebtRecord, int, error) {
	debts := []models.DebtRecord{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT d.id, d.store_id, d.customer_id, c.full_name, d.product_id, p.name, d.qty,
	    d.amount_owed, d.debt_date, d.created_at, COALESCE(pay.paid, 0) AS paid,
	    COUNT(*) OVER() AS total_count
	  FROM debts d
	  JOIN customers c ON c.id = d.customer_id
	  JOIN products p ON p.id = d.product_id
	  LEFT JOIN (SELECT debt_id, SUM(amount_paid) AS paid FROM debt_payments GROUP BY debt_id) pay ON pay.debt_id = d.id
	  WHERE d.store_id = $1`)
	args := []interface{}{storeID}
	argCounter := 2

	if filters.CustomerID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND d.customer_id = $%d", argCounter))
		args = append(args, *filters.CustomerID)
		argCounter++
	}
	if filters.OutstandingOnly {
		queryBuilder.WriteString(" AND d.amount_owed - COALESCE(pay.paid, 0) > 0")
	}
	queryBuilder.WriteString(" ORDER BY (d.amount_owed - COALESCE(pay.paid, 0) > 0) DESC, d.debt_date ASC, d.id ASC")
	args = appendPagination(&queryBuilder, args, argCounter, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapError(err, "querying debts")
	}
	defer rows.Close()

	for rows.Next() {
		var d models.DebtRecord
		var paid decimal.Decimal
		if err := rows.Scan(
			&d.ID, &d.StoreID, &d.CustomerID, &d.CustomerName, &d.ProductID, &d.ProductName, &d.Qty,
			&d.AmountOwed, &d.DebtDate, &d.CreatedAt, &paid, &totalCount,
		); err != nil {
			return nil, 0, mapError(err, "scanning debt")
		}
		d.ApplyPaid(paid)
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "iterating debt rows")
	}
	return debts, totalCount, nil
}

func (r *debtRepository) CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.PaymentRecord) error {
	query := `INSERT INTO debt_payments (debt_id, store_id, customer_id, product_id, amount_paid, payment_date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = time.Now().UTC()
	}
	err := executor.QueryRowContext(ctx, query,
		payment.DebtID, payment.StoreID, payment.CustomerID, payment.ProductID, payment.AmountPaid, payment.PaymentDate,
	).Scan(&payment.ID)
	if err != nil {
		return mapError(err, "creating debt payment")
	}
	return nil
}

func (r *debtRepository) SumPayments(ctx context.Context, executor SQLExecutor, debtID int64) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := executor.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_paid), 0) FROM debt_payments WHERE debt_id = $1`, debtID).Scan(&paid)
	if err != nil {
		return decimal.Zero, mapError(err, fmt.Sprintf("summing payments of debt %d", debtID))
	}
	return paid, nil
}

func (r *debtRepository) GetPaymentsByDebtID(ctx context.Context, executor SQLExecutor, storeID, debtID int64) ([]models.PaymentRecord, error) {
	query := `SELECT id, debt_id, store_id, customer_id, product_id, amount_paid, payment_date
	          FROM debt_payments
	          WHERE store_id = $1 AND debt_id = $2
	          ORDER BY payment_date ASC, id ASC`
	rows, err := executor.QueryContext(ctx, query, storeID, debtID)
	if err != nil {
		return nil, mapError(err, "querying debt payments")
	}
	defer rows.Close()

	payments := []models.PaymentRecord{}
	for rows.Next() {
		var p models.PaymentRecord
		if err := rows.Scan(&p.ID, &p.DebtID, &p.StoreID, &p.CustomerID, &p.ProductID, &p.AmountPaid, &p.PaymentDate); err != nil {
			return nil, mapError(err, "scanning debt payment")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterating debt payment rows")
	}
	return payments, nil
}

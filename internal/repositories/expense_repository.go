package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

type ExpenseRepository interface {
	CreateExpense(ctx context.Context, executor SQLExecutor, expense *models.Expense) error
	// GetExpenses returns a page of expenses, the total row count and the sum over all matching rows.
	GetExpenses(ctx context.Context, storeID int64, filters models.ExpenseFilters) ([]models.Expense, int, decimal.Decimal, error)
	DeleteExpense(ctx context.Context, executor SQLExecutor, storeID, id int64) error
}

type expenseRepository struct {
	db SQLExecutor
}

func NewExpenseRepository(db SQLExecutor) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) CreateExpense(ctx context.Context, executor SQLExecutor, expense *models.Expense) error {
	query := `INSERT INTO expenses (store_id, description, amount, expense_date, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	expense.CreatedAt = time.Now().UTC()
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = expense.CreatedAt
	}
	err := executor.QueryRowContext(ctx, query,
		expense.StoreID, expense.Description, expense.Amount, expense.ExpenseDate, expense.CreatedBy, expense.CreatedAt,
	).Scan(&expense.ID)
	if err != nil {
		return mapError(err, "creating expense")
	}
	return nil
}

func (r *expenseRepository) GetExpenses(ctx context.Context, storeID int64, filters models.ExpenseFilters) ([]models.Expense, int, decimal.Decimal, error) {
	expenses := []models.Expense{}
	totalCount := 0
	totalAmount := decimal.Zero

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, store_id, description, amount, expense_date, created_by, created_at,
	    COUNT(*) OVER() AS total_count, SUM(amount) OVER() AS total_amount
	  FROM expenses WHERE store_id = $1`)
	args := []interface{}{storeID}
	argCounter := 2

	if filters.From != nil {
		if start, _, ok := dayBounds(*filters.From); ok {
			queryBuilder.WriteString(fmt.Sprintf(" AND expense_date >= $%d", argCounter))
			args = append(args, start)
			argCounter++
		}
	}
	if filters.To != nil {
		if _, end, ok := dayBounds(*filters.To); ok {
			queryBuilder.WriteString(fmt.Sprintf(" AND expense_date < $%d", argCounter))
			args = append(args, end)
			argCounter++
		}
	}
	queryBuilder.WriteString(" ORDER BY expense_date DESC, id DESC")
	args = appendPagination(&queryBuilder, args, argCounter, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, decimal.Zero, mapError(err, "querying expenses")
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.StoreID, &e.Description, &e.Amount, &e.ExpenseDate, &e.CreatedBy,
			&e.CreatedAt, &totalCount, &totalAmount); err != nil {
			return nil, 0, decimal.Zero, mapError(err, "scanning expense")
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, decimal.Zero, mapError(err, "iterating expense rows")
	}
	return expenses, totalCount, totalAmount, nil
}

func (r *expenseRepository) DeleteExpense(ctx context.Context, executor SQLExecutor, storeID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM expenses WHERE store_id = $1 AND id = $2`, storeID, id)
	if err != nil {
		return mapError(err, fmt.Sprintf("deleting expense %d", id))
	}
	return requireAffected(result, fmt.Sprintf("deleting expense %d", id))
}

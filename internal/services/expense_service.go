package services

import (
	"context"
	"strings"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

type CreateExpenseRequest struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"gt=0"`
	ExpenseDate *time.Time      `json:"expense_date"`
}

// ExpenseList is a page of expenses with the sum over every matching row.
type ExpenseList struct {
	Expenses    []models.Expense
	Total       int
	TotalAmount decimal.Decimal
}

type ExpenseService interface {
	CreateExpense(ctx context.Context, sess models.Session, req CreateExpenseRequest) (*models.Expense, error)
	ListExpenses(ctx context.Context, sess models.Session, filters models.ExpenseFilters) (*ExpenseList, error)
	DeleteExpense(ctx context.Context, sess models.Session, id int64) error
}

type expenseService struct {
	expenseRepo repositories.ExpenseRepository
	db          repositories.Database
}

func NewExpenseService(repo repositories.ExpenseRepository, db repositories.Database) ExpenseService {
	return &expenseService{expenseRepo: repo, db: db}
}

func (s *expenseService) CreateExpense(ctx context.Context, sess models.Session, req CreateExpenseRequest) (*models.Expense, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, newValidationError("description", "is required")
	}
	amount := utils.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, newValidationError("amount", "must be at least 0.01")
	}
	createdBy := sess.UserID
	expense := &models.Expense{
		StoreID:     sess.StoreID,
		Description: description,
		Amount:      amount,
		CreatedBy:   &createdBy,
	}
	if req.ExpenseDate != nil {
		expense.ExpenseDate = req.ExpenseDate.UTC()
	}
	if err := s.expenseRepo.CreateExpense(ctx, s.db, expense); err != nil {
		return nil, persistenceErr("create expense", err, nil)
	}
	return expense, nil
}

func (s *expenseService) ListExpenses(ctx context.Context, sess models.Session, filters models.ExpenseFilters) (*ExpenseList, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	expenses, total, sum, err := s.expenseRepo.GetExpenses(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, persistenceErr("list expenses", err, nil)
	}
	return &ExpenseList{Expenses: expenses, Total: total, TotalAmount: sum}, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, sess models.Session, id int64) error {
	if err := s.expenseRepo.DeleteExpense(ctx, s.db, sess.StoreID, id); err != nil {
		return persistenceErr("delete expense", err, ErrExpenseNotFound)
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
	"strings"

	"retail_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateDeviceID = errors.New("duplicate device id")
	ErrOverPayment       = errors.New("payment exceeds remaining balance")
	ErrPersistence       = errors.New("persistence failure")
	ErrPartialFailure    = errors.New("operation partially applied")
	ErrRequestInProgress = errors.New("a request with the same idempotency key is in progress")

	ErrProductNotFound  = errors.New("product not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrSaleLineNotFound = errors.New("sale line not found")
	ErrDebtNotFound     = errors.New("debt not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrCustomerExists = errors.New("customer with this phone number already exists")
	ErrCustomerInUse  = errors.New("customer still has debts")
	ErrUsernameTaken  = errors.New("username already exists")
	ErrUnauthorized   = errors.New("invalid credentials")
	ErrUserInactive   = errors.New("user account is inactive")
	ErrForbidden      = errors.New("operation not allowed for this user")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError is returned when a decrement would take stock below zero.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = fmt.Sprintf("product %d", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// DuplicateDeviceIDError is a validation failure naming the repeated identifier.
// ConflictingLineID is set when the identifier already belongs to a stored sale line.
type DuplicateDeviceIDError struct {
	DeviceID          string
	ConflictingLineID int64
}

func (e *DuplicateDeviceIDError) Error() string {
	if e.ConflictingLineID > 0 {
		return fmt.Sprintf("device id %q is already recorded on sale line %d", e.DeviceID, e.ConflictingLineID)
	}
	return fmt.Sprintf("device id %q appears more than once", e.DeviceID)
}

func (e *DuplicateDeviceIDError) Is(target error) bool {
	return target == ErrDuplicateDeviceID || target == ErrValidation
}

// OverPaymentError rejects a payment larger than the remaining balance.
type OverPaymentError struct {
	DebtID    int64
	Remaining decimal.Decimal
	Attempted decimal.Decimal
}

func (e *OverPaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance %s", e.Attempted.StringFixed(2), e.Remaining.StringFixed(2))
}

func (e *OverPaymentError) Unwrap() error { return ErrOverPayment }

// PersistenceError wraps a store failure. Nothing was applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// PartialFailureError means some writes of a multi-step operation may have
// been applied and could not be undone. Steps lists them in order.
type PartialFailureError struct {
	Op      string
	StoreID int64
	Steps   []string
	Cause   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially applied (steps: %s): %v", e.Op, strings.Join(e.Steps, ", "), e.Cause)
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

var domainErrors = []error{
	ErrValidation, ErrInsufficientStock, ErrOverPayment, ErrPersistence, ErrPartialFailure, ErrRequestInProgress,
	ErrProductNotFound, ErrSaleNotFound, ErrSaleLineNotFound, ErrDebtNotFound, ErrCustomerNotFound,
	ErrExpenseNotFound, ErrUserNotFound, ErrCustomerExists, ErrCustomerInUse, ErrUsernameTaken,
	ErrUnauthorized, ErrUserInactive, ErrForbidden,
}

// persistenceErr maps a repository error to a service error. Errors that are
// already domain errors pass through; notFound replaces ErrNotFound when given.
func persistenceErr(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, repositories.ErrNotFound) {
		return notFound
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return &PersistenceError{Op: op, Err: err}
}

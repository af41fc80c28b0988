package services

import (
	"context"
	"errors"
	"strings"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"
)

// --- Customer DTOs ---
type CreateCustomerRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	Notes       *string `json:"notes"`
}

type UpdateCustomerRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Notes       *string `json:"notes"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, sess models.Session, req CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, sess models.Session, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, sess models.Session, filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, sess models.Session, id int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, sess models.Session, id int64) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	db           repositories.Database
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(repo repositories.CustomerRepository, db repositories.Database) CustomerService {
	return &customerService{customerRepo: repo, db: db}
}

func mapCustomerWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrCustomerExists
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrCustomerInUse
	}
	return persistenceErr(op, err, ErrCustomerNotFound)
}

func (s *customerService) CreateCustomer(ctx context.Context, sess models.Session, req CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, newValidationError("full_name", "is required")
	}
	customer := &models.Customer{
		StoreID:     sess.StoreID,
		FullName:    name,
		PhoneNumber: utils.TrimmedPtr(req.PhoneNumber),
		Notes:       utils.TrimmedPtr(req.Notes),
	}
	if err := s.customerRepo.CreateCustomer(ctx, s.db, customer); err != nil {
		return nil, mapCustomerWriteErr("create customer", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, sess models.Session, id int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, s.db, sess.StoreID, id)
	if err != nil {
		return nil, persistenceErr("get customer", err, ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, sess models.Session, filters models.CustomerFilters) ([]models.Customer, int, error) {
	normalizePage(&filters.Page, &filters.PageSize)
	customers, total, err := s.customerRepo.GetCustomers(ctx, sess.StoreID, filters)
	if err != nil {
		return nil, 0, persistenceErr("list customers", err, nil)
	}
	return customers, total, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, sess models.Session, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomer(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, newValidationError("full_name", "cannot be empty if provided")
		}
		customer.FullName = name
	}
	if req.PhoneNumber != nil {
		customer.PhoneNumber = utils.TrimmedPtr(req.PhoneNumber)
	}
	if req.Notes != nil {
		customer.Notes = utils.TrimmedPtr(req.Notes)
	}
	if err := s.customerRepo.UpdateCustomer(ctx, s.db, customer); err != nil {
		return nil, mapCustomerWriteErr("update customer", err)
	}
	return customer, nil
}

// DeleteCustomer refuses customers that still have debts.
func (s *customerService) DeleteCustomer(ctx context.Context, sess models.Session, id int64) error {
	if err := s.customerRepo.DeleteCustomer(ctx, s.db, sess.StoreID, id); err != nil {
		return mapCustomerWriteErr("delete customer", err)
	}
	return nil
}

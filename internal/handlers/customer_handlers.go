package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

// CreateCustomer handles the creation of a new customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req services.CreateCustomerRequest
	if !bindJSON(c, &req, "CreateCustomer") {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), sess, req)
	if err != nil {
		respondServiceError(c, err, "CreateCustomer: Error from customerService.CreateCustomer", "Failed to create customer.")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles fetching customers with pagination and search.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var filters models.CustomerFilters
	if !bindQuery(c, &filters) {
		return
	}

	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), sess, filters)
	if err != nil {
		respondServiceError(c, err, "GetCustomers: Error from customerService.ListCustomers", "Failed to fetch customers.")
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	listResponse(c, customers, total, filters.Page, filters.PageSize)
}

// GetCustomerByID handles fetching a single customer by ID.
func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), sess, id)
	if err != nil {
		respondServiceError(c, err, "GetCustomerByID: Error from customerService.GetCustomer", "Failed to fetch customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles updating a customer.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}
	var req services.UpdateCustomerRequest
	if !bindJSON(c, &req, "UpdateCustomer") {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), sess, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCustomer: Error from customerService.UpdateCustomer", "Failed to update customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles deleting a customer without debts.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), sess, id); err != nil {
		respondServiceError(c, err, "DeleteCustomer: Error from customerService.DeleteCustomer", "Failed to delete customer.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

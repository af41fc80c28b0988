package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"retail_backoffice/internal/middleware"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// currentSession returns the caller's session or responds 401.
func currentSession(c *gin.Context) (models.Session, bool) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing session in context"))
		return models.Session{}, false
	}
	return sess, true
}

// parseIDParam reads a positive id path parameter or responds 400.
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := utils.ParsePositiveID(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

// bindJSON binds the request body or responds 400 with the failing fields.
func bindJSON(c *gin.Context, dest interface{}, op string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.LogError(err, op+": Failed to bind JSON", map[string]interface{}{"request_id": utils.RequestID(c)})
		respondBindError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters or responds 400.
func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	apiErr := utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error())
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		apiErr.WithMeta(map[string]interface{}{"fields": fields})
	}
	utils.RespondWithError(c, apiErr)
}

// validDate reports whether an optional YYYY-MM-DD filter is well formed, responding 400 otherwise.
func validDate(c *gin.Context, value *string, name string) bool {
	if value == nil || strings.TrimSpace(*value) == "" {
		return true
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(*value)); err != nil {
		utils.RespondValidationFailed(c, name+" must be formatted as YYYY-MM-DD")
		return false
	}
	return true
}

func listResponse(c *gin.Context, data interface{}, total, page, pageSize int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

var notFoundErrors = []error{
	services.ErrProductNotFound, services.ErrSaleNotFound, services.ErrSaleLineNotFound, services.ErrDebtNotFound,
	services.ErrCustomerNotFound, services.ErrExpenseNotFound, services.ErrUserNotFound,
}

var conflictErrors = []error{services.ErrCustomerExists, services.ErrCustomerInUse, services.ErrUsernameTaken}

// apiErrorFor translates a service error into the HTTP error body.
func apiErrorFor(err error, fallback string) *utils.APIError {
	var (
		stockErr *services.InsufficientStockError
		dupErr   *services.DuplicateDeviceIDError
		valErr   *services.ValidationError
		overErr  *services.OverPaymentError
		partErr  *services.PartialFailureError
	)

	switch {
	case errors.As(err, &partErr):
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodePartialFailure,
			"The operation was partially applied and needs manual reconciliation.", partErr.Error()).
			WithMeta(map[string]interface{}{"operation": partErr.Op, "applied_steps": partErr.Steps})
	case errors.As(err, &stockErr):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock.", stockErr.Error()).
			WithMeta(map[string]interface{}{
				"product_id":   stockErr.ProductID,
				"product_name": stockErr.ProductName,
				"available":    stockErr.Available,
				"requested":    stockErr.Requested,
			})
	case errors.As(err, &dupErr):
		meta := map[string]interface{}{"device_id": dupErr.DeviceID}
		if dupErr.ConflictingLineID > 0 {
			meta["conflicting_line_id"] = dupErr.ConflictingLineID
		}
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Duplicate device id.", dupErr.Error()).WithMeta(meta)
	case errors.As(err, &valErr):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+valErr.Error(), valErr.Error()).
			WithMeta(map[string]interface{}{"field": valErr.Field})
	case errors.As(err, &overErr):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeOverPayment, "Payment exceeds the remaining balance.", overErr.Error()).
			WithMeta(map[string]interface{}{
				"remaining": overErr.Remaining.StringFixed(2),
				"attempted": overErr.Attempted.StringFixed(2),
			})
	case errors.Is(err, services.ErrRequestInProgress):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeRequestInProgress, "A request with the same Idempotency-Key is still being processed.", err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", err.Error())
	case errors.Is(err, services.ErrUserInactive):
		return utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User account is inactive.", err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Operation not allowed for this user.", err.Error())
	case errors.Is(err, services.ErrValidation):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error())
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, capitalize(target.Error())+".", err.Error())
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, capitalize(target.Error())+".", err.Error())
		}
	}
	return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error")
}

// respondServiceError logs err and writes the mapped error response.
func respondServiceError(c *gin.Context, err error, op, fallback string) {
	apiErr := apiErrorFor(err, fallback)
	fields := map[string]interface{}{"request_id": utils.RequestID(c), "status": apiErr.StatusCode}
	if sess, ok := middleware.SessionFromContext(c); ok {
		fields["store_id"] = sess.StoreID
	}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		utils.LogError(err, op, fields)
	} else {
		fields["error"] = err.Error()
		utils.LogWarn(op, fields)
	}
	utils.RespondWithError(c, apiErr)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

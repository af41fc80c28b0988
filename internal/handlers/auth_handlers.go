package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// RegisterStore creates a store together with its owner account.
func (h *AuthHandler) RegisterStore(c *gin.Context) {
	var req models.RegistrationPayload
	if !bindJSON(c, &req, "RegisterStore") {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RegisterStore: Error from authService.Register", "Failed to register store.")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req models.Credentials
	if !bindJSON(c, &req, "LoginUser") {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "LoginUser: Error from authService.Login", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err, "GetCurrentUser: Error from authService.GetUserProfile", "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}

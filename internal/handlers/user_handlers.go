package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler lets the store owner manage staff accounts.
type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.CreateUserPayload
	if !bindJSON(c, &req, "CreateUser") {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), sess, req)
	if err != nil {
		respondServiceError(c, err, "CreateUser: Error from userService.CreateUser", "Failed to create user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err, "GetUsers: Error from userService.ListUsers", "Failed to fetch users.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": len(users)})
}

// UpdateUserStatus activates or deactivates an account.
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}
	var req models.UserStatusPayload
	if !bindJSON(c, &req, "UpdateUserStatus") {
		return
	}

	user, err := h.userService.SetUserStatus(c.Request.Context(), sess, userID, *req.IsActive)
	if err != nil {
		respondServiceError(c, err, "UpdateUserStatus: Error from userService.SetUserStatus", "Failed to update user status.")
		return
	}
	c.JSON(http.StatusOK, user)
}

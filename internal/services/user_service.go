package services

import (
	"context"
	"errors"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"
)

// UserService lets a store owner manage the accounts of the store.
type UserService interface {
	CreateUser(ctx context.Context, sess models.Session, req models.CreateUserPayload) (*models.User, error)
	ListUsers(ctx context.Context, sess models.Session) ([]models.User, error)
	SetUserStatus(ctx context.Context, sess models.Session, userID int64, active bool) (*models.User, error)
}

type userService struct {
	authRepo repositories.AuthRepository
	db       repositories.Database
}

func NewUserService(authRepo repositories.AuthRepository, db repositories.Database) UserService {
	return &userService{authRepo: authRepo, db: db}
}

func (s *userService) CreateUser(ctx context.Context, sess models.Session, req models.CreateUserPayload) (*models.User, error) {
	if !sess.IsOwner() {
		return nil, ErrForbidden
	}
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleStaff && role != models.RoleOwner {
		return nil, newValidationError("role", "must be owner or staff")
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		StoreID:      sess.StoreID,
		Username:     username,
		PasswordHash: hashed,
		FullName:     utils.TrimmedPtr(req.FullName),
		Role:         role,
		IsActive:     true,
	}
	if err := s.authRepo.CreateUser(ctx, s.db, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameTaken
		}
		return nil, persistenceErr("create user", err, nil)
	}
	utils.LogInfo("Store user created", map[string]interface{}{"store_id": sess.StoreID, "user_id": user.ID, "role": role})
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, sess models.Session) ([]models.User, error) {
	users, err := s.authRepo.GetUsersByStore(ctx, sess.StoreID)
	if err != nil {
		return nil, persistenceErr("list users", err, nil)
	}
	return users, nil
}

// SetUserStatus activates or deactivates an account. Owners cannot deactivate themselves.
func (s *userService) SetUserStatus(ctx context.Context, sess models.Session, userID int64, active bool) (*models.User, error) {
	if !sess.IsOwner() {
		return nil, ErrForbidden
	}
	if userID == sess.UserID && !active {
		return nil, newValidationError("is_active", "you cannot deactivate your own account")
	}
	if err := s.authRepo.UpdateUserStatus(ctx, s.db, sess.StoreID, userID, active); err != nil {
		return nil, persistenceErr("update user status", err, ErrUserNotFound)
	}
	user, err := s.authRepo.FindUserByID(ctx, sess.StoreID, userID)
	if err != nil {
		return nil, persistenceErr("get user", err, ErrUserNotFound)
	}
	return user, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// --- AuthService Interface ---
type AuthService interface {
	Register(ctx context.Context, req models.RegistrationPayload) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.Credentials) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, sess models.Session) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       repositories.Database
	tx       txRunner
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db repositories.Database, tokens *utils.TokenManager) AuthService {
	return &authService{
		authRepo: authRepo,
		db:       db,
		tx:       txRunner{db: db, timeout: 10 * time.Second},
		tokens:   tokens,
	}
}

func hashPassword(password string) (string, error) {
	if !utils.IsValidPasswordLength(password, minPasswordLength) {
		return "", newValidationError("password", "must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeUsername(username string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(username))
	if len(u) < 3 {
		return "", newValidationError("username", "must be at least 3 characters")
	}
	return u, nil
}

func (s *authService) issue(user *models.User, store *models.Store) (*models.LoginResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.StoreID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{AccessToken: token, ExpiresAt: expiresAt, User: user, Store: store}, nil
}

// Register creates a store and its owner account in one transaction.
func (s *authService) Register(ctx context.Context, req models.RegistrationPayload) (*models.LoginResponse, error) {
	storeName := strings.TrimSpace(req.StoreName)
	if storeName == "" {
		return nil, newValidationError("store_name", "is required")
	}
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	store := &models.Store{Name: storeName}
	user := &models.User{
		Username:     username,
		PasswordHash: hashed,
		FullName:     utils.TrimmedPtr(req.FullName),
		Role:         models.RoleOwner,
		IsActive:     true,
	}
	err = s.tx.run(ctx, "register store", models.Session{}, func(ctx context.Context, tx repositories.Tx, steps *stepLog) error {
		if err := s.authRepo.CreateStore(ctx, tx, store); err != nil {
			return persistenceErr("create store", err, nil)
		}
		steps.add("store %d created", store.ID)

		user.StoreID = store.ID
		if err := s.authRepo.CreateUser(ctx, tx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrUsernameTaken
			}
			return persistenceErr("create owner", err, nil)
		}
		steps.add("user %d created", user.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Store registered", map[string]interface{}{"store_id": store.ID, "owner_id": user.ID})
	return s.issue(user, store)
}

// Login verifies the credentials and issues an access token.
func (s *authService) Login(ctx context.Context, req models.Credentials) (*models.LoginResponse, error) {
	user, err := s.authRepo.FindUserByUsername(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, persistenceErr("login", err, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	store, err := s.authRepo.GetStoreByID(ctx, user.StoreID)
	if err != nil {
		return nil, persistenceErr("load store", err, nil)
	}
	return s.issue(user, store)
}

func (s *authService) GetUserProfile(ctx context.Context, sess models.Session) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, sess.StoreID, sess.UserID)
	if err != nil {
		return nil, persistenceErr("get user profile", err, ErrUserNotFound)
	}
	return user, nil
}

package repositories

import (
	"context"
	"fmt"
	"time"

	"retail_backoffice/internal/models"
)

// AuthRepository defines the interface for store and user account operations.
type AuthRepository interface {
	CreateStore(ctx context.Context, executor SQLExecutor, store *models.Store) error
	GetStoreByID(ctx context.Context, storeID int64) (*models.Store, error)

	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) error
	// FindUserByUsername is not store scoped: usernames are unique across stores
	// so login needs no store id.
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, storeID, userID int64) (*models.User, error)
	GetUsersByStore(ctx context.Context, storeID int64) ([]models.User, error)
	UpdateUserStatus(ctx context.Context, executor SQLExecutor, storeID, userID int64, isActive bool) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db SQLExecutor
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db SQLExecutor) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateStore(ctx context.Context, executor SQLExecutor, store *models.Store) error {
	store.CreatedAt = time.Now().UTC()
	err := executor.QueryRowContext(ctx,
		`INSERT INTO stores (name, created_at) VALUES ($1, $2) RETURNING id`,
		store.Name, store.CreatedAt,
	).Scan(&store.ID)
	if err != nil {
		return mapError(err, "creating store")
	}
	return nil
}

func (r *authRepository) GetStoreByID(ctx context.Context, storeID int64) (*models.Store, error) {
	store := &models.Store{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM stores WHERE id = $1`, storeID).
		Scan(&store.ID, &store.Name, &store.CreatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("getting store %d", storeID))
	}
	return store, nil
}

// CreateUser inserts a new user. The password must already be hashed.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) error {
	query := `INSERT INTO users (store_id, username, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now().UTC()
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	err := executor.QueryRowContext(ctx, query,
		user.StoreID, user.Username, user.PasswordHash, user.FullName, user.Role, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return mapError(err, "creating user")
	}
	return nil
}

const userColumns = `id, store_id, username, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(s scanner, u *models.User) error {
	return s.Scan(&u.ID, &u.StoreID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
}

func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	if err := scanUser(r.db.QueryRowContext(ctx, query, username), user); err != nil {
		return nil, mapError(err, "finding user by username")
	}
	return user, nil
}

func (r *authRepository) FindUserByID(ctx context.Context, storeID, userID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE store_id = $1 AND id = $2`
	if err := scanUser(r.db.QueryRowContext(ctx, query, storeID, userID), user); err != nil {
		return nil, mapError(err, fmt.Sprintf("finding user by ID %d", userID))
	}
	return user, nil
}

func (r *authRepository) GetUsersByStore(ctx context.Context, storeID int64) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE store_id = $1 ORDER BY role ASC, username ASC`, storeID)
	if err != nil {
		return nil, mapError(err, "querying users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, mapError(err, "scanning user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterating user rows")
	}
	return users, nil
}

func (r *authRepository) UpdateUserStatus(ctx context.Context, executor SQLExecutor, storeID, userID int64, isActive bool) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE users SET is_active = $1, updated_at = $2 WHERE store_id = $3 AND id = $4`,
		isActive, time.Now().UTC(), storeID, userID)
	if err != nil {
		return mapError(err, fmt.Sprintf("updating status of user %d", userID))
	}
	return requireAffected(result, fmt.Sprintf("updating status of user %d", userID))
}

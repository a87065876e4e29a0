package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByEmail(email string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user into the database.
// It expects an SQLExecutor which can be a *sql.DB or *sql.Tx.
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (email, password_hash, full_name, phone, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	isActive := true // Default to true for new users

	var userID int64
	err := executor.QueryRow(
		query,
		user.Email,
		hashedPassword,
		user.FullName,
		user.Phone, // Can be nil
		user.Role,
		isActive,
		currentTime,
		currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

// FindUserByEmail retrieves a user by their email address.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByEmail(email string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	query := `SELECT id, email, password_hash, full_name, phone, role, is_active, created_at, updated_at
	          FROM users WHERE email = $1`

	err := r.db.QueryRow(query, email).Scan(
		&user.ID, &user.Email, &hashedPassword, &user.FullName, &user.Phone,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}
	user.PasswordHash = hashedPassword
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user by their ID.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, full_name, phone, role, is_active, created_at, updated_at
	          FROM users WHERE id = $1`

	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Email, &user.FullName, &user.Phone,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
	"fitclub_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidRole        = errors.New("specified role is not valid")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// --- AuthService DTOs ---

// AuthResponse DTO
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(req models.RegistrationPayload) (*models.User, error)
	LoginUser(req models.Credentials) (*AuthResponse, error)
	RefreshAccessToken(refreshToken string) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB // Used as SQLExecutor for single repo calls, or for managing transactions
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB) AuthService {
	return &authService{
		authRepo: authRepo,
		db:       db,
	}
}

var validRoles = map[string]bool{
	models.RoleAdmin:   true,
	models.RoleStaff:   true,
	models.RoleTrainer: true,
	models.RoleMember:  true,
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(req models.RegistrationPayload) (*models.User, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPassword := string(hashedPasswordBytes)

	role := models.RoleMember
	if req.Role != nil && *req.Role != "" {
		normalized := strings.ToLower(strings.TrimSpace(*req.Role))
		if !validRoles[normalized] {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidRole, *req.Role)
		}
		role = normalized
	}

	user := models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     role,
	}

	createdUserID, err := s.authRepo.CreateUser(s.db, &user, hashedPassword)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	// Fetch the user again to get the fields set by the database (timestamps, defaults).
	registeredUser, fetchErr := s.authRepo.FindUserByID(createdUserID)
	if fetchErr != nil {
		// The user was created but fetching failed. Return at least the ID.
		user.ID = createdUserID
		user.PasswordHash = ""
		return &user, fmt.Errorf("user registered but failed to retrieve full details: %w", fetchErr)
	}
	registeredUser.PasswordHash = ""
	return registeredUser, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(req models.Credentials) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, storedHashedPassword, err := s.authRepo.FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password))
	if err != nil {
		// err is bcrypt.ErrMismatchedHashAndPassword for wrong password
		return nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = "" // Clear password hash before returning user details
	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a fresh access
// token. The user is re-read so a deactivated account cannot keep minting
// tokens.
func (s *authService) RefreshAccessToken(refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateToken(refreshToken)
	if err != nil || claims.Issuer != utils.RefreshTokenIssuer {
		return nil, ErrInvalidToken
	}

	user, err := s.authRepo.FindUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = "" // Ensure password hash is not exposed
	return user, nil
}

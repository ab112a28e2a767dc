package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates access tokens.
type AuthService struct {
	cfg      *config.Config
	userRepo *repository.GormUserRepository
}

// NewAuthService creates the service.
func NewAuthService(cfg *config.Config, userRepo *repository.GormUserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// JWTClaims carries the authenticated identity.
type JWTClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var allowedRegisterRoles = map[string]bool{
	constants.RoleClient:     true,
	constants.RoleStoreOwner: true,
}

// RegisterInput is the signup request.
type AuthRegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

// AuthResult bundles the user with a fresh token.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Register creates the account and signs the first token.
func (s *AuthService) Register(input AuthRegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Name == "" || len(input.Password) < 8 {
		return nil, ErrAuthInvalid
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = constants.RoleClient
	}
	if !allowedRegisterRoles[role] {
		return nil, ErrAuthInvalid
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	if existing != nil {
		return nil, ErrAuthEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}

	token, expiresAt, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	logger.S().Infow("user_registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login checks the credentials and signs a token.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	if user == nil {
		return nil, ErrAuthUserNotFound
	}
	if !user.IsActive {
		return nil, ErrAuthUserDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrAuthPasswordIncorrect
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		logger.S().Warnw("user_last_login_update_failed", "user_id", user.ID, "error", err)
	}

	token, expiresAt, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GenerateToken signs an HS256 token for the user.
func (s *AuthService) GenerateToken(user *models.User) (string, time.Time, error) {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	expiresAt := time.Now().Add(time.Duration(hours) * time.Hour)
	claims := JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	return signed, expiresAt, nil
}

// ParseToken validates a token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthTokenInvalid, err)
	}
	if parsed, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return parsed, nil
	}
	return nil, ErrAuthTokenInvalid
}

// GetUser loads the account behind a claim set.
func (s *AuthService) GetUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	if user == nil {
		return nil, ErrAuthUserNotFound
	}
	if !user.IsActive {
		return nil, ErrAuthUserDisabled
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrAuthInvalid
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", ErrAuthInvalid
	}
	return trimmed, nil
}

package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-for-signing-tokens"
	cfg.JWT.ExpireHours = 1
	return NewAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _ := setupAuthTest(t)

	result, err := svc.Register(AuthRegisterInput{
		Name:     "Kossi",
		Email:    "  Kossi@Example.Test ",
		Password: "correct-horse",
		Role:     constants.RoleClient,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.User.Email != "kossi@example.test" {
		t.Fatalf("email must be normalized, got %q", result.User.Email)
	}
	if result.User.PasswordHash == "correct-horse" {
		t.Fatalf("password must be hashed")
	}
	if result.Token == "" {
		t.Fatalf("register must sign a token")
	}

	login, err := svc.Login("kossi@example.test", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.User.LastLoginAt == nil {
		t.Fatalf("last_login_at must be stamped")
	}

	claims, err := svc.ParseToken(login.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != result.User.ID || claims.Role != constants.RoleClient {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	if _, err := svc.Login("kossi@example.test", "wrong"); !errors.Is(err, ErrAuthPasswordIncorrect) {
		t.Fatalf("want ErrAuthPasswordIncorrect got %v", err)
	}
	if _, err := svc.Login("nobody@example.test", "whatever"); !errors.Is(err, ErrAuthUserNotFound) {
		t.Fatalf("want ErrAuthUserNotFound got %v", err)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	svc, _ := setupAuthTest(t)

	if _, err := svc.Register(AuthRegisterInput{
		Name: "Short", Email: "short@example.test", Password: "short",
	}); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("short password want ErrAuthInvalid got %v", err)
	}

	// Privileged roles cannot self-register.
	if _, err := svc.Register(AuthRegisterInput{
		Name: "Sneaky", Email: "sneaky@example.test", Password: "longenough",
		Role: constants.RoleSuperAdmin,
	}); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("admin self-register want ErrAuthInvalid got %v", err)
	}

	if _, err := svc.Register(AuthRegisterInput{
		Name: "First", Email: "dup@example.test", Password: "longenough",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(AuthRegisterInput{
		Name: "Second", Email: "DUP@example.test", Password: "longenough",
	}); !errors.Is(err, ErrAuthEmailTaken) {
		t.Fatalf("want ErrAuthEmailTaken got %v", err)
	}
}

func TestAuthDisabledUserRejected(t *testing.T) {
	svc, db := setupAuthTest(t)

	result, err := svc.Register(AuthRegisterInput{
		Name: "Kossi", Email: "kossi@example.test", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", result.User.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, err := svc.Login("kossi@example.test", "correct-horse"); !errors.Is(err, ErrAuthUserDisabled) {
		t.Fatalf("want ErrAuthUserDisabled got %v", err)
	}
	if _, err := svc.GetUser(result.User.ID); !errors.Is(err, ErrAuthUserDisabled) {
		t.Fatalf("get user want ErrAuthUserDisabled got %v", err)
	}
}

func TestAuthParseTokenRejectsForgery(t *testing.T) {
	svc, _ := setupAuthTest(t)

	result, err := svc.Register(AuthRegisterInput{
		Name: "Kossi", Email: "kossi@example.test", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	otherCfg := &config.Config{}
	otherCfg.JWT.SecretKey = "a-completely-different-secret-key"
	other := NewAuthService(otherCfg, nil)
	forged, _, err := other.GenerateToken(result.User)
	if err != nil {
		t.Fatalf("sign forged token failed: %v", err)
	}

	if _, err := svc.ParseToken(forged); !errors.Is(err, ErrAuthTokenInvalid) {
		t.Fatalf("forged token want ErrAuthTokenInvalid got %v", err)
	}
	if _, err := svc.ParseToken("not-a-token"); !errors.Is(err, ErrAuthTokenInvalid) {
		t.Fatalf("garbage token want ErrAuthTokenInvalid got %v", err)
	}
}

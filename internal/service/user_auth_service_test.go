package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *AuthBroker, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-service-test-secret-key-0001"
	cfg.UserJWT.ExpireHours = 24
	cfg.Security.PasswordPolicy.MinLength = 8

	broker := NewAuthBroker()
	return NewUserAuthService(cfg, repository.NewUserRepository(db), broker), broker, db
}

func registerTestUser(t *testing.T, svc *UserAuthService, email string) *models.User {
	t.Helper()
	user, err := svc.Register(RegisterInput{
		Email:       email,
		Password:    "longenough1",
		DisplayName: "Tester",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return user
}

func TestUserAuthServiceUpdateProfile(t *testing.T) {
	svc, _, _ := setupUserAuthServiceTest(t)
	user := registerTestUser(t, svc, "old@example.com")

	name := "  New Name  "
	email := "NEW@Example.com"
	password := "anotherlong2"
	updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{
		DisplayName: &name,
		Email:       &email,
		Password:    &password,
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.DisplayName != "New Name" {
		t.Fatalf("display name want 'New Name' got %q", updated.DisplayName)
	}
	if updated.Email != "new@example.com" {
		t.Fatalf("email should be lowercased, got %q", updated.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}

	// 新凭据可登录
	if _, _, _, err := svc.Login("new@example.com", password, false); err != nil {
		t.Fatalf("login with updated credentials failed: %v", err)
	}
}

func TestUserAuthServiceUpdateProfilePartial(t *testing.T) {
	svc, _, _ := setupUserAuthServiceTest(t)
	user := registerTestUser(t, svc, "keep@example.com")

	name := "Only Name"
	updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{DisplayName: &name})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Email != "keep@example.com" {
		t.Fatalf("email should be untouched, got %q", updated.Email)
	}
	if updated.PasswordHash != user.PasswordHash {
		t.Fatal("password hash should be untouched")
	}
}

func TestUserAuthServiceUpdateProfileValidation(t *testing.T) {
	svc, _, _ := setupUserAuthServiceTest(t)
	user := registerTestUser(t, svc, "me@example.com")
	registerTestUser(t, svc, "taken@example.com")

	bad := "not-an-email"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &bad}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}

	taken := "taken@example.com"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &taken}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got: %v", err)
	}

	weak := "short"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Password: &weak}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got: %v", err)
	}

	name := "ghost"
	if _, err := svc.UpdateProfile(9999, UpdateProfileInput{DisplayName: &name}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}

	// 保持自己的邮箱不算冲突
	own := "ME@example.com"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &own}); err != nil {
		t.Fatalf("keeping own email should succeed, got: %v", err)
	}
}

func TestUserAuthServiceDeleteAccount(t *testing.T) {
	svc, broker, db := setupUserAuthServiceTest(t)
	user := registerTestUser(t, svc, "bye@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	if err := svc.DeleteAccount(user.ID); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}

	// 软删除后不可见也不可登录
	if _, err := svc.GetByID(user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user should be invisible, got: %v", err)
	}
	if _, _, _, err := svc.Login("bye@example.com", "longenough1", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("deleted user should not log in, got: %v", err)
	}

	var count int64
	if err := db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count raw rows failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("soft delete should keep the row, got count=%d", count)
	}

	// 广播退出事件，购物车会话据此清空
	select {
	case event := <-events:
		if event.UserID != user.ID || event.SignedIn {
			t.Fatalf("unexpected auth event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected sign-out event after account deletion")
	}

	if err := svc.DeleteAccount(user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete should report not found, got: %v", err)
	}
}

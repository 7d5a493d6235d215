package auth

import (
	"testing"
	"time"

	"github.com/custodia-hq/treasury-wallet-api/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestResolve(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)

	db.Create(&Session{Token: "admin-session", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)})
	db.Create(&Session{Token: "expired-session", UserID: "user-1", ExpiresAt: time.Now().Add(-time.Hour)})
	db.Create(&Session{Token: "plain-session", UserID: "user-2", ExpiresAt: time.Now().Add(time.Hour)})
	db.Create(&UserRole{UserID: "user-1", Role: RoleAdmin})
	db.Create(&UserRole{UserID: "user-2", Role: "viewer"})

	service := NewService("internal-secret", store)

	t.Run("internal credential", func(t *testing.T) {
		c, err := service.Resolve("internal-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Kind != Internal {
			t.Errorf("expected Internal, got %s", c.Kind)
		}
		if !c.Authorized() || !c.IsInternal() {
			t.Error("internal caller should be authorized and internal")
		}
	})

	t.Run("admin session", func(t *testing.T) {
		c, err := service.Resolve("admin-session")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Kind != AdminUser || c.UserID != "user-1" {
			t.Errorf("unexpected caller: %+v", c)
		}
		if c.IsInternal() {
			t.Error("admin caller should not be internal")
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		_, err := service.Resolve("")
		assertStatus(t, err, 401)
	})

	t.Run("unknown credential", func(t *testing.T) {
		_, err := service.Resolve("no-such-token")
		assertStatus(t, err, 401)
	})

	t.Run("expired session", func(t *testing.T) {
		_, err := service.Resolve("expired-session")
		assertStatus(t, err, 401)
	})

	t.Run("session without admin role", func(t *testing.T) {
		_, err := service.Resolve("plain-session")
		assertStatus(t, err, 403)
	})
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	reqErr, ok := err.(*errors.RequestError)
	if !ok {
		t.Fatalf("expected a RequestError, got %T", err)
	}
	if reqErr.StatusCode != want {
		t.Errorf("expected status %d, got %d", want, reqErr.StatusCode)
	}
}

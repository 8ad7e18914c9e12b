package users

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/auth"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Identity{}); err != nil {
		t.Fatalf("failed to migrate identity schema: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock: func() time.Time {
			return time.Unix(1, 0)
		},
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, db
}

func TestResolveCanonicalUserIDStripsProviderPrefix(t *testing.T) {
	service, db := newTestService(t)

	claims := auth.SessionClaims{
		UserID:          "google:12345",
		UserEmail:       "user@example.com",
		UserDisplayName: "Example User",
	}
	userID, err := service.ResolveCanonicalUserID(claims)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if userID != "12345" {
		t.Fatalf("expected canonical user id without provider prefix, got %q", userID)
	}

	userID, err = service.ResolveCanonicalUserID(claims)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if userID != "12345" {
		t.Fatalf("expected canonical user id to remain stable, got %q", userID)
	}

	var count int64
	if err := db.Model(&Identity{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single identity row, got %d", count)
	}
}

func TestResolveCanonicalUserIDFallsBackToSubjectAndEmail(t *testing.T) {
	service, _ := newTestService(t)

	claims := auth.SessionClaims{}
	claims.Subject = "subject-1"
	userID, err := service.ResolveCanonicalUserID(claims)
	if err != nil || userID != "subject-1" {
		t.Fatalf("expected subject fallback, got %q (%v)", userID, err)
	}

	userID, err = service.ResolveCanonicalUserID(auth.SessionClaims{UserEmail: "only@example.com"})
	if err != nil || userID != "only@example.com" {
		t.Fatalf("expected email fallback, got %q (%v)", userID, err)
	}
}

func TestResolveCanonicalUserIDRejectsUnusableIdentity(t *testing.T) {
	service, _ := newTestService(t)

	for _, claims := range []auth.SessionClaims{{}, {UserID: "a/b"}} {
		if _, err := service.ResolveCanonicalUserID(claims); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected invalid identity for %+v, got %v", claims, err)
		}
	}
}

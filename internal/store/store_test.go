package store

import (
	"database/sql"
	"testing"

	"github.com/clockit-hq/clockit/internal/database"
	"github.com/clockit-hq/clockit/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email, employeeID string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(email, "hash", "Test User", model.RoleUser, "IT", "Engineer", employeeID)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

package store

import (
	"testing"

	"github.com/clockit-hq/clockit/internal/model"
)

func TestUserCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	u, err := users.Create("alice@example.com", "hash", "Alice", model.RoleAdmin, "HR", "Manager", "EMP001")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" || u.Role != model.RoleAdmin {
		t.Errorf("user = %+v", u)
	}

	got, err := users.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("get by email = %+v, want id %d", got, u.ID)
	}

	missing, err := users.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user, got %+v", missing)
	}
}

func TestUserDuplicateEmailRejected(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	if _, err := users.Create("a@example.com", "h", "A", model.RoleUser, "", "", "EMP001"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := users.Create("a@example.com", "h", "B", model.RoleUser, "", "", "EMP002"); err == nil {
		t.Error("expected error for duplicate email")
	}
	if _, err := users.Create("b@example.com", "h", "B", model.RoleUser, "", "", "EMP001"); err == nil {
		t.Error("expected error for duplicate employee id")
	}
}

func TestUserListFilters(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	users.Create("a@example.com", "h", "A", model.RoleUser, "IT", "Dev", "EMP001")
	users.Create("b@example.com", "h", "B", model.RoleUser, "HR", "Rec", "EMP002")
	users.Create("c@example.com", "h", "C", model.RoleAdmin, "IT", "Lead", "EMP003")

	all, err := users.List("", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("list all = %d users, want 3", len(all))
	}

	it, err := users.List("", "IT")
	if err != nil {
		t.Fatalf("list by department: %v", err)
	}
	if len(it) != 2 {
		t.Errorf("IT department = %d users, want 2", len(it))
	}

	admins, err := users.List(model.RoleAdmin, "")
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(admins) != 1 || admins[0].Name != "C" {
		t.Errorf("admins = %+v, want just C", admins)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	u, _ := users.Create("a@example.com", "h", "A", model.RoleUser, "IT", "Dev", "EMP001")

	got, err := users.UpdateProfile(u.ID, "Alice B", "555-0100", "1 Main St", "Europe/Berlin")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.Name != "Alice B" || got.Phone != "555-0100" || got.Timezone != "Europe/Berlin" {
		t.Errorf("profile = %+v", got)
	}
	// Role and department are not touched by the profile update.
	if got.Role != model.RoleUser || got.Department != "IT" {
		t.Errorf("unexpected change to role/department: %+v", got)
	}
}

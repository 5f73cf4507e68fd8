package store

import (
	"context"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Ana", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Name != "Ana" {
		t.Errorf("expected name 'Ana', got %q", user.Name)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", user.Role)
	}
	if !user.IsActive {
		t.Error("expected new user to be active")
	}
	if len(user.ID) != 36 {
		t.Errorf("expected uuid id, got %q", user.ID)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.PINHash != "hash123" {
		t.Errorf("expected stored hash, got %q", got.PINHash)
	}

	missing, err := GetUser(ctx, database, "nope")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "hash", model.RoleUser)
	CreateUser(ctx, database, "b", "hash", model.RoleAdmin)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	n, err := CountUsers(ctx, database)
	if err != nil || n != 2 {
		t.Errorf("expected 2 users counted, got %d (%v)", n, err)
	}
}

func TestListActiveUsersOldestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := CreateUser(ctx, database, "first", "hash", model.RoleUser)
	second, _ := CreateUser(ctx, database, "second", "hash", model.RoleUser)
	inactive, _ := CreateUser(ctx, database, "inactive", "hash", model.RoleUser)

	off := false
	UpdateUser(ctx, database, inactive.ID, UserUpdate{IsActive: &off})

	users, err := ListActiveUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListActiveUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 active users, got %d", len(users))
	}
	if users[0].ID != first.ID || users[1].ID != second.ID {
		t.Errorf("expected creation order, got %s, %s", users[0].Name, users[1].Name)
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser)
	ok, err := DeleteUser(ctx, database, user.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteUser: ok=%v err=%v", ok, err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}
	active, _ := ListActiveUsers(ctx, database)
	if len(active) != 0 {
		t.Errorf("expected deleted user to be unable to log in")
	}

	// Still resolvable for attribution.
	got, _ := GetUser(ctx, database, user.ID)
	if got == nil || got.DeletedAt == nil || got.IsActive {
		t.Errorf("expected soft-deleted, inactive user, got %+v", got)
	}

	ok, _ = DeleteUser(ctx, database, user.ID)
	if ok {
		t.Error("expected second delete to report nothing deleted")
	}
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleUser)

	name := "Renamed"
	hash := "newhash"
	role := model.RoleAdmin
	got, err := UpdateUser(ctx, database, user.ID, UserUpdate{Name: &name, PINHash: &hash, Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.Name != "Renamed" || got.PINHash != "newhash" || got.Role != model.RoleAdmin {
		t.Errorf("unexpected user after update: %+v", got)
	}

	missing, err := UpdateUser(ctx, database, "nope", UserUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

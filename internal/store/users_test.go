package store

import (
	"context"
	"testing"

	"github.com/erazemk/prenos/internal/db"
	"github.com/erazemk/prenos/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	branch, _ := CreateBranch(ctx, database, "Ljubljana", "Ljubljana")

	user, err := CreateUser(ctx, database, "alice", "hash", model.RoleManager, &branch.ID)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Role != model.RoleManager {
		t.Errorf("expected manager role, got %s", user.Role)
	}
	if user.BranchID == nil || *user.BranchID != branch.ID {
		t.Errorf("expected branch %d, got %v", branch.ID, user.BranchID)
	}

	byName, _ := GetUserByUsername(ctx, database, "alice")
	if byName == nil || byName.ID != user.ID {
		t.Errorf("unexpected user by username: %+v", byName)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "bob", "hash", model.RoleUser, nil); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "bob", "hash2", model.RoleUser, nil); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestDeletedUsernameReusable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser, nil)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := CreateUser(ctx, database, "bob", "hash2", model.RoleUser, nil); err != nil {
		t.Errorf("expected deleted username to be reusable: %v", err)
	}
}

func TestUpdateUserBranchAssignment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	branch, _ := CreateBranch(ctx, database, "Maribor", "Maribor")
	user, _ := CreateUser(ctx, database, "carol", "hash", model.RoleUser, nil)

	if err := UpdateUser(ctx, database, user.ID, model.RoleManager, &branch.ID); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleManager || got.BranchID == nil || *got.BranchID != branch.ID {
		t.Errorf("unexpected user after update: %+v", got)
	}
}

func TestListUsersExcludesDeleted(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleUser, nil)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser, nil)
	DeleteUser(ctx, database, bob.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 1 || users[0].Username != "alice" {
		t.Errorf("expected only alice, got %+v", users)
	}
}

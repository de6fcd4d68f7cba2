package store

import (
	"context"
	"testing"

	"github.com/erazemk/prenos/internal/db"
)

func TestCreateAndGetBranch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	branch, err := CreateBranch(ctx, database, "Ljubljana Center", "Ljubljana")
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if !branch.Active {
		t.Error("expected new branch to be active")
	}

	got, _ := GetBranch(ctx, database, branch.ID)
	if got == nil || got.Name != "Ljubljana Center" || got.City != "Ljubljana" {
		t.Errorf("unexpected branch: %+v", got)
	}

	missing, _ := GetBranch(ctx, database, 999)
	if missing != nil {
		t.Errorf("expected nil for unknown branch, got %+v", missing)
	}
}

func TestListBranchesActiveOnly(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateBranch(ctx, database, "Open", "Ljubljana")
	closed, _ := CreateBranch(ctx, database, "Closed", "Maribor")
	UpdateBranch(ctx, database, closed.ID, "Closed", "Maribor", false)

	all, _ := ListBranches(ctx, database, false)
	if len(all) != 2 {
		t.Errorf("expected 2 branches, got %d", len(all))
	}

	active, _ := ListBranches(ctx, database, true)
	if len(active) != 1 || active[0].Name != "Open" {
		t.Errorf("expected only the open branch, got %+v", active)
	}
}

func TestDeleteBranchWithStockFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch, _, variant := setupBranches(t, database, 0)

	AddStock(ctx, database, variant, branch, 5, nil)

	if err := DeleteBranch(ctx, database, branch); err == nil {
		t.Error("expected error deleting branch with stock")
	}

	AdjustStock(ctx, database, variant, branch, -5, "", nil)
	if err := DeleteBranch(ctx, database, branch); err != nil {
		t.Errorf("DeleteBranch after clearing stock: %v", err)
	}

	branches, _ := ListBranches(ctx, database, false)
	for _, b := range branches {
		if b.ID == branch {
			t.Error("expected deleted branch to be excluded from listing")
		}
	}
}

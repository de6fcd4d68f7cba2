package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/prenos/internal/model"
)

// CreateBranch creates a new branch.
func CreateBranch(ctx context.Context, db *sql.DB, name, city string) (*model.Branch, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO branches (name, city) VALUES (?, ?)`,
		name, city,
	)
	if err != nil {
		return nil, fmt.Errorf("creating branch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting branch id: %w", err)
	}

	return GetBranch(ctx, db, id)
}

// GetBranch returns a branch by ID.
func GetBranch(ctx context.Context, db *sql.DB, id int64) (*model.Branch, error) {
	b := &model.Branch{}
	var city sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, city, active, created_at, deleted_at
		 FROM branches WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &city, &b.Active, &b.CreatedAt, &b.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting branch: %w", err)
	}
	b.City = city.String
	return b, nil
}

// ListBranches returns all non-deleted branches. With activeOnly set,
// deactivated branches are excluded.
func ListBranches(ctx context.Context, db *sql.DB, activeOnly bool) ([]model.Branch, error) {
	query := `SELECT id, name, city, active, created_at, deleted_at
	          FROM branches WHERE deleted_at IS NULL`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []model.Branch
	for rows.Next() {
		var b model.Branch
		var city sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &city, &b.Active, &b.CreatedAt, &b.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		b.City = city.String
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// UpdateBranch updates a branch's name, city and active flag.
func UpdateBranch(ctx context.Context, db *sql.DB, id int64, name, city string, active bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE branches SET name = ?, city = ?, active = ? WHERE id = ? AND deleted_at IS NULL`,
		name, city, active, id,
	)
	if err != nil {
		return fmt.Errorf("updating branch: %w", err)
	}
	return nil
}

// DeleteBranch soft-deletes a branch. Fails if the branch still holds stock.
func DeleteBranch(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger WHERE branch_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking branch ledger: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete branch: still holds %d ledger entries", count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE branches SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting branch: %w", err)
	}
	return nil
}

// checkBranchActive verifies a branch exists, is not deleted and is active,
// inside the caller's transaction.
func checkBranchActive(ctx context.Context, tx *sql.Tx, id int64) error {
	var active bool
	err := tx.QueryRowContext(ctx,
		`SELECT active FROM branches WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: branch %d", ErrBranchNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking branch: %w", err)
	}
	if !active {
		return fmt.Errorf("%w: branch %d", ErrBranchInactive, id)
	}
	return nil
}

// checkVariantExists verifies a variant exists and is not deleted, inside the
// caller's transaction.
func checkVariantExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM variants WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: variant %d", ErrVariantNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking variant: %w", err)
	}
	return nil
}

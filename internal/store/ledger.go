package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/prenos/internal/model"
)

// reserveStock increases the reserved counter for a ledger row inside the
// caller's transaction. Fails with ErrInsufficientStock when the requested
// quantity exceeds what is on hand and not already reserved.
func reserveStock(ctx context.Context, tx *sql.Tx, branchID, variantID int64, qty int) error {
	var quantity, reserved int
	err := tx.QueryRowContext(ctx,
		`SELECT quantity, reserved FROM ledger WHERE variant_id = ? AND branch_id = ?`,
		variantID, branchID,
	).Scan(&quantity, &reserved)
	if err == sql.ErrNoRows {
		quantity, reserved = 0, 0
	} else if err != nil {
		return fmt.Errorf("checking available stock: %w", err)
	}

	available := quantity - reserved
	if qty > available {
		return fmt.Errorf("%w: variant %d at branch %d has %d available, need %d",
			ErrInsufficientStock, variantID, branchID, available, qty)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ledger SET reserved = reserved + ? WHERE variant_id = ? AND branch_id = ?`,
		qty, variantID, branchID,
	)
	if err != nil {
		return fmt.Errorf("reserving stock: %w", err)
	}
	return nil
}

// releaseStock decreases the reserved counter, flooring at zero.
func releaseStock(ctx context.Context, tx *sql.Tx, branchID, variantID int64, qty int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE ledger SET reserved = MAX(reserved - ?, 0) WHERE variant_id = ? AND branch_id = ?`,
		qty, variantID, branchID,
	)
	if err != nil {
		return fmt.Errorf("releasing stock: %w", err)
	}
	return nil
}

// moveStock moves qty of a variant from one branch's ledger row to another's,
// consuming the reservation at the source. Runs entirely inside the caller's
// transaction so the move is all-or-nothing. The source row is deleted once
// both counters reach zero.
func moveStock(ctx context.Context, tx *sql.Tx, variantID, fromBranchID, toBranchID int64, qty int) error {
	var quantity, reserved int
	err := tx.QueryRowContext(ctx,
		`SELECT quantity, reserved FROM ledger WHERE variant_id = ? AND branch_id = ?`,
		variantID, fromBranchID,
	).Scan(&quantity, &reserved)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: variant %d has no ledger row at branch %d",
			ErrInsufficientStock, variantID, fromBranchID)
	}
	if err != nil {
		return fmt.Errorf("checking source stock: %w", err)
	}
	if quantity < qty || reserved < qty {
		return fmt.Errorf("%w: variant %d at branch %d has quantity %d, reserved %d, moving %d",
			ErrInsufficientStock, variantID, fromBranchID, quantity, reserved, qty)
	}

	newQty := quantity - qty
	newReserved := reserved - qty
	if newQty == 0 && newReserved == 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM ledger WHERE variant_id = ? AND branch_id = ?`,
			variantID, fromBranchID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE ledger SET quantity = ?, reserved = ? WHERE variant_id = ? AND branch_id = ?`,
			newQty, newReserved, variantID, fromBranchID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating source ledger: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger (variant_id, branch_id, quantity, reserved) VALUES (?, ?, ?, 0)
		 ON CONFLICT (variant_id, branch_id) DO UPDATE SET quantity = quantity + ?`,
		variantID, toBranchID, qty, qty,
	)
	if err != nil {
		return fmt.Errorf("updating destination ledger: %w", err)
	}
	return nil
}

// AddStock adds received stock of a variant to a branch ledger.
func AddStock(ctx context.Context, db *sql.DB, variantID, branchID int64, quantity int, userID *int64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkBranchActive(ctx, tx, branchID); err != nil {
		return err
	}
	if err := checkVariantExists(ctx, tx, variantID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger (variant_id, branch_id, quantity, reserved) VALUES (?, ?, ?, 0)
		 ON CONFLICT (variant_id, branch_id) DO UPDATE SET quantity = quantity + ?`,
		variantID, branchID, quantity, quantity,
	)
	if err != nil {
		return fmt.Errorf("adding stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stock addition: %w", err)
	}
	return nil
}

// AdjustStock applies a signed correction to a branch ledger row. The result
// may not drop below the reserved quantity, so outstanding reservations are
// never invalidated. Rows with both counters at zero are deleted.
func AdjustStock(ctx context.Context, db *sql.DB, variantID, branchID int64, delta int, notes string, userID *int64) error {
	if delta == 0 {
		return fmt.Errorf("delta must be non-zero")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var quantity, reserved int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity, reserved FROM ledger WHERE variant_id = ? AND branch_id = ?`,
		variantID, branchID,
	).Scan(&quantity, &reserved)
	if err == sql.ErrNoRows {
		quantity, reserved = 0, 0
	} else if err != nil {
		return fmt.Errorf("checking current quantity: %w", err)
	}

	newQty := quantity + delta
	if newQty < reserved {
		return fmt.Errorf("adjustment would drop quantity below reserved: %d + %d < %d reserved",
			quantity, delta, reserved)
	}

	if newQty == 0 && reserved == 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM ledger WHERE variant_id = ? AND branch_id = ?`,
			variantID, branchID,
		)
	} else if quantity == 0 && reserved == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger (variant_id, branch_id, quantity, reserved) VALUES (?, ?, ?, 0)`,
			variantID, branchID, newQty,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE ledger SET quantity = ? WHERE variant_id = ? AND branch_id = ?`,
			newQty, variantID, branchID,
		)
	}
	if err != nil {
		return fmt.Errorf("adjusting stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing adjustment: %w", err)
	}
	return nil
}

const ledgerColumns = `l.variant_id, l.branch_id, l.quantity, l.reserved, l.quantity - l.reserved AS available,
	        v.sku AS variant_sku, v.name AS variant_name, b.name AS branch_name`

// ListLedger returns the full stock overview across all branches.
func ListLedger(ctx context.Context, db *sql.DB) ([]model.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+ledgerColumns+`
		 FROM ledger l
		 JOIN variants v ON v.id = l.variant_id
		 JOIN branches b ON b.id = l.branch_id
		 ORDER BY v.name, b.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetBranchInventory returns all ledger entries for a branch.
func GetBranchInventory(ctx context.Context, db *sql.DB, branchID int64) ([]model.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+ledgerColumns+`
		 FROM ledger l
		 JOIN variants v ON v.id = l.variant_id
		 JOIN branches b ON b.id = l.branch_id
		 WHERE l.branch_id = ?
		 ORDER BY v.name`, branchID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting branch inventory: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetVariantDistribution returns a variant's ledger entries across branches.
func GetVariantDistribution(ctx context.Context, db *sql.DB, variantID int64) ([]model.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+ledgerColumns+`
		 FROM ledger l
		 JOIN variants v ON v.id = l.variant_id
		 JOIN branches b ON b.id = l.branch_id
		 WHERE l.variant_id = ?
		 ORDER BY b.name`, variantID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting variant distribution: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetLedgerEntry returns the ledger row for one variant at one branch,
// or nil when the branch holds none.
func GetLedgerEntry(ctx context.Context, db *sql.DB, variantID, branchID int64) (*model.LedgerEntry, error) {
	e := &model.LedgerEntry{}
	err := db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+`
		 FROM ledger l
		 JOIN variants v ON v.id = l.variant_id
		 JOIN branches b ON b.id = l.branch_id
		 WHERE l.variant_id = ? AND l.branch_id = ?`, variantID, branchID,
	).Scan(&e.VariantID, &e.BranchID, &e.Quantity, &e.Reserved, &e.Available,
		&e.VariantSKU, &e.VariantName, &e.BranchName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ledger entry: %w", err)
	}
	return e, nil
}

func scanLedgerEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.VariantID, &e.BranchID, &e.Quantity, &e.Reserved, &e.Available,
			&e.VariantSKU, &e.VariantName, &e.BranchName); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/prenos/internal/model"
)

// BatchItem is one requested line of a transfer batch.
type BatchItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// CreateTransfer creates a single pending transfer and reserves the stock at
// the source branch in the same transaction.
func CreateTransfer(ctx context.Context, db *sql.DB, fromBranchID, toBranchID, variantID int64, quantity int, requestedBy *int64, notes string) (*model.Transfer, error) {
	transfers, err := createTransfers(ctx, db, fromBranchID, toBranchID,
		[]BatchItem{{VariantID: variantID, Quantity: quantity}}, requestedBy, notes, nil)
	if err != nil {
		return nil, err
	}
	return &transfers[0], nil
}

// CreateTransferBatch creates one pending transfer per item, all sharing a new
// batch id, and reserves the stock for every item. Reservation is
// all-or-nothing: if any item cannot be reserved the whole batch rolls back.
func CreateTransferBatch(ctx context.Context, db *sql.DB, fromBranchID, toBranchID int64, items []BatchItem, requestedBy *int64, notes string) (*model.Batch, []model.Transfer, error) {
	batchID := uuid.NewString()
	transfers, err := createTransfers(ctx, db, fromBranchID, toBranchID, items, requestedBy, notes, &batchID)
	if err != nil {
		return nil, nil, err
	}

	batch, err := GetBatch(ctx, db, batchID)
	if err != nil {
		return nil, nil, err
	}
	return batch, transfers, nil
}

func createTransfers(ctx context.Context, db *sql.DB, fromBranchID, toBranchID int64, items []BatchItem, requestedBy *int64, notes string, batchID *string) ([]model.Transfer, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if fromBranchID == toBranchID {
		return nil, ErrSameBranch
	}
	for _, item := range items {
		t := model.Transfer{
			VariantID:    item.VariantID,
			FromBranchID: fromBranchID,
			ToBranchID:   toBranchID,
			Quantity:     item.Quantity,
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkBranchActive(ctx, tx, fromBranchID); err != nil {
		return nil, err
	}
	if err := checkBranchActive(ctx, tx, toBranchID); err != nil {
		return nil, err
	}

	if batchID != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO batches (id, note, created_by) VALUES (?, ?, ?)`,
			*batchID, notes, requestedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("creating batch: %w", err)
		}
	}

	var ids []int64
	for _, item := range items {
		if err := checkVariantExists(ctx, tx, item.VariantID); err != nil {
			return nil, err
		}
		if err := reserveStock(ctx, tx, fromBranchID, item.VariantID, item.Quantity); err != nil {
			return nil, err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO transfers (batch_id, variant_id, from_branch_id, to_branch_id, quantity, notes, requested_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			batchID, item.VariantID, fromBranchID, toBranchID, item.Quantity, notes, requestedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("recording transfer: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting transfer id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer creation: %w", err)
	}

	var transfers []model.Transfer
	for _, id := range ids {
		t, err := GetTransfer(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("%w: transfer %d vanished after creation", ErrTransferNotFound, id)
		}
		transfers = append(transfers, *t)
	}
	return transfers, nil
}

// ApproveTransfer moves a pending transfer to approved. Only the receiving
// branch may approve; the reservation at the source stays in place.
func ApproveTransfer(ctx context.Context, db *sql.DB, id, actorBranchID int64, actorUserID *int64) (*model.Transfer, error) {
	return transition(ctx, db, id, model.EventApprove, actorBranchID, actorUserID, "")
}

// RejectTransfer moves a pending transfer to rejected and releases the
// reservation at the source. Only the receiving branch may reject.
func RejectTransfer(ctx context.Context, db *sql.DB, id, actorBranchID int64, actorUserID *int64, reason string) (*model.Transfer, error) {
	return transition(ctx, db, id, model.EventReject, actorBranchID, actorUserID, reason)
}

// ShipTransfer marks an approved transfer as in transit. Only the sending
// branch may ship; the step is optional and carries no ledger effect.
func ShipTransfer(ctx context.Context, db *sql.DB, id, actorBranchID int64, actorUserID *int64) (*model.Transfer, error) {
	return transition(ctx, db, id, model.EventShip, actorBranchID, actorUserID, "")
}

// CompleteTransfer finalizes a transfer, moving the stock from source to
// destination exactly once. Only the receiving branch may complete. A repeat
// call on a completed transfer fails with ErrAlreadyCompleted and leaves the
// ledger untouched.
func CompleteTransfer(ctx context.Context, db *sql.DB, id, actorBranchID int64, actorUserID *int64) (*model.Transfer, error) {
	return transition(ctx, db, id, model.EventComplete, actorBranchID, actorUserID, "")
}

// CancelTransfer cancels a pending or approved transfer and releases the
// reservation at the source. Only the sending branch may cancel.
func CancelTransfer(ctx context.Context, db *sql.DB, id, actorBranchID int64, actorUserID *int64, reason string) (*model.Transfer, error) {
	return transition(ctx, db, id, model.EventCancel, actorBranchID, actorUserID, reason)
}

// transition applies one state machine event to one transfer. The status
// change and its ledger effect commit atomically; the guarded UPDATE
// (matching on the status that was read) makes concurrent transitions on the
// same record serialize instead of interleave.
func transition(ctx context.Context, db *sql.DB, id int64, event string, actorBranchID int64, actorUserID *int64, reason string) (*model.Transfer, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var t model.Transfer
	err = tx.QueryRowContext(ctx,
		`SELECT id, variant_id, from_branch_id, to_branch_id, quantity, status
		 FROM transfers WHERE id = ?`, id,
	).Scan(&t.ID, &t.VariantID, &t.FromBranchID, &t.ToBranchID, &t.Quantity, &t.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transfer %d", ErrTransferNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}

	if event == model.EventComplete && t.Status == model.StatusCompleted {
		return nil, fmt.Errorf("%w: transfer %d", ErrAlreadyCompleted, id)
	}

	next, ok := model.NextStatus(t.Status, event)
	if !ok {
		return nil, &TransitionError{Status: t.Status, Event: event}
	}

	switch model.EventSide(event) {
	case model.SideReceiver:
		if actorBranchID != t.ToBranchID {
			return nil, fmt.Errorf("%w: %s requires the receiving branch %d, acting as %d",
				ErrNotPermitted, event, t.ToBranchID, actorBranchID)
		}
	case model.SideSender:
		if actorBranchID != t.FromBranchID {
			return nil, fmt.Errorf("%w: %s requires the sending branch %d, acting as %d",
				ErrNotPermitted, event, t.FromBranchID, actorBranchID)
		}
	}

	switch event {
	case model.EventReject, model.EventCancel:
		if err := releaseStock(ctx, tx, t.FromBranchID, t.VariantID, t.Quantity); err != nil {
			return nil, err
		}
	case model.EventComplete:
		if err := moveStock(ctx, tx, t.VariantID, t.FromBranchID, t.ToBranchID, t.Quantity); err != nil {
			return nil, err
		}
	}

	var result sql.Result
	switch event {
	case model.EventApprove:
		result, err = tx.ExecContext(ctx,
			`UPDATE transfers SET status = ?, approved_at = CURRENT_TIMESTAMP, approved_by = ?
			 WHERE id = ? AND status = ?`,
			next, actorUserID, id, t.Status,
		)
	case model.EventComplete:
		result, err = tx.ExecContext(ctx,
			`UPDATE transfers SET status = ?, completed_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = ?`,
			next, id, t.Status,
		)
	case model.EventReject, model.EventCancel:
		result, err = tx.ExecContext(ctx,
			`UPDATE transfers SET status = ?, reason = ? WHERE id = ? AND status = ?`,
			next, reason, id, t.Status,
		)
	default:
		result, err = tx.ExecContext(ctx,
			`UPDATE transfers SET status = ? WHERE id = ? AND status = ?`,
			next, id, t.Status,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("updating transfer status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking status update: %w", err)
	}
	if rows == 0 {
		return nil, &TransitionError{Status: t.Status, Event: event}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}

	updated, err := GetTransfer(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: transfer %d vanished after transition", ErrTransferNotFound, id)
	}
	return updated, nil
}

const transferColumns = `t.id, t.batch_id, t.variant_id, t.from_branch_id, t.to_branch_id, t.quantity,
	        t.status, t.notes, t.reason, t.requested_at, t.requested_by,
	        t.approved_at, t.approved_by, t.completed_at,
	        v.sku AS variant_sku, v.name AS variant_name,
	        fb.name AS from_branch_name, tb.name AS to_branch_name`

const transferJoins = ` FROM transfers t
	 JOIN variants v ON v.id = t.variant_id
	 JOIN branches fb ON fb.id = t.from_branch_id
	 JOIN branches tb ON tb.id = t.to_branch_id`

// GetTransfer returns a transfer by ID.
func GetTransfer(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+transferColumns+transferJoins+` WHERE t.id = ?`, id,
	)
	t, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// Transfer list directions.
const (
	DirectionAll      = "all"
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// ListTransfers returns transfers where the branch is the source or
// destination, optionally narrowed by status and direction.
func ListTransfers(ctx context.Context, db *sql.DB, branchID int64, status, direction string) ([]model.Transfer, error) {
	query := `SELECT ` + transferColumns + transferJoins + ` WHERE 1=1`
	var args []any

	switch direction {
	case DirectionSent:
		query += ` AND t.from_branch_id = ?`
		args = append(args, branchID)
	case DirectionReceived:
		query += ` AND t.to_branch_id = ?`
		args = append(args, branchID)
	default:
		query += ` AND (t.from_branch_id = ? OR t.to_branch_id = ?)`
		args = append(args, branchID, branchID)
	}

	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY t.requested_at DESC, t.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	return scanTransfers(rows)
}

// GetBatch returns a batch by ID.
func GetBatch(ctx context.Context, db *sql.DB, id string) (*model.Batch, error) {
	b := &model.Batch{}
	var note sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, note, created_by, created_at FROM batches WHERE id = ?`, id,
	).Scan(&b.ID, &note, &b.CreatedBy, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	b.Note = note.String
	return b, nil
}

// ListBatchTransfers returns the member transfers of a batch.
func ListBatchTransfers(ctx context.Context, db *sql.DB, batchID string) ([]model.Transfer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+transferColumns+transferJoins+` WHERE t.batch_id = ? ORDER BY t.id`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing batch transfers: %w", err)
	}
	defer rows.Close()

	return scanTransfers(rows)
}

// TransferStats aggregates per-status counts for one branch.
type TransferStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	InTransit int `json:"in_transit"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

// GetTransferStats returns transfer counts per status for a branch, counting
// transfers where the branch is either the source or the destination.
func GetTransferStats(ctx context.Context, db *sql.DB, branchID int64) (*TransferStats, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM transfers
		 WHERE from_branch_id = ? OR to_branch_id = ?
		 GROUP BY status`, branchID, branchID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting transfer stats: %w", err)
	}
	defer rows.Close()

	stats := &TransferStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning transfer stats: %w", err)
		}
		stats.Total += count
		switch status {
		case model.StatusPending:
			stats.Pending = count
		case model.StatusApproved:
			stats.Approved = count
		case model.StatusInTransit:
			stats.InTransit = count
		case model.StatusCompleted:
			stats.Completed = count
		case model.StatusRejected:
			stats.Rejected = count
		case model.StatusCancelled:
			stats.Cancelled = count
		}
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*model.Transfer, error) {
	t := &model.Transfer{}
	var notes, reason sql.NullString
	err := row.Scan(&t.ID, &t.BatchID, &t.VariantID, &t.FromBranchID, &t.ToBranchID, &t.Quantity,
		&t.Status, &notes, &reason, &t.RequestedAt, &t.RequestedBy,
		&t.ApprovedAt, &t.ApprovedBy, &t.CompletedAt,
		&t.VariantSKU, &t.VariantName, &t.FromBranchName, &t.ToBranchName)
	if err != nil {
		return nil, err
	}
	t.Notes = notes.String
	t.Reason = reason.String
	return t, nil
}

func scanTransfers(rows *sql.Rows) ([]model.Transfer, error) {
	var transfers []model.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

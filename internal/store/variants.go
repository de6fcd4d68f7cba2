package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/prenos/internal/model"
)

// CreateVariant creates a new product variant.
func CreateVariant(ctx context.Context, db *sql.DB, sku, name, attributes string) (*model.Variant, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO variants (sku, name, attributes) VALUES (?, ?, ?)`,
		sku, name, attributes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating variant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting variant id: %w", err)
	}

	return GetVariant(ctx, db, id)
}

// GetVariant returns a variant by ID.
func GetVariant(ctx context.Context, db *sql.DB, id int64) (*model.Variant, error) {
	v := &model.Variant{}
	var attributes, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, sku, name, attributes, image_mime, status, created_at, updated_at, deleted_at
		 FROM variants WHERE id = ?`, id,
	).Scan(&v.ID, &v.SKU, &v.Name, &attributes, &imageMime, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting variant: %w", err)
	}
	v.Attributes = attributes.String
	v.ImageMime = imageMime.String
	return v, nil
}

// ListVariants returns all non-deleted variants, optionally filtered by status.
func ListVariants(ctx context.Context, db *sql.DB, status string) ([]model.Variant, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, sku, name, attributes, image_mime, status, created_at, updated_at, deleted_at
			 FROM variants WHERE deleted_at IS NULL AND status = ? ORDER BY name`, status,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, sku, name, attributes, image_mime, status, created_at, updated_at, deleted_at
			 FROM variants WHERE deleted_at IS NULL ORDER BY name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		var attributes, imageMime sql.NullString
		if err := rows.Scan(&v.ID, &v.SKU, &v.Name, &attributes, &imageMime, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning variant: %w", err)
		}
		v.Attributes = attributes.String
		v.ImageMime = imageMime.String
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// UpdateVariant updates a variant's metadata.
func UpdateVariant(ctx context.Context, db *sql.DB, id int64, sku, name, attributes, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE variants SET sku = ?, name = ?, attributes = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		sku, name, attributes, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating variant: %w", err)
	}
	return nil
}

// DeleteVariant soft-deletes a variant. Fails while any branch still holds stock.
func DeleteVariant(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger WHERE variant_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking variant ledger: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete variant: still stocked at %d branches", count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE variants SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting variant: %w", err)
	}
	return nil
}

// SetVariantImage sets a variant's image data.
func SetVariantImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE variants SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting variant image: %w", err)
	}
	return nil
}

// GetVariantImage returns a variant's image data and MIME type.
func GetVariantImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM variants WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting variant image: %w", err)
	}
	return image, mime.String, nil
}

package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The ledger CHECK constraints are the
// last line of defence for the reservation invariants: on-hand and reserved
// quantities never go negative and reserved never exceeds on-hand.
const schema = `
CREATE TABLE IF NOT EXISTS branches (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    city       TEXT,
    active     INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    branch_id     INTEGER REFERENCES branches(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS variants (
    id         INTEGER PRIMARY KEY,
    sku        TEXT NOT NULL,
    name       TEXT NOT NULL,
    attributes TEXT,
    image      BLOB,
    image_mime TEXT,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'discontinued')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_variants_sku_active
    ON variants(sku) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS ledger (
    variant_id INTEGER NOT NULL REFERENCES variants(id),
    branch_id  INTEGER NOT NULL REFERENCES branches(id),
    quantity   INTEGER NOT NULL CHECK (quantity >= 0),
    reserved   INTEGER NOT NULL DEFAULT 0 CHECK (reserved >= 0),
    PRIMARY KEY (variant_id, branch_id),
    CHECK (reserved <= quantity)
);

CREATE TABLE IF NOT EXISTS batches (
    id         TEXT PRIMARY KEY,
    note       TEXT,
    created_by INTEGER REFERENCES users(id),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transfers (
    id             INTEGER PRIMARY KEY,
    batch_id       TEXT REFERENCES batches(id),
    variant_id     INTEGER NOT NULL REFERENCES variants(id),
    from_branch_id INTEGER NOT NULL REFERENCES branches(id),
    to_branch_id   INTEGER NOT NULL REFERENCES branches(id),
    quantity       INTEGER NOT NULL CHECK (quantity > 0),
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'approved', 'in_transit', 'completed', 'rejected', 'cancelled')),
    notes          TEXT,
    reason         TEXT,
    requested_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    requested_by   INTEGER REFERENCES users(id),
    approved_at    DATETIME,
    approved_by    INTEGER REFERENCES users(id),
    completed_at   DATETIME,
    CHECK (from_branch_id <> to_branch_id)
);

CREATE INDEX IF NOT EXISTS idx_transfers_from_branch ON transfers(from_branch_id);
CREATE INDEX IF NOT EXISTS idx_transfers_to_branch ON transfers(to_branch_id);
CREATE INDEX IF NOT EXISTS idx_transfers_batch ON transfers(batch_id) WHERE batch_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

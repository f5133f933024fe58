// Package ledger owns the persistent inventory schema: the world-item
// reference table, per-character current quantities, and the append-only
// obtain/discard history. All mutation SQL lives here.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hw112/lldm/internal/sqlguard"
)

// Scope pins every ledger operation to one (campaign, character) key.
type Scope struct {
	CampaignID  int64
	CharacterID int64
}

// Store is the SQLite-backed inventory ledger. Safe for concurrent use;
// mutations for a given key are serialized by their transactions.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the ledger database at path and applies pending
// migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying handle for the bulk loader.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ApplyDelta atomically upserts the current quantity for the item, removes
// the row if the resulting quantity is not positive, and appends a history
// entry carrying the delta. The three steps commit as one unit so the
// history sum always matches the live balance.
func (s *Store) ApplyDelta(ctx context.Context, scope Scope, itemID, delta int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := applyDeltaTx(ctx, tx, scope, itemID, delta); err != nil {
		return err
	}
	return tx.Commit()
}

// DiscardItem checks possession and applies a negative delta under the same
// transaction, so no concurrent mutation can slip between the check and the
// update. Returns ErrItemNotPossessed when the held quantity is below qty;
// in that case nothing is written, history included.
func (s *Store) DiscardItem(ctx context.Context, scope Scope, itemID, qty int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var held int64
	err = tx.QueryRowContext(ctx, `
		SELECT Total_Quantity FROM CHARACTER_INVENTORY
		WHERE Campaign_ID = ? AND Character_ID = ? AND Item_ID = ?`,
		scope.CampaignID, scope.CharacterID, itemID).Scan(&held)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotPossessed
	}
	if err != nil {
		return fmt.Errorf("failed to read held quantity: %w", err)
	}
	if held < qty {
		return ErrItemNotPossessed
	}

	if err := applyDeltaTx(ctx, tx, scope, itemID, -qty); err != nil {
		return err
	}
	return tx.Commit()
}

func applyDeltaTx(ctx context.Context, tx *sql.Tx, scope Scope, itemID, delta int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO CHARACTER_INVENTORY (Campaign_ID, Character_ID, Item_ID, Total_Quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (Campaign_ID, Character_ID, Item_ID)
		DO UPDATE SET Total_Quantity = Total_Quantity + excluded.Total_Quantity`,
		scope.CampaignID, scope.CharacterID, itemID, delta)
	if err != nil {
		return fmt.Errorf("failed to apply inventory delta: %w", err)
	}

	// A quantity at or below zero must not persist as a row.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM CHARACTER_INVENTORY
		WHERE Campaign_ID = ? AND Character_ID = ? AND Item_ID = ? AND Total_Quantity <= 0`,
		scope.CampaignID, scope.CharacterID, itemID)
	if err != nil {
		return fmt.Errorf("failed to clean up empty inventory row: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO CHARACTER_INVENTORY_HISTORY (Campaign_ID, Character_ID, Item_ID, Quantity_Delta)
		VALUES (?, ?, ?, ?)`,
		scope.CampaignID, scope.CharacterID, itemID, delta)
	if err != nil {
		return fmt.Errorf("failed to append inventory history: %w", err)
	}
	return nil
}

// Quantity returns the current held quantity for the item, zero if the
// character holds none.
func (s *Store) Quantity(ctx context.Context, scope Scope, itemID int64) (int64, error) {
	var qty int64
	err := s.db.QueryRowContext(ctx, `
		SELECT Total_Quantity FROM CHARACTER_INVENTORY
		WHERE Campaign_ID = ? AND Character_ID = ? AND Item_ID = ?`,
		scope.CampaignID, scope.CharacterID, itemID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quantity: %w", err)
	}
	return qty, nil
}

// InventoryRow is one line of the character's current inventory joined with
// item metadata.
type InventoryRow struct {
	ItemID            int64  `json:"item_id"`
	Quantity          int64  `json:"quantity"`
	WeaponName        string `json:"weapon_name"`
	WeaponDescription string `json:"weapon_description"`
}

// Snapshot returns the character's current inventory ordered by item id.
func (s *Store) Snapshot(ctx context.Context, scope Scope) ([]InventoryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT Item_ID, Quantity, Weapon_Name, COALESCE(Weapon_Description, '')
		FROM CHARACTER_INVENTORY_DETAILS
		WHERE Campaign_ID = ? AND Character_ID = ?
		ORDER BY Item_ID`,
		scope.CampaignID, scope.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []InventoryRow
	for rows.Next() {
		var r InventoryRow
		if err := rows.Scan(&r.ItemID, &r.Quantity, &r.WeaponName, &r.WeaponDescription); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ScopedQuery runs a model-generated statement after the guard has
// constrained it to a single SELECT over the permitted views and conjoined
// the scope predicate. The statement executes on a dedicated connection
// with query_only set, released on every exit path.
func (s *Store) ScopedQuery(ctx context.Context, query string, scope Scope) ([]map[string]any, error) {
	rewritten, err := sqlguard.RewriteSelect(query, scope.CampaignID, scope.CharacterID)
	if err != nil {
		return nil, err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("failed to enter read-only mode: %w", err)
	}
	defer func() {
		// Reset even when the query fails or the caller's context is gone.
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF")
	}()

	rows, err := conn.QueryContext(ctx, rewritten)
	if err != nil {
		return nil, fmt.Errorf("scoped query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

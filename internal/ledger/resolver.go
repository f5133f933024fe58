package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ResolveItem maps a free-text item name fragment to a world item id.
// Matching is a case-insensitive prefix match; when several items share the
// prefix the lowest item id wins, so resolution is reproducible. Returns
// ErrItemNotFound on zero matches.
func (s *Store) ResolveItem(ctx context.Context, fragment string) (int64, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return 0, ErrItemNotFound
	}

	pattern := likeEscaper.Replace(fragment) + "%"
	var itemID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT Item_ID FROM WORLD_ITEMS
		WHERE UPPER(Weapon_Name) LIKE UPPER(?) ESCAPE '\'
		ORDER BY Item_ID
		LIMIT 1`, pattern).Scan(&itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve item name: %w", err)
	}
	return itemID, nil
}

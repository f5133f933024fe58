package ledger

import "errors"

var (
	// ErrItemNotFound means a name fragment resolved to no world item.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemNotPossessed means a discard asked for more than the
	// character holds.
	ErrItemNotPossessed = errors.New("item not in character's possession")
)

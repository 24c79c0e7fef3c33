package ledger

import "context"

// Ledger is an append-only, hash-chained audit trail. Implementations must
// serialize concurrent Append calls so the chain never forks.
type Ledger interface {
	// Append adds a new entry for agentID, recording entryType and the
	// payload (action-log metadata or a reputation-event delta), attributed
	// to actor (the gateway ID that reported it, or "station" for
	// station-originated events).
	Append(ctx context.Context, agentID string, entryType EntryType, actor string, payload any) (*Entry, error)
	Get(ctx context.Context, index int) (*Entry, error)
	Len(ctx context.Context) (int, error)
	// Verify walks the full chain and returns an error at the first broken
	// or mismatched link.
	Verify(ctx context.Context) error
	// Root returns the hash of the most recently appended entry.
	Root(ctx context.Context) (string, error)
}

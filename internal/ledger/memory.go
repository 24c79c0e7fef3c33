package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLedger is an in-process Ledger, used by tests and by components that
// don't need the chain to outlive a single process.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewMemory returns a MemoryLedger seeded with a genesis entry at index 0.
func NewMemory() *MemoryLedger {
	genesis := &Entry{Index: 0, Timestamp: time.Unix(0, 0).UTC(), Hash: GenesisHash}
	return &MemoryLedger{entries: []*Entry{genesis}}
}

func (l *MemoryLedger) Append(_ context.Context, agentID string, entryType EntryType, actor string, payload any) (*Entry, error) {
	dataHash, err := hashPayload(payload)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.entries[len(l.entries)-1]
	entry := &Entry{
		Index:     tip.Index + 1,
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
		Type:      entryType,
		Actor:     actor,
		DataHash:  dataHash,
		PrevHash:  tip.Hash,
	}
	entry.Hash = hashEntry(entry)
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *MemoryLedger) Get(_ context.Context, index int) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("get ledger entry %d: out of range", index)
	}
	return l.entries[index], nil
}

func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries), nil
}

func (l *MemoryLedger) Verify(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 || l.entries[0].Hash != GenesisHash {
		return fmt.Errorf("genesis entry missing or has wrong hash")
	}
	for i := 1; i < len(l.entries); i++ {
		curr, prev := l.entries[i], l.entries[i-1]
		if curr.PrevHash != prev.Hash {
			return fmt.Errorf("hash chain broken at index %d", curr.Index)
		}
		if curr.Hash != hashEntry(curr) {
			return fmt.Errorf("entry %d has invalid hash", curr.Index)
		}
	}
	return nil
}

func (l *MemoryLedger) Root(_ context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[len(l.entries)-1].Hash, nil
}

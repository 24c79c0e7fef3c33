package ledger_test

import (
	"context"
	"testing"

	"github.com/Retr0981/agenttrust/internal/ledger"
)

func TestMemoryLedger_appendAndVerify(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()

	if _, err := l.Append(ctx, "agent-1", ledger.EntryActionLog, "gw-1", map[string]any{"action": "search", "decision": "allowed"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if _, err := l.Append(ctx, "agent-1", ledger.EntryReputationEvent, "station", map[string]any{"outcome": "success", "delta": 0}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	n, err := l.Len(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Len() = %d, %v, want 3, nil", n, err)
	}
	if err := l.Verify(ctx); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	entry, err := l.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if entry.AgentID != "agent-1" || entry.Type != ledger.EntryActionLog {
		t.Errorf("unexpected entry: %+v", entry)
	}

	root, err := l.Root(ctx)
	if err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	if root == "" {
		t.Fatal("Root() returned empty hash")
	}
}

func TestMemoryLedger_verifyDetectsTamperedChain(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	if _, err := l.Append(ctx, "agent-1", ledger.EntryActionLog, "gw-1", map[string]any{"action": "search"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	entry, err := l.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	entry.DataHash = "tampered"

	if err := l.Verify(ctx); err == nil {
		t.Fatal("expected Verify() to detect the tampered entry")
	}
}

func TestMemoryLedger_getOutOfRange(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	if _, err := l.Get(ctx, 5); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

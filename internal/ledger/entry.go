// Package ledger implements the station's hash-chained audit trail for
// action-log entries and reputation events (spec.md §4.8, §3). Each append
// links to the previous entry's hash, so tampering with any historical row
// is detectable by re-walking the chain.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisHash is the well-known hash of the chain's first entry. It is a
// fixed constant, not computed, so every fresh ledger starts from the same
// root regardless of when it was created.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000"

// EntryType distinguishes the two kinds of record the station chains
// together: action-log rows from gateway reports, and reputation deltas
// recomputed from them.
type EntryType string

const (
	EntryActionLog        EntryType = "action_log"
	EntryReputationEvent  EntryType = "reputation_event"
)

// Entry is one link in the audit chain.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	AgentID   string    `json:"agentId"`
	Type      EntryType `json:"type"`
	Actor     string    `json:"actor"` // gateway ID, "station", or similar
	DataHash  string    `json:"dataHash"`
	PrevHash  string    `json:"prevHash"`
	Hash      string    `json:"hash"`
}

// hashEntry computes an entry's own hash from its fields and the previous
// entry's hash, binding it into the chain.
func hashEntry(e *Entry) string {
	s := fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.UTC().Format(time.RFC3339Nano), e.AgentID, e.Type, e.Actor, e.DataHash, e.PrevHash)
	return sha256Sum([]byte(s))
}

func sha256Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hashPayload(payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return sha256Sum(b), nil
}

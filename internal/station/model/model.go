// Package model defines the station's persisted entities (spec.md §3):
// developers, agents, vouches, issued certificates, and the two append-only
// audit logs. Field and tag conventions follow
// internal/registry/model/agent.go's db/json-tagged struct style.
package model

import (
	"time"

	"github.com/google/uuid"
)

// AgentStatus is the lifecycle state the station reads but never mutates
// itself (spec.md §3: "Status-change is out of scope; the core reads it").
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusSuspended AgentStatus = "suspended"
	AgentStatusBanned    AgentStatus = "banned"
)

// Developer is the principal that owns agents and authenticates with an API
// key. Created once; never mutated by the core.
type Developer struct {
	ID        uuid.UUID `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	APIKeyHash string   `json:"-"         db:"api_key_hash"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Agent is identified by the (developerId, externalId) pair and by a global
// internal UUID. ReputationScore is a cache recomputed whenever TotalActions,
// SuccessfulActions, FailedActions, or vouches change.
type Agent struct {
	ID                uuid.UUID   `json:"id"                db:"id"`
	DeveloperID       uuid.UUID   `json:"developerId"       db:"developer_id"`
	ExternalID        string      `json:"externalId"        db:"external_id"`
	IdentityVerified  bool        `json:"identityVerified"  db:"identity_verified"`
	StakeAmount       float64     `json:"stakeAmount"       db:"stake_amount"`
	TotalActions      int         `json:"totalActions"      db:"total_actions"`
	SuccessfulActions int         `json:"successfulActions" db:"successful_actions"`
	FailedActions     int         `json:"failedActions"     db:"failed_actions"`
	Status            AgentStatus `json:"status"            db:"status"`
	ReputationScore   int         `json:"reputationScore"   db:"reputation_score"`
	CreatedAt         time.Time   `json:"createdAt"         db:"created_at"`
}

// Active reports whether the agent's status permits certificate issuance.
func (a *Agent) Active() bool {
	return a.Status == AgentStatusActive
}

// Vouch is a directed edge voucher -> vouched. Unique per ordered pair.
// The voucher must have had a cached score >= 60 at creation time (enforced
// by the service layer, not representable as a column constraint).
type Vouch struct {
	ID         uuid.UUID `json:"id"         db:"id"`
	VoucherID  uuid.UUID `json:"voucherId"  db:"voucher_id"`
	VouchedID  uuid.UUID `json:"vouchedId"  db:"vouched_id"`
	Weight     int       `json:"weight"     db:"weight"` // 1..5
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

// CertificateRecord is the persisted row for an issued certificate, keyed by
// jti. Invariant: IssuedAt < ExpiresAt. Revoked never reverts to false.
type CertificateRecord struct {
	JTI       string    `json:"jti"       db:"jti"`
	AgentID   uuid.UUID `json:"agentId"   db:"agent_id"`
	Score     int       `json:"score"     db:"score"`
	Scope     []string  `json:"scope"     db:"scope"`
	IssuedAt  time.Time `json:"issuedAt"  db:"issued_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	Revoked   bool      `json:"revoked"   db:"revoked"`
}

// Decision is the outcome the gateway (or the station's own /verify
// endpoint) recorded for one evaluated action.
type Decision string

const (
	DecisionAllowed Decision = "allowed"
	DecisionDenied  Decision = "denied"
)

// ActionLogEntry is an immutable audit record of a verification or report
// event.
type ActionLogEntry struct {
	ID         uuid.UUID      `json:"id"         db:"id"`
	AgentID    uuid.UUID      `json:"agentId"    db:"agent_id"`
	ActionType string         `json:"actionType" db:"action_type"`
	Decision   Decision       `json:"decision"   db:"decision"`
	Reason     string         `json:"reason"     db:"reason"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"  db:"created_at"`
}

// ReputationEventType enumerates what changed an agent's score.
type ReputationEventType string

const (
	EventSuccess        ReputationEventType = "success"
	EventFailure        ReputationEventType = "failure"
	EventVouchReceived  ReputationEventType = "vouch_received"
	EventStakeAdded     ReputationEventType = "stake_added"
	EventAbuseReported  ReputationEventType = "abuse_reported"
)

// ReputationEvent is an immutable append-only log entry recording a score
// change and its cause.
type ReputationEvent struct {
	ID          uuid.UUID           `json:"id"          db:"id"`
	AgentID     uuid.UUID           `json:"agentId"     db:"agent_id"`
	EventType   ReputationEventType `json:"eventType"   db:"event_type"`
	ScoreChange int                 `json:"scoreChange" db:"score_change"`
	CreatedAt   time.Time           `json:"createdAt"   db:"created_at"`
}

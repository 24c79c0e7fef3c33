package certificate

import (
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the fixed "iss" claim value for every clearance certificate.
const Issuer = "agent-trust-station"

// AgentStatus mirrors the lifecycle states from spec.md §3. Duplicated here
// (rather than imported from the station model package) so this package has
// no dependency on the station's persistence layer — it only knows about
// the wire format of a certificate.
type AgentStatus string

const (
	StatusActive    AgentStatus = "active"
	StatusSuspended AgentStatus = "suspended"
	StatusBanned    AgentStatus = "banned"
)

// Claims are the JWT claims carried by a clearance certificate
// (spec.md §4.2, §6 "JWT format"). It generalizes the teacher's
// TaskTokenClaims (internal/identity/token.go) from an agent-URI + scopes
// pair to the full trust-station claim set.
type Claims struct {
	jwt.RegisteredClaims

	AgentExternalID  string   `json:"agentExternalId"`
	DeveloperID      string   `json:"developerId"`
	Score            int      `json:"score"`
	IdentityVerified bool     `json:"identityVerified"`
	Status           string   `json:"status"`
	TotalActions     int      `json:"totalActions"`
	SuccessRate      *float64 `json:"successRate"`
	Scope            []string `json:"scope,omitempty"`
}

// InScope reports whether action is authorized by this certificate's scope
// claim. An absent or empty scope means wildcard (spec.md §9).
func (c *Claims) InScope(action string) bool {
	if len(c.Scope) == 0 {
		return true
	}
	for _, s := range c.Scope {
		if s == action {
			return true
		}
	}
	return false
}

// Disabled reports whether the certificate's captured status claim reflects
// an agent that should no longer be trusted.
func (c *Claims) Disabled() bool {
	return c.Status == string(StatusBanned) || c.Status == string(StatusSuspended)
}

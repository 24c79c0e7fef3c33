package certificate

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/reputation"
)

// IssueInput carries everything the issuer needs about the agent at the
// moment of issuance; the caller (station/service.CertificateService) is
// responsible for loading the agent, recomputing the score, and checking
// status before calling Issue.
type IssueInput struct {
	AgentID          string // internal UUID, becomes "sub"
	AgentExternalID  string
	DeveloperID      string
	Score            int
	IdentityVerified bool
	Status           string
	TotalActions     int
	SuccessfulActions int
	Scope            []string // empty/nil = wildcard
}

// Issued is the result of a successful issuance.
type Issued struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Score     int
}

// CertIssuer signs clearance certificates with RS256, generalizing
// internal/identity/token.go's TokenIssuer from an agent-URI/scopes pair to
// the full trust-station claim set of spec.md §4.2.
type CertIssuer struct {
	key *rsa.PrivateKey
	ttl time.Duration
}

// NewIssuer creates a CertIssuer. ttl is exp-iat (default 300s, spec.md
// §4.2); it is fixed for the lifetime of the process ("configurable
// process-wide but immutable per run").
func NewIssuer(key *rsa.PrivateKey, ttl time.Duration) *CertIssuer {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &CertIssuer{key: key, ttl: ttl}
}

// TTL returns the configured certificate lifetime.
func (iss *CertIssuer) TTL() time.Duration { return iss.ttl }

// Issue signs and returns a new clearance certificate for in.
func (iss *CertIssuer) Issue(in IssueInput) (*Issued, error) {
	now := time.Now().UTC()
	exp := now.Add(iss.ttl)
	jti := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   in.AgentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
		AgentExternalID:  in.AgentExternalID,
		DeveloperID:      in.DeveloperID,
		Score:            in.Score,
		IdentityVerified: in.IdentityVerified,
		Status:           in.Status,
		TotalActions:     in.TotalActions,
		SuccessRate:      reputation.SuccessRate(in.SuccessfulActions, in.TotalActions),
		Scope:            in.Scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(iss.key)
	if err != nil {
		return nil, fmt.Errorf("sign certificate: %w", err)
	}

	return &Issued{
		Token:     signed,
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: exp,
		Score:     in.Score,
	}, nil
}

package certificate

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// KeySource supplies the RSA public key used to verify certificate
// signatures. On the gateway this is a cached, periodically-refreshed
// fetch from the station's discovery endpoint (spec.md §4.4); on the
// station it is the in-process signing key's public half.
type KeySource interface {
	PublicKey() (*rsa.PublicKey, error)
}

// StaticKeySource wraps a fixed public key, used by the station itself
// (which always trusts its own key) and by tests.
type StaticKeySource struct {
	Key *rsa.PublicKey
}

func (s StaticKeySource) PublicKey() (*rsa.PublicKey, error) { return s.Key, nil }

// Verifier checks RS256 signatures and the structural claims common to both
// verification paths of spec.md §4.3 (issuer, expiry, parseability). Kind-
// specific terminal decisions (MissingCredential, AgentDisabled, revocation)
// are layered on by the caller, since they depend on context the verifier
// itself does not have (the request's Authorization header, the database).
type Verifier struct {
	keys KeySource
}

// NewVerifier creates a Verifier backed by keys.
func NewVerifier(keys KeySource) *Verifier {
	return &Verifier{keys: keys}
}

// Parse validates signature, issuer, and expiry and returns the decoded
// claims. It does not check revocation (that is the remote path's job) or
// agent status (the caller decides whether AgentDisabled is terminal).
func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	pub, err := v.keys.PublicKey()
	if err != nil {
		return nil, trusterr.Wrap(trusterr.Internal, "fetch station public key", err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return pub, nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, trusterr.New(trusterr.CertExpired, "certificate has expired")
		}
		return nil, trusterr.Wrap(trusterr.CertInvalid, "certificate signature invalid", err)
	}
	if !token.Valid {
		return nil, trusterr.New(trusterr.CertInvalid, "certificate failed validation")
	}

	// jwt.WithExpirationRequired + ParseWithClaims already rejects exp<=now,
	// but the explicit check keeps the contract obvious and testable without
	// depending on library leeway defaults.
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(time.Now().UTC()) {
		return nil, trusterr.New(trusterr.CertExpired, "certificate has expired")
	}

	return claims, nil
}

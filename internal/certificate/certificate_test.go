package certificate_test

import (
	"testing"
	"time"

	"github.com/Retr0981/agenttrust/internal/certificate"
	"github.com/Retr0981/agenttrust/internal/keyloader"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

func TestIssueVerify_roundTrip(t *testing.T) {
	kp, err := keyloader.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	issuer := certificate.NewIssuer(kp.Private, 300*time.Second)
	issued, err := issuer.Issue(certificate.IssueInput{
		AgentID:           "agent-uuid-1",
		AgentExternalID:   "ext-1",
		DeveloperID:       "dev-1",
		Score:             50,
		IdentityVerified:  false,
		Status:            "active",
		TotalActions:      0,
		SuccessfulActions: 0,
		Scope:             []string{"search"},
	})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if issued.ExpiresAt.Sub(issued.IssuedAt) != 300*time.Second {
		t.Errorf("exp-iat = %v, want 300s", issued.ExpiresAt.Sub(issued.IssuedAt))
	}

	verifier := certificate.NewVerifier(certificate.StaticKeySource{Key: kp.Public})
	claims, err := verifier.Parse(issued.Token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if claims.Subject != "agent-uuid-1" {
		t.Errorf("sub = %q, want agent-uuid-1", claims.Subject)
	}
	if claims.ID != issued.JTI {
		t.Errorf("jti = %q, want %q", claims.ID, issued.JTI)
	}
	if claims.Score != 50 {
		t.Errorf("score = %d, want 50", claims.Score)
	}
	if !claims.InScope("search") {
		t.Error("expected scope to include search")
	}
	if claims.InScope("checkout") {
		t.Error("expected scope to exclude checkout")
	}
	if claims.SuccessRate != nil {
		t.Errorf("expected nil success rate for zero total actions, got %v", *claims.SuccessRate)
	}
}

func TestVerify_expired(t *testing.T) {
	kp, _ := keyloader.Generate()
	issuer := certificate.NewIssuer(kp.Private, -1*time.Second) // already expired
	issued, err := issuer.Issue(certificate.IssueInput{AgentID: "a", Status: "active"})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	verifier := certificate.NewVerifier(certificate.StaticKeySource{Key: kp.Public})
	_, err = verifier.Parse(issued.Token)
	if !trusterr.Is(err, trusterr.CertExpired) {
		t.Errorf("expected CertExpired, got %v", err)
	}
}

func TestVerify_wrongKey(t *testing.T) {
	kp1, _ := keyloader.Generate()
	kp2, _ := keyloader.Generate()

	issuer := certificate.NewIssuer(kp1.Private, 300*time.Second)
	issued, err := issuer.Issue(certificate.IssueInput{AgentID: "a", Status: "active"})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	verifier := certificate.NewVerifier(certificate.StaticKeySource{Key: kp2.Public})
	_, err = verifier.Parse(issued.Token)
	if !trusterr.Is(err, trusterr.CertInvalid) {
		t.Errorf("expected CertInvalid, got %v", err)
	}
}

func TestScopeWildcardWhenEmpty(t *testing.T) {
	c := &certificate.Claims{}
	if !c.InScope("anything") {
		t.Error("empty scope should be wildcard")
	}
}

func TestDisabled(t *testing.T) {
	cases := map[string]bool{"active": false, "suspended": true, "banned": true}
	for status, want := range cases {
		c := &certificate.Claims{Status: status}
		if c.Disabled() != want {
			t.Errorf("status=%q: Disabled()=%v, want %v", status, c.Disabled(), want)
		}
	}
}

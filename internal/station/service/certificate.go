package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Retr0981/agenttrust/internal/certificate"
	"github.com/Retr0981/agenttrust/internal/reputation"
	"github.com/Retr0981/agenttrust/internal/station/model"
	"github.com/Retr0981/agenttrust/internal/station/repository"
	"github.com/Retr0981/agenttrust/internal/trusterr"
)

// certRepo is the slice of CertificateRepository that CertificateService and
// ReportService need. *repository.CertificateRepository satisfies this.
type certRepo interface {
	Create(ctx context.Context, rec *model.CertificateRecord) error
	GetByJTI(ctx context.Context, jti string) (*model.CertificateRecord, error)
	Revoke(ctx context.Context, jti string) error
}

// CertificateService issues and verifies clearance certificates (spec.md
// §4.2, §4.3 remote path). Score recomputation is a read-modify-write
// against the agent row, so issuance is serialized per agent with a
// striped mutex — a compare-and-set loop or row lock would also satisfy
// spec.md §5; a mutex is simplest given the in-process agent cache is the
// only writer on this path.
type CertificateService struct {
	agents       agentRepo
	vouches      vouchRepo
	certificates certRepo
	issuer       *certificate.CertIssuer

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewCertificateService builds a CertificateService.
func NewCertificateService(agents agentRepo, vouches vouchRepo, certificates certRepo, issuer *certificate.CertIssuer) *CertificateService {
	return &CertificateService{
		agents:       agents,
		vouches:      vouches,
		certificates: certificates,
		issuer:       issuer,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *CertificateService) lockFor(agentID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[agentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[agentID] = l
	}
	return l
}

// Issue recomputes agentID's score and signs a new certificate scoped to
// scope (empty/nil means wildcard). Fails NotFound if the (developerId,
// agentId) pair doesn't resolve, Forbidden if the agent is banned/suspended.
func (s *CertificateService) Issue(ctx context.Context, developerID, agentID uuid.UUID, scope []string) (*certificate.Issued, error) {
	lock := s.lockFor(agentID)
	lock.Lock()
	defer lock.Unlock()

	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, trusterr.NotFoundf("agent not found")
		}
		return nil, trusterr.Internalf(err, "load agent")
	}
	if agent.DeveloperID != developerID {
		return nil, trusterr.NotFoundf("agent not found")
	}
	if agent.Status == model.AgentStatusBanned || agent.Status == model.AgentStatusSuspended {
		return nil, trusterr.Forbiddenf("agent is %s", agent.Status)
	}

	vouchCount, err := s.vouches.CountReceived(ctx, agent.ID)
	if err != nil {
		return nil, trusterr.Internalf(err, "count vouches")
	}
	score := reputation.Calculate(reputation.Input{
		IdentityVerified:  agent.IdentityVerified,
		StakeAmount:       agent.StakeAmount,
		VouchesReceived:   vouchCount,
		TotalActions:      agent.TotalActions,
		SuccessfulActions: agent.SuccessfulActions,
		FailedActions:     agent.FailedActions,
		CreatedAt:         agent.CreatedAt,
	})
	if err := s.agents.UpdateScore(ctx, agent.ID, score); err != nil {
		return nil, trusterr.Internalf(err, "update score")
	}

	issued, err := s.issuer.Issue(certificate.IssueInput{
		AgentID:           agent.ID.String(),
		AgentExternalID:   agent.ExternalID,
		DeveloperID:       developerID.String(),
		Score:             score,
		IdentityVerified:  agent.IdentityVerified,
		Status:            string(agent.Status),
		TotalActions:      agent.TotalActions,
		SuccessfulActions: agent.SuccessfulActions,
		Scope:             scope,
	})
	if err != nil {
		return nil, trusterr.Internalf(err, "issue certificate")
	}

	rec := &model.CertificateRecord{
		JTI:       issued.JTI,
		AgentID:   agent.ID,
		Score:     score,
		Scope:     scope,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}
	if err := s.certificates.Create(ctx, rec); err != nil {
		return nil, trusterr.Internalf(err, "persist certificate record")
	}

	return issued, nil
}

// VerifyResult is the payload for GET /certificates/verify.
type VerifyResult struct {
	Valid   bool              `json:"valid"`
	Payload *certificate.Claims `json:"payload,omitempty"`
}

// VerifyRemote implements the remote verification path (spec.md §4.3):
// structural checks plus a database lookup by jti, rejecting absent or
// revoked records.
func (s *CertificateService) VerifyRemote(ctx context.Context, verifier *certificate.Verifier, token string) (VerifyResult, error) {
	claims, err := verifier.Parse(token)
	if err != nil {
		return VerifyResult{Valid: false}, nil
	}

	rec, err := s.certificates.GetByJTI(ctx, claims.ID)
	if err != nil {
		if err == repository.ErrNotFound {
			return VerifyResult{Valid: false}, nil
		}
		return VerifyResult{}, trusterr.Internalf(err, "load certificate record")
	}
	if rec.Revoked {
		return VerifyResult{Valid: false}, nil
	}

	return VerifyResult{Valid: true, Payload: claims}, nil
}

// Revoke marks a certificate record revoked. Idempotent; revoked never
// reverts to false.
func (s *CertificateService) Revoke(ctx context.Context, jti string) error {
	if err := s.certificates.Revoke(ctx, jti); err != nil {
		if err == repository.ErrNotFound {
			return trusterr.NotFoundf("certificate not found")
		}
		return trusterr.Internalf(err, "revoke certificate")
	}
	return nil
}

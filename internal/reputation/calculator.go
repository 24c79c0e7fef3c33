// Package reputation implements the deterministic multi-factor reputation
// score (spec.md §4.1). It is a pure function of one agent's durable history;
// the same Input always yields the same Score.
package reputation

import (
	"math"
	"time"
)

const secondsPerMonth = 30 * 24 * 3600

// Input is the durable agent history the score is computed from.
type Input struct {
	IdentityVerified   bool
	StakeAmount        float64
	VouchesReceived    int
	TotalActions       int
	SuccessfulActions  int
	FailedActions      int
	CreatedAt          time.Time
	Now                time.Time // injected for deterministic testing; zero means time.Now()
}

// Breakdown is the per-factor contribution to the final score, returned by
// the reputation endpoint (spec.md §6 GET /agents/{externalId}/reputation).
// Grounded on the named-factor-struct shape used by trust_calculator.go in
// the retrieval pack, generalized to this spec's six additive components.
type Breakdown struct {
	Base            int      `json:"base"`
	Identity        int      `json:"identity"`
	Stake           int      `json:"stake"`
	Vouches         int      `json:"vouches"`
	SuccessRate     int      `json:"success_rate"`
	Age             int      `json:"age"`
	FailurePenalty  int      `json:"failure_penalty"`
	Score           int      `json:"score"`
	SuccessRatePct  *float64 `json:"success_rate_pct,omitempty"`
}

// Calculate computes the clamped [0,100] reputation score for in.
func Calculate(in Input) int {
	return compute(in).Score
}

// CalculateBreakdown computes the score together with each component's
// contribution, for display/introspection.
func CalculateBreakdown(in Input) Breakdown {
	return compute(in)
}

func compute(in Input) Breakdown {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	b := Breakdown{Base: 50}

	if in.IdentityVerified {
		b.Identity = 10
	}

	if in.StakeAmount > 0 {
		b.Stake = clampInt(5+int(math.Floor(in.StakeAmount/100)), 0, 15)
	}

	b.Vouches = clampInt(2*in.VouchesReceived, 0, 20)

	if in.TotalActions > 0 {
		rate := float64(in.SuccessfulActions) / float64(in.TotalActions)
		b.SuccessRate = int(math.Round(20 * rate))
		pct := math.Round(rate*100) / 100
		b.SuccessRatePct = &pct
	}

	if !in.CreatedAt.IsZero() {
		monthsElapsed := int(now.Sub(in.CreatedAt).Seconds() / secondsPerMonth)
		b.Age = clampInt(monthsElapsed, 0, 10)
	}

	b.FailurePenalty = 5 * in.FailedActions

	sum := b.Base + b.Identity + b.Stake + b.Vouches + b.SuccessRate + b.Age - b.FailurePenalty
	b.Score = clampInt(sum, 0, 100)

	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SuccessRate returns the rounded-to-two-decimal success rate used for the
// certificate claim (spec.md §4.2), or nil when there are no actions yet.
func SuccessRate(successful, total int) *float64 {
	if total <= 0 {
		return nil
	}
	rate := math.Round(float64(successful)/float64(total)*100) / 100
	return &rate
}

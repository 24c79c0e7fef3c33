// Package behavior implements the gateway's per-agent session state machine:
// it watches the live stream of actions an agent takes through one gateway
// process and raises flags (rapid_fire, repeated_action, and so on) that
// decay a session-scoped behavior score, independent of the agent's durable
// reputation score at the station.
package behavior

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Event is emitted once per newly-raised flag, for a listener to log or
// export as a metric.
type Event struct {
	AgentID       string
	ExternalID    string
	Flag          string
	Penalty       int
	BehaviorScore int
	Blocked       bool
	At            time.Time
}

// Listener receives behavior events as they're raised. Implementations must
// not block the caller; Tracker does not itself own the dispatch goroutine.
type Listener func(Event)

// Tracker is the per-gateway singleton behavior state machine (spec.md
// §4.6). The top-level map is guarded by mu; each Session additionally
// guards itself so that concurrent actions from the same agent serialize
// without blocking unrelated agents (spec.md §5).
type Tracker struct {
	cfg      Config
	listener Listener

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a Tracker. listener may be nil.
func New(cfg Config, listener Listener) *Tracker {
	return &Tracker{
		cfg:      cfg,
		listener: listener,
		sessions: make(map[string]*Session),
	}
}

func (t *Tracker) sessionFor(agentID, externalID string, now time.Time) *Session {
	t.mu.RLock()
	s, ok := t.sessions[agentID]
	t.mu.RUnlock()

	if ok {
		s.mu.Lock()
		stale := s.State != StateBlocked && now.Sub(s.LastActivityAt) > t.cfg.SessionTimeout
		s.mu.Unlock()
		if !stale {
			return s
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check under the write lock in case another goroutine already
	// recreated the session.
	if s, ok := t.sessions[agentID]; ok {
		s.mu.Lock()
		stale := s.State != StateBlocked && now.Sub(s.LastActivityAt) > t.cfg.SessionTimeout
		s.mu.Unlock()
		if !stale {
			return s
		}
	}
	s = newSession(agentID, externalID, now)
	t.sessions[agentID] = s
	return s
}

// RecordAction appends one action to the agent's session, runs the detector
// set, applies penalties for newly (or recurringly) raised flags, and
// reports whether the session transitioned to blocked as a result of this
// call. It is the only mutating entry point (spec.md §4.6 step 8 / §4.7
// step 8).
func (t *Tracker) RecordAction(agentID, externalID, actionName string, params map[string]any, success bool, scoreMet bool, now time.Time) (behaviorScore int, newFlags []string, blockedNow bool) {
	s := t.sessionFor(agentID, externalID, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State == StateBlocked {
		return s.BehaviorScore, nil, false
	}

	s.LastActivityAt = now
	s.Actions = append(s.Actions, actionEntry{
		At:          now,
		ActionName:  actionName,
		Fingerprint: Fingerprint(actionName, params),
		Success:     success,
	})

	flags := detect(s, t.cfg, now, scoreMet)

	wasBlocked := s.State == StateBlocked
	for _, flag := range flags {
		// Open question resolution (spec.md §9): the source's escalating
		// rule can double-penalize a flag's first appearance. We apply the
		// full penalty only the first time a flag is seen in this session;
		// every later occurrence costs half — except scope_violation, which
		// the spec calls out as always costing the full penalty per
		// occurrence, so it is never treated as "recurring".
		recurring := s.Flags[flag] && flag != "scope_violation"
		penalty := t.cfg.ViolationPenalty
		if recurring {
			penalty = t.cfg.ViolationPenalty / 2
		}
		s.Flags[flag] = true
		s.BehaviorScore -= penalty
		if s.BehaviorScore < 0 {
			s.BehaviorScore = 0
		}
		if !recurring {
			newFlags = append(newFlags, flag)
		}
		if t.listener != nil {
			t.listener(Event{
				AgentID:       agentID,
				ExternalID:    externalID,
				Flag:          flag,
				Penalty:       penalty,
				BehaviorScore: s.BehaviorScore,
				At:            now,
			})
		}
	}

	if s.BehaviorScore <= t.cfg.BlockThreshold {
		s.State = StateBlocked
	}
	blockedNow = !wasBlocked && s.State == StateBlocked

	return s.BehaviorScore, newFlags, blockedNow
}

// IsBlocked reports whether agentID currently has a blocked session, without
// mutating state (spec.md §4.7 step 3, the live-block check).
func (t *Tracker) IsBlocked(agentID string, now time.Time) bool {
	t.mu.RLock()
	s, ok := t.sessions[agentID]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateBlocked && now.Sub(s.LastActivityAt) > t.cfg.SessionTimeout {
		return false
	}
	return s.State == StateBlocked
}

// Snapshot returns a read-only view of every live session, sorted by
// agentID, for GET /behavior/sessions.
func (t *Tracker) Snapshot() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Snapshot, 0, len(t.sessions))
	for _, s := range t.sessions {
		s.mu.Lock()
		out = append(out, s.snapshot())
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// Sweep evicts sessions idle past SessionTimeout, returning the count
// removed (spec.md §4.6 "Sweeper").
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, s := range t.sessions {
		s.mu.Lock()
		idle := now.Sub(s.LastActivityAt) > t.cfg.SessionTimeout
		s.mu.Unlock()
		if idle {
			delete(t.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run starts the periodic sweeper; it blocks until ctx is done. cadence
// defaults to 60s when zero.
func (t *Tracker) Run(ctx context.Context, cadence time.Duration) {
	if cadence <= 0 {
		cadence = 60 * time.Second
	}
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(time.Now().UTC())
		}
	}
}

// WarningForScore returns the advisory text for a gateway response when the
// session's behavior score warrants a heads-up (spec.md §4.7 step 10):
// severe below 50, mild otherwise.
func WarningForScore(score int) string {
	if score < 50 {
		return "severe behavioral risk detected for this session"
	}
	return "mild behavioral risk detected for this session"
}

package behavior

import (
	"sync"
	"time"
)

// State is a session's position in the spec.md §4.6 state machine.
type State string

const (
	StateAbsent  State = "absent"
	StateActive  State = "active"
	StateBlocked State = "blocked"
)

// actionEntry is one recorded action within a session's tail.
type actionEntry struct {
	At          time.Time
	ActionName  string
	Fingerprint string
	Success     bool
}

// Session is one agent's live behavior state on a single gateway process.
// Access is always through its mutex, which also serves as the per-agent
// serialization point required by spec.md §5 ("concurrent actions from the
// same agent serialize").
type Session struct {
	mu sync.Mutex

	AgentID        string
	ExternalID     string
	State          State
	BehaviorScore  int
	Flags          map[string]bool
	Actions        []actionEntry
	CreatedAt      time.Time
	LastActivityAt time.Time
}

func newSession(agentID, externalID string, now time.Time) *Session {
	return &Session{
		AgentID:        agentID,
		ExternalID:     externalID,
		State:          StateActive,
		BehaviorScore:  100,
		Flags:          make(map[string]bool),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Snapshot is the read-only view served by GET /behavior/sessions.
type Snapshot struct {
	AgentID       string   `json:"agentId"`
	ExternalID    string   `json:"externalId"`
	State         State    `json:"state"`
	BehaviorScore int      `json:"behaviorScore"`
	Flags         []string `json:"flags"`
	ActionCount   int      `json:"actionCount"`
	LastActivity  time.Time `json:"lastActivityAt"`
}

func (s *Session) snapshot() Snapshot {
	flags := make([]string, 0, len(s.Flags))
	for f := range s.Flags {
		flags = append(flags, f)
	}
	return Snapshot{
		AgentID:       s.AgentID,
		ExternalID:    s.ExternalID,
		State:         s.State,
		BehaviorScore: s.BehaviorScore,
		Flags:         flags,
		ActionCount:   len(s.Actions),
		LastActivity:  s.LastActivityAt,
	}
}

// Package actionregistry holds a gateway's per-process configuration of
// executable actions: what they're named, the reputation score they require,
// the shape of their parameters, and the Go function that carries them out.
// It generalizes the teacher's capability taxonomy (internal/registry/model
// capabilities.go) from a browsable, unenforced suggestion list to an
// enforced, typed parameter contract with a gating score.
package actionregistry

import (
	"fmt"
	"sort"
)

// ParamType enumerates the parameter kinds a Handler's schema may declare.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ParamSpec describes one named parameter of an action.
type ParamSpec struct {
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
}

// Handler carries out an action. It returns the response payload on success,
// or an error whose message becomes the {success:false, error} string; a
// panic during execution is also trapped and treated as a handler error.
type Handler func(agentCtx AgentContext, params map[string]any) (any, error)

// AgentContext is the subset of certificate claims an action handler may
// need to make its own decisions (e.g. to scope a downstream call).
type AgentContext struct {
	AgentID         string
	AgentExternalID string
	Score           int
	Scope           []string
}

// Action is one registered, executable capability of a gateway.
type Action struct {
	Name        string
	Description string
	MinScore    int
	Parameters  map[string]ParamSpec
	Handler     Handler
}

// PublicView is Action with the handler stripped, suitable for GET /actions.
type PublicView struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	MinScore    int                  `json:"minScore"`
	Parameters  map[string]ParamSpec `json:"parameters"`
}

// Registry is an immutable, name-keyed set of actions built once at gateway
// startup from configuration.
type Registry struct {
	actions map[string]Action
}

// New builds a Registry from actions. A duplicate name is a configuration
// error since actions are keyed by name; callers should treat this as fatal
// at startup.
func New(actions []Action) (*Registry, error) {
	m := make(map[string]Action, len(actions))
	for _, a := range actions {
		if a.Name == "" {
			return nil, fmt.Errorf("action registry: action has empty name")
		}
		if _, exists := m[a.Name]; exists {
			return nil, fmt.Errorf("action registry: duplicate action name %q", a.Name)
		}
		if a.Handler == nil {
			return nil, fmt.Errorf("action registry: action %q has no handler", a.Name)
		}
		m[a.Name] = a
	}
	return &Registry{actions: m}, nil
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// List returns the public view of every registered action, sorted by name.
func (r *Registry) List() []PublicView {
	out := make([]PublicView, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, PublicView{
			Name:        a.Name,
			Description: a.Description,
			MinScore:    a.MinScore,
			Parameters:  a.Parameters,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

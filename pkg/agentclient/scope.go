package agentclient

// scopeKind distinguishes the three things a caller can mean by "scope" in
// an acquire/SetScope call (spec.md §4.10): leave it alone, clear it to
// wildcard, or replace it with an explicit list. A bare nil slice can't
// carry this distinction on its own, since "nil" and "clear to wildcard"
// both want to mean "no restriction" — so ScopeUpdate makes the caller's
// intent explicit instead.
type scopeKind int

const (
	scopeUnchanged scopeKind = iota
	scopeWildcardKind
	scopeListKind
)

// ScopeUpdate expresses the caller's intent for a token's scope claim.
type ScopeUpdate struct {
	kind scopeKind
	list []string
}

// ScopeUnchanged leaves the client's current scope as-is.
var ScopeUnchanged = ScopeUpdate{kind: scopeUnchanged}

// ScopeWildcard clears the client's scope, authorizing every action.
var ScopeWildcard = ScopeUpdate{kind: scopeWildcardKind}

// ScopeList replaces the client's current scope with the given action names.
func ScopeList(names ...string) ScopeUpdate {
	list := make([]string, len(names))
	copy(list, names)
	return ScopeUpdate{kind: scopeListKind, list: list}
}

// resolve returns the effective scope given the current one: nil means
// wildcard throughout this package.
func (u ScopeUpdate) resolve(current []string) []string {
	switch u.kind {
	case scopeWildcardKind:
		return nil
	case scopeListKind:
		return u.list
	default:
		return current
	}
}

func scopeEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

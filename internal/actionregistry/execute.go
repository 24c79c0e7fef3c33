package actionregistry

import (
	"fmt"
	"strings"
)

// Result is the outcome of Execute: exactly one of Data or Error is set on
// return, mirroring the {success,data}/{success:false,error} envelope of
// spec.md §4.5 and §6.
type Result struct {
	Success  bool
	Data     any
	Error    string
	ScoreMet bool
}

// Execute resolves name against the registry, gates on minScore, validates
// params, and calls the handler. Every failure path (unknown action, score
// below minScore, validation failure, handler error or panic) produces a
// Result with Success=false and a human-readable Error string; ScoreMet is
// always reported regardless of outcome, since the behavior tracker needs it
// independent of whether the action ultimately succeeded (spec.md §4.6 step 7).
func (r *Registry) Execute(name string, params map[string]any, agentCtx AgentContext) (result Result) {
	action, ok := r.Get(name)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown action %q", name)}
	}

	scoreMet := agentCtx.Score >= action.MinScore
	if !scoreMet {
		return Result{
			Success:  false,
			Error:    fmt.Sprintf("Insufficient reputation score: %d < %d", agentCtx.Score, action.MinScore),
			ScoreMet: false,
		}
	}

	if violations := validateParams(action.Parameters, params); len(violations) > 0 {
		return Result{
			Success:  false,
			Error:    fmt.Sprintf("validation failed: %s", strings.Join(violations, "; ")),
			ScoreMet: true,
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Success: false, Error: fmt.Sprintf("%v", rec), ScoreMet: true}
		}
	}()

	data, err := action.Handler(agentCtx, params)
	if err != nil {
		return Result{Success: false, Error: err.Error(), ScoreMet: true}
	}
	return Result{Success: true, Data: data, ScoreMet: true}
}

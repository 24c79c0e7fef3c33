package behavior

import "time"

const detectionWindow = 60 * time.Second

// detect runs the six flag detectors against a session whose latest action
// has already been appended (spec.md §4.6 "Detector set"). scoreMet is the
// caller-supplied signal from the action registry's score gate: a false
// value unconditionally raises scope_violation, matching how the gateway
// pipeline also uses this detector for plain scope-claim violations (§4.7
// step 5) by passing scoreMet=false for those too.
func detect(s *Session, cfg Config, now time.Time, scoreMet bool) []string {
	var flags []string

	if countWithin(s, now, detectionWindow) > cfg.MaxActionsPerMinute {
		flags = append(flags, "rapid_fire")
	}

	failures := 0
	for _, a := range s.Actions {
		if !a.Success {
			failures++
		}
	}
	if failures >= cfg.MaxFailuresBeforeFlag {
		flags = append(flags, "high_failure_rate")
	}

	if distinctNamesWithin(s, now, detectionWindow) > cfg.MaxUniqueActionsPerMinute {
		flags = append(flags, "action_enumeration")
	}

	if maxFingerprintCountWithin(s, now, detectionWindow) > cfg.MaxRepeatedActionsPerMinute {
		flags = append(flags, "repeated_action")
	}

	if !scoreMet {
		flags = append(flags, "scope_violation")
	}

	if burstDetected(s) {
		flags = append(flags, "burst_detected")
	}

	return flags
}

func countWithin(s *Session, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	n := 0
	for _, a := range s.Actions {
		if a.At.After(cutoff) {
			n++
		}
	}
	return n
}

func distinctNamesWithin(s *Session, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	names := make(map[string]struct{})
	for _, a := range s.Actions {
		if a.At.After(cutoff) {
			names[a.ActionName] = struct{}{}
		}
	}
	return len(names)
}

func maxFingerprintCountWithin(s *Session, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	counts := make(map[string]int)
	max := 0
	for _, a := range s.Actions {
		if a.At.After(cutoff) {
			counts[a.Fingerprint]++
			if counts[a.Fingerprint] > max {
				max = counts[a.Fingerprint]
			}
		}
	}
	return max
}

// burstDetected requires at least 6 recorded actions; the gap between the
// 6th-from-last and 5th-from-last action must exceed 30s, and the span of
// the last 5 actions must be under 5s (spec.md §4.6 detector 6).
func burstDetected(s *Session) bool {
	n := len(s.Actions)
	if n < 6 {
		return false
	}
	sixthFromLast := s.Actions[n-6]
	fifthFromLast := s.Actions[n-5]
	last := s.Actions[n-1]

	gap := fifthFromLast.At.Sub(sixthFromLast.At)
	span := last.At.Sub(fifthFromLast.At)

	return gap > 30*time.Second && span < 5*time.Second
}

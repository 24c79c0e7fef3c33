package behavior

import "time"

// Config holds the behavior tracker's tunables (spec.md §4.6); every field
// has a stated default and every deployment may override it.
type Config struct {
	SessionTimeout              time.Duration
	MaxActionsPerMinute         int
	MaxFailuresBeforeFlag       int
	MaxUniqueActionsPerMinute   int
	MaxRepeatedActionsPerMinute int
	ViolationPenalty            int
	BlockThreshold              int
}

// DefaultConfig returns the spec-stated defaults.
func DefaultConfig() Config {
	return Config{
		SessionTimeout:              300 * time.Second,
		MaxActionsPerMinute:         30,
		MaxFailuresBeforeFlag:       5,
		MaxUniqueActionsPerMinute:   10,
		MaxRepeatedActionsPerMinute: 10,
		ViolationPenalty:            10,
		BlockThreshold:              20,
	}
}

package threatadapter

import (
	"context"
	"fmt"
	"strings"
)

// RuleBasedAnalyzer is the default Analyzer: a fixed set of pattern-matching
// rules over every string leaf of a params tree, mirroring the structure of
// internal/threat's RuleBasedScorer but recursing into nested
// objects/arrays instead of inspecting a fixed field set.
type RuleBasedAnalyzer struct {
	// ConfidenceThreshold is the minimum confidence a match must reach to be
	// reported as a Threat; matches below it are discarded as noise.
	ConfidenceThreshold float64
}

// NewRuleBasedAnalyzer returns a RuleBasedAnalyzer with a 0.5 default
// confidence threshold.
func NewRuleBasedAnalyzer() *RuleBasedAnalyzer {
	return &RuleBasedAnalyzer{ConfidenceThreshold: 0.5}
}

// promptInjectionPhrases are substrings in a string leaf that suggest an
// attempt to override the agent's or gateway's instructions.
var promptInjectionPhrases = map[string]float64{
	"ignore previous instructions": 0.9,
	"ignore all previous":          0.9,
	"disregard the above":          0.85,
	"you are now":                  0.6,
	"system prompt":                0.6,
	"reveal your instructions":     0.8,
	"act as if":                    0.5,
}

// maliciousURLSchemes and suspiciousURLMarkers flag string leaves that look
// like a URL pointing somewhere untrustworthy.
var maliciousURLSchemes = []string{"javascript:", "data:text/html", "file://"}
var suspiciousURLMarkers = []string{"bit.ly", "tinyurl.com", "@evil", "169.254.169.254"}

// Analyze implements Analyzer.
func (a *RuleBasedAnalyzer) Analyze(_ context.Context, _ string, params map[string]any) (Report, error) {
	return timed(func() Report {
		var threats []Threat
		walkLeaves("", params, func(field, value string) {
			threats = append(threats, a.scoreLeaf(field, value)...)
		})
		if threats == nil {
			threats = []Threat{}
		}
		return Report{Safe: len(threats) == 0, Threats: threats}
	}), nil
}

func (a *RuleBasedAnalyzer) scoreLeaf(field, value string) []Threat {
	var out []Threat
	lower := strings.ToLower(value)

	for phrase, confidence := range promptInjectionPhrases {
		if confidence >= a.ConfidenceThreshold && strings.Contains(lower, phrase) {
			out = append(out, Threat{
				Type:       ThreatPromptInjection,
				Field:      field,
				Confidence: confidence,
				Value:      value,
			})
		}
	}

	for _, scheme := range maliciousURLSchemes {
		if strings.Contains(lower, scheme) {
			out = append(out, Threat{Type: ThreatMaliciousURL, Field: field, Confidence: 0.9, Value: value})
		}
	}
	for _, marker := range suspiciousURLMarkers {
		if strings.Contains(lower, marker) {
			out = append(out, Threat{Type: ThreatMaliciousURL, Field: field, Confidence: 0.6, Value: value})
		}
	}

	return out
}

// walkLeaves recursively visits every string leaf of v (including nested
// maps and slices), calling visit(field, value) for each one. field is a
// dotted/bracketed path for diagnostics, e.g. "items[2].url".
func walkLeaves(prefix string, v any, visit func(field, value string)) {
	switch val := v.(type) {
	case string:
		if prefix == "" {
			prefix = "$"
		}
		visit(prefix, val)
	case map[string]any:
		for k, child := range val {
			walkLeaves(joinField(prefix, k), child, visit)
		}
	case []any:
		for i, child := range val {
			walkLeaves(fmt.Sprintf("%s[%d]", prefix, i), child, visit)
		}
	default:
		// numbers, bools, nil: not string leaves, nothing to inspect.
	}
}

func joinField(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

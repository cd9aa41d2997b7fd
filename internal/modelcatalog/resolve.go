// Package modelcatalog resolves a client-requested Anthropic model name to
// the concrete upstream model name configured for its tier (4.A).
package modelcatalog

import "strings"

// Mapping names the three concrete upstream models standing in for the
// opus/sonnet/haiku tiers, supplied by the configuration collaborator.
type Mapping struct {
	Opus   string
	Sonnet string
	Haiku  string
}

// Resolve maps requested to a concrete upstream model name. The substrings
// "opus", "sonnet", "haiku" in requested select the corresponding tier;
// anything else passes through unchanged. The caller is responsible for
// echoing requested, not the return value, back in the response.
func Resolve(requested string, mapping Mapping) string {
	lower := strings.ToLower(requested)
	switch {
	case strings.Contains(lower, "opus") && mapping.Opus != "":
		return mapping.Opus
	case strings.Contains(lower, "sonnet") && mapping.Sonnet != "":
		return mapping.Sonnet
	case strings.Contains(lower, "haiku") && mapping.Haiku != "":
		return mapping.Haiku
	default:
		return requested
	}
}

// Package tools implements the tool-calling subsystem (4.E): per-request
// tool_use id deduplication, native tool/tool_choice schema conversion, and
// the XML tool-calling prompt contract for backends without native
// function calling.
package tools

import (
	"crypto/rand"
	"math/big"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IDDedupContext deduplicates upstream tool_call ids within one request
// translation. Scope is a single MessageRequest; it must not be reused
// across requests.
type IDDedupContext struct {
	seenIDs    map[string]bool
	idMappings map[string][]string
	resultIdx  map[string]int
}

// NewIDDedupContext returns an empty dedup context.
func NewIDDedupContext() *IDDedupContext {
	return &IDDedupContext{
		seenIDs:    make(map[string]bool),
		idMappings: make(map[string][]string),
		resultIdx:  make(map[string]int),
	}
}

// Encounter records an upstream tool_use id seen on an assistant
// ToolUseBlock and returns the id that should actually be emitted upstream:
// the original id on first encounter, or a freshly generated id of matching
// shape on every subsequent encounter of the same original id.
func (c *IDDedupContext) Encounter(originalID string) string {
	if !c.seenIDs[originalID] {
		c.seenIDs[originalID] = true
		c.idMappings[originalID] = []string{originalID}
		return originalID
	}
	fresh := generateLikeID(originalID)
	c.idMappings[originalID] = append(c.idMappings[originalID], fresh)
	return fresh
}

// Consume resolves a ToolResultBlock's tool_use_id reference to the id that
// was actually emitted for the N-th ToolUseBlock carrying that original id,
// consuming mappings in the order they were produced by Encounter.
func (c *IDDedupContext) Consume(originalID string) string {
	mapped, ok := c.idMappings[originalID]
	if !ok {
		return originalID
	}
	idx := c.resultIdx[originalID]
	if idx >= len(mapped) {
		return originalID
	}
	c.resultIdx[originalID] = idx + 1
	return mapped[idx]
}

// generateLikeID produces a fresh random id matching the length of
// original: prefix-preserving (keeps the first 8 characters) when the
// original is longer than 11 characters, otherwise fully regenerated at
// the same length.
func generateLikeID(original string) string {
	n := len(original)
	if n > 11 {
		prefix := original[:8]
		return prefix + randomAlnum(n-8)
	}
	return randomAlnum(n)
}

func randomAlnum(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is effectively unrecoverable; fall back
			// to a fixed character rather than panicking mid-translation.
			out[i] = 'x'
			continue
		}
		out[i] = idAlphabet[idx.Int64()]
	}
	return string(out)
}

// GenerateID produces an Anthropic-shaped opaque id: prefix followed by 24
// random alphanumeric characters, used for the per-request id the handler
// assigns (4.H).
func GenerateID(prefix string) string {
	return prefix + randomAlnum(24)
}

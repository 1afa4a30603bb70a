// Package channels builds the indexed, category-grouped selection lists the
// operator picks channels and threads from.
package channels

import (
	"path/filepath"
	"strings"

	"github.com/chrisedwards/discord-archive/internal/discord"
)

// Filter narrows a chat list by name.
type Filter struct {
	query string
}

// NewFilter creates a Filter for the given operator input. Surrounding
// whitespace is ignored; an empty query matches everything.
func NewFilter(query string) *Filter {
	return &Filter{query: strings.TrimSpace(query)}
}

// Apply returns the chats whose name matches, preserving order.
func (f *Filter) Apply(chats []discord.Chat) []discord.Chat {
	if f.query == "" {
		return chats
	}
	var out []discord.Chat
	for _, c := range chats {
		if f.Match(c.ChatName()) {
			out = append(out, c)
		}
	}
	return out
}

// GlobPrefix marks a query as a glob pattern matched against the whole name.
const GlobPrefix = "glob:"

// Match reports whether name matches the query: a case-insensitive
// substring test, or MatchPattern for queries starting with GlobPrefix.
func (f *Filter) Match(name string) bool {
	if f.query == "" {
		return true
	}
	if pattern, ok := strings.CutPrefix(f.query, GlobPrefix); ok {
		return MatchPattern(strings.TrimSpace(pattern), name)
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(f.query))
}

// MatchPattern matches a value against a glob pattern.
// Supports glob patterns (* matches any sequence, ? matches single character).
// Matching is case-insensitive. Returns false for invalid patterns.
func MatchPattern(pattern, value string) bool {
	matched, err := filepath.Match(pattern, value)
	if err != nil {
		return false
	}
	if matched {
		return true
	}
	matched, _ = filepath.Match(strings.ToLower(pattern), strings.ToLower(value))
	return matched
}

package export

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/chrisedwards/discord-archive/internal/discord"
)

// MaxNameLength is the maximum length, in characters, of a sanitized name.
const MaxNameLength = 200

var reserved = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename makes name safe to use as part of a file name on any
// common filesystem.
func SanitizeFilename(name string) string {
	s := reserved.ReplaceAllString(name, "_")
	s = strings.TrimSpace(s)
	s = collapseRuns(s)
	if r := []rune(s); len(r) > MaxNameLength {
		s = strings.TrimRightFunc(string(r[:MaxNameLength]), unicode.IsSpace)
	}
	return s
}

// BaseName returns the file name, without extension, of a chat's export.
func BaseName(c discord.Chat) string {
	return "discord_export_" + SanitizeFilename(c.Label()) + "_" + c.ChatID()
}

// collapseRuns replaces each run of underscores and Unicode white space with
// a single underscore.
func collapseRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r == '_' || unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte('_')
			}
			inRun = true
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// Package discord provides the Discord platform integration: chat entities,
// member resolution and the bot session client.
package discord

import (
	"math"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Guild is a Discord server.
type Guild struct {
	ID   string
	Name string
}

// Category groups and orders channels within a guild.
type Category struct {
	ID       string
	Name     string
	Position int
}

// Chat is a channel-like conversation that can be exported. It is one of
// *TextChannel, *Thread or *DMChannel.
type Chat interface {
	// ChatID returns the platform-assigned channel identifier.
	ChatID() string
	// ChatName returns the bare channel name.
	ChatName() string
	// Label returns the human-readable form used in file names and messages.
	Label() string
	// Guild returns the owning guild ID, or "" for direct messages.
	Guild() string

	isChat()
}

// TextChannel is an ordinary guild text channel.
type TextChannel struct {
	ID       string
	GuildID  string
	Name     string
	Category *Category // nil when uncategorised
	Position int
}

func (c *TextChannel) ChatID() string   { return c.ID }
func (c *TextChannel) ChatName() string { return c.Name }
func (c *TextChannel) Label() string    { return "#" + c.Name }
func (c *TextChannel) Guild() string    { return c.GuildID }
func (*TextChannel) isChat()            {}

// Thread is a conversation nested under a text channel. It has its own
// membership but no position of its own. Access is granted on the parent
// channel; private threads are further limited to their members.
type Thread struct {
	ID       string
	GuildID  string
	Name     string
	ParentID string
	Parent   *TextChannel // nil when the parent is not an exportable text channel
	Private  bool
}

func (t *Thread) ChatID() string   { return t.ID }
func (t *Thread) ChatName() string { return t.Name }
func (t *Thread) Label() string    { return "#" + t.Name }
func (t *Thread) Guild() string    { return t.GuildID }
func (*Thread) isChat()            {}

// DMChannel is a direct-message conversation between the bot and one user.
type DMChannel struct {
	ID        string
	Recipient Member
}

func (d *DMChannel) ChatID() string   { return d.ID }
func (d *DMChannel) ChatName() string { return d.Recipient.Username }
func (d *DMChannel) Label() string    { return "DM with " + d.Recipient.DisplayName() }
func (d *DMChannel) Guild() string    { return "" }
func (*DMChannel) isChat()            {}

// CategoryOf returns the category a chat is displayed under. Threads inherit
// the category of their parent channel.
func CategoryOf(c Chat) *Category {
	switch v := c.(type) {
	case *TextChannel:
		return v.Category
	case *Thread:
		if v.Parent != nil {
			return v.Parent.Category
		}
	}
	return nil
}

// SortKey returns the ordering key of a chat: category position, then the
// chat's own position. Missing positions sort last.
func SortKey(c Chat) (category, position float64) {
	category, position = math.Inf(1), math.Inf(1)
	if cat := CategoryOf(c); cat != nil {
		category = float64(cat.Position)
	}
	if tc, ok := c.(*TextChannel); ok {
		position = float64(tc.Position)
	}
	return category, position
}

// KindName returns "thread", "channel" or "direct message".
func KindName(c Chat) string {
	switch c.(type) {
	case *Thread:
		return "thread"
	case *DMChannel:
		return "direct message"
	default:
		return "channel"
	}
}

// Member is a user as seen from one guild (or from a DM when GuildID is empty).
type Member struct {
	ID         string
	GuildID    string
	Username   string // primary handle
	Nick       string // guild nickname
	GlobalName string
	Bot        bool
}

// DisplayName returns the guild nickname, the global display name or the
// handle, whichever is set first.
func (m Member) DisplayName() string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.GlobalName != "":
		return m.GlobalName
	default:
		return m.Username
	}
}

// Mention returns the chat markup that pings the member.
func (m Member) Mention() string {
	return "<@" + m.ID + ">"
}

// Matches reports whether query (already lower-cased) is a substring of the
// handle, the display name or the global display name.
func (m Member) Matches(query string) bool {
	for _, s := range []string{m.Username, m.DisplayName(), m.GlobalName} {
		if s != "" && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// Permission is a capability the bot or a member may hold on a chat.
type Permission int64

// Capabilities checked by the workflows.
const (
	PermRead           = Permission(discordgo.PermissionViewChannel)
	PermSend           = Permission(discordgo.PermissionSendMessages)
	PermAttach         = Permission(discordgo.PermissionAttachFiles)
	PermManageChannels = Permission(discordgo.PermissionManageChannels)
	PermManageRoles    = Permission(discordgo.PermissionManageRoles) // "manage permissions" on a channel
	PermManageThreads  = Permission(discordgo.PermissionManageThreads)
)

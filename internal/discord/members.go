package discord

import (
	"strings"
	"sync"
)

// MemberDirectory holds the resolved member lists of every guild the bot is
// in. A guild is "resolved" once its full member list has been stored;
// unresolved guilds trigger a bulk fetch before any search.
// Thread-safe for concurrent access.
type MemberDirectory struct {
	mu       sync.RWMutex
	members  map[string][]Member       // guild ID -> members in fetch order
	index    map[string]map[string]int // guild ID -> user ID -> position in members
	resolved map[string]bool
}

// NewMemberDirectory creates an empty directory.
func NewMemberDirectory() *MemberDirectory {
	return &MemberDirectory{
		members:  make(map[string][]Member),
		index:    make(map[string]map[string]int),
		resolved: make(map[string]bool),
	}
}

// Set replaces the member list of a guild and marks it resolved.
func (d *MemberDirectory) Set(guildID string, members []Member) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := make([]Member, 0, len(members))
	idx := make(map[string]int, len(members))
	for _, m := range members {
		m.GuildID = guildID
		if i, ok := idx[m.ID]; ok {
			list[i] = m
			continue
		}
		idx[m.ID] = len(list)
		list = append(list, m)
	}
	d.members[guildID] = list
	d.index[guildID] = idx
	d.resolved[guildID] = true
}

// Resolved reports whether the guild's member list has been fetched.
func (d *MemberDirectory) Resolved(guildID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolved[guildID]
}

// Member returns the member record of userID in the guild.
func (d *MemberDirectory) Member(guildID, userID string) (Member, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[guildID][userID]
	if !ok {
		return Member{}, false
	}
	return d.members[guildID][i], true
}

// GuildMembers returns a copy of the guild's member list in fetch order.
func (d *MemberDirectory) GuildMembers(guildID string) []Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Member, len(d.members[guildID]))
	copy(out, d.members[guildID])
	return out
}

// Search returns every member whose handle, display name or global display
// name contains query, case-insensitively. Results are deduplicated by user
// ID across guilds; guilds are visited in the order given.
func (d *MemberDirectory) Search(guildIDs []string, query string) []Member {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]bool)
	var found []Member
	for _, gid := range guildIDs {
		for _, m := range d.members[gid] {
			if seen[m.ID] || !m.Matches(query) {
				continue
			}
			seen[m.ID] = true
			found = append(found, m)
		}
	}
	return found
}

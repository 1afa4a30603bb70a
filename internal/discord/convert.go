package discord

import (
	"github.com/bwmarrin/discordgo"
)

// chatsFromChannels converts the raw guild channel list and active threads
// into chat entities. Categories, voice channels and anything else that
// cannot hold an exportable text history are dropped. Threads whose parent is
// not among the text channels keep a nil Parent.
func chatsFromChannels(guildID string, channels, threads []*discordgo.Channel) []Chat {
	categories := make(map[string]*Category)
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories[ch.ID] = &Category{ID: ch.ID, Name: ch.Name, Position: ch.Position}
		}
	}

	var chats []Chat
	parents := make(map[string]*TextChannel)
	for _, ch := range channels {
		if !isTextChannel(ch.Type) {
			continue
		}
		tc := &TextChannel{
			ID:       ch.ID,
			GuildID:  guildID,
			Name:     ch.Name,
			Category: categories[ch.ParentID],
			Position: ch.Position,
		}
		parents[tc.ID] = tc
		chats = append(chats, tc)
	}
	for _, th := range threads {
		if !isThread(th.Type) {
			continue
		}
		chats = append(chats, &Thread{
			ID:       th.ID,
			GuildID:  guildID,
			Name:     th.Name,
			ParentID: th.ParentID,
			Parent:   parents[th.ParentID],
			Private:  th.Type == discordgo.ChannelTypeGuildPrivateThread,
		})
	}
	return chats
}

func isTextChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

func isThread(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return true
	}
	return false
}

// memberFromDiscord converts a guild member.
func memberFromDiscord(guildID string, m *discordgo.Member) Member {
	out := Member{GuildID: guildID, Nick: m.Nick}
	if m.User != nil {
		out.ID = m.User.ID
		out.Username = m.User.Username
		out.GlobalName = m.User.GlobalName
		out.Bot = m.User.Bot
	}
	return out
}

// memberFromUser converts a bare user, as found on DM channels.
func memberFromUser(u *discordgo.User) Member {
	return Member{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Bot:        u.Bot,
	}
}

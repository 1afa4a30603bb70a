package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/chrisedwards/discord-archive/internal/channels"
	"github.com/chrisedwards/discord-archive/internal/discord"
	"github.com/chrisedwards/discord-archive/internal/export"
)

// Distribute runs the post-archive steps for freshly generated artifacts:
// upload to the archive channel, DM to channel members and deletion of the
// source chat. guild is the server the target was chosen from, nil for
// direct messages.
func (w *Workflow) Distribute(ctx context.Context, artifacts []*export.Artifact, guild *discord.Guild, target discord.Chat) error {
	if err := w.upload(ctx, artifacts, guild); err != nil {
		return err
	}
	if err := w.dmMembers(ctx, artifacts, guild, target); err != nil {
		return err
	}
	return w.offerDelete(ctx, target)
}

func (w *Workflow) upload(ctx context.Context, artifacts []*export.Artifact, current *discord.Guild) error {
	w.con.Rule("PDF Upload")
	if len(artifacts) == 0 {
		w.con.Warn("No PDFs were generated, nothing to upload.")
		return nil
	}
	dest, guild := w.resolveUploadChannel(ctx, current)
	if dest == nil {
		w.con.Warn("No archive channel found (looked for #%s).", w.set.ArchiveChannelName)
		return nil
	}
	bot := w.p.BotID()
	if !w.p.Can(ctx, dest, bot, discord.PermSend|discord.PermAttach) {
		w.con.Warn("The bot cannot send files to %s in server %s.", dest.Label(), guild.Name)
		return nil
	}

	var total int64
	for _, a := range artifacts {
		total += a.Size
	}
	ok, err := w.ask.Confirm(fmt.Sprintf("Upload the generated PDF(s) (%d, %s) to %s in server %s?",
		len(artifacts), humanize.Bytes(uint64(total)), dest.Label(), guild.Name), true)
	if err != nil || !ok {
		return err
	}

	pb := w.con.Progress(len(artifacts), "Uploading PDFs")
	sent := 0
	for _, a := range artifacts {
		if err := w.pace(ctx); err != nil {
			return err
		}
		if err := w.p.SendFile(ctx, dest.ID, a.Path); err != nil {
			w.report(err, "Failed to upload %s", filepath.Base(a.Path))
		} else {
			sent++
		}
		_ = pb.Add(1)
	}
	w.con.Success("Uploaded %d of %d PDF(s) to %s.", sent, len(artifacts), dest.Label())
	return nil
}

// resolveUploadChannel finds the upload destination: the configured channel
// ID, else the archive channel of the configured server, else the archive
// channel of the current server.
func (w *Workflow) resolveUploadChannel(ctx context.Context, current *discord.Guild) (*discord.TextChannel, *discord.Guild) {
	var candidates []*discord.Guild
	if id := w.set.UploadServerID; id != "" {
		if !isSnowflake(id) {
			w.con.Warn("Invalid UPLOAD_SERVER_ID %q. Defaulting to the current server.", id)
		} else if g, err := w.findGuild(ctx, id); err != nil {
			w.report(err, "Failed to list servers")
		} else if g == nil {
			w.con.Warn("Bot is not in server with ID %s. Defaulting to the current server.", id)
		} else {
			candidates = append(candidates, g)
		}
	}
	if current != nil && (len(candidates) == 0 || candidates[0].ID != current.ID) {
		candidates = append(candidates, current)
	}

	chats := make([][]discord.Chat, len(candidates))
	for i, g := range candidates {
		cs, err := w.p.Chats(ctx, g.ID)
		if err != nil {
			w.report(err, "Failed to list channels of %s", g.Name)
			continue
		}
		chats[i] = cs
	}

	if id := w.set.UploadChannelID; id != "" {
		if !isSnowflake(id) {
			w.con.Warn("Invalid UPLOAD_CHANNEL_ID format %q.", id)
		} else {
			for i, g := range candidates {
				if tc := findText(chats[i], func(tc *discord.TextChannel) bool { return tc.ID == id }); tc != nil {
					return tc, g
				}
			}
			w.con.Warn("Upload channel %s not found, looking for #%s instead.", id, w.set.ArchiveChannelName)
		}
	}
	for i, g := range candidates {
		if tc := findText(chats[i], func(tc *discord.TextChannel) bool { return tc.Name == w.set.ArchiveChannelName }); tc != nil {
			return tc, g
		}
	}
	return nil, nil
}

func (w *Workflow) findGuild(ctx context.Context, id string) (*discord.Guild, error) {
	guilds, err := w.p.Guilds(ctx)
	if err != nil {
		return nil, err
	}
	for i := range guilds {
		if guilds[i].ID == id {
			return &guilds[i], nil
		}
	}
	return nil, nil
}

func findText(chats []discord.Chat, match func(*discord.TextChannel) bool) *discord.TextChannel {
	for _, c := range chats {
		if tc, ok := c.(*discord.TextChannel); ok && match(tc) {
			return tc
		}
	}
	return nil
}

func isSnowflake(id string) bool {
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

func (w *Workflow) dmMembers(ctx context.Context, artifacts []*export.Artifact, guild *discord.Guild, target discord.Chat) error {
	w.con.Rule("Optional DM to Channel Members")
	if len(artifacts) == 0 {
		return nil
	}
	ok, err := w.ask.Confirm("DM the PDF(s) to other channel members?", false)
	if err != nil || !ok {
		return err
	}

	members, err := w.chatMembers(ctx, target)
	if err != nil {
		w.report(err, "Failed to resolve members of %s", target.Label())
		return nil
	}
	var humans []discord.Member
	for _, m := range members {
		if !m.Bot {
			humans = append(humans, m)
		}
	}
	if len(humans) == 0 {
		w.con.Warn("No non-bot members found in this channel to DM.")
		return nil
	}

	lines := make([]string, len(humans))
	for i, m := range humans {
		lines[i] = fmt.Sprintf("%d. %s (@%s) (ID: %s)", i+1, m.DisplayName(), m.Username, m.ID)
	}
	w.con.Panel("Members in Channel", strings.Join(lines, "\n"))

	var selected []discord.Member
	for {
		in, err := w.ask.Input("Enter comma-separated numbers of members to DM (or leave blank to skip)")
		if err != nil {
			return err
		}
		if strings.TrimSpace(in) == "" {
			w.con.Warn("Skipping DM to channel members.")
			return nil
		}
		for _, i := range channels.ParseIndexList(in, len(humans)) {
			selected = append(selected, humans[i-1])
		}
		if len(selected) > 0 {
			break
		}
		w.con.Warn("None of the entered numbers match members in this channel. Please try again.")
	}

	notice := ArchiveNotice(guild, target)
	pb := w.con.Progress(len(selected)*len(artifacts), "Sending DMs")
	for _, m := range selected {
		if err := w.sendArchive(ctx, m, artifacts, notice); err != nil {
			return err
		}
		_ = pb.Add(len(artifacts))
	}
	return nil
}

// sendArchive DMs every artifact and then the notice to one member. Send
// failures are reported and skipped.
func (w *Workflow) sendArchive(ctx context.Context, m discord.Member, artifacts []*export.Artifact, notice string) error {
	dm, err := w.p.OpenDM(ctx, m)
	if err != nil {
		w.report(err, "Failed to open a DM with %s", m.DisplayName())
		return nil
	}
	sent := 0
	for _, a := range artifacts {
		if err := w.pace(ctx); err != nil {
			return err
		}
		name := filepath.Base(a.Path)
		if err := w.p.SendFile(ctx, dm.ID, a.Path); err != nil {
			w.report(err, "Failed to send DM to %s for %s", m.DisplayName(), name)
			continue
		}
		sent++
		w.con.Success("DM sent to %s for %s", m.DisplayName(), name)
	}
	if sent == 0 || notice == "" {
		return nil
	}
	if err := w.pace(ctx); err != nil {
		return err
	}
	if err := w.p.SendMessage(ctx, dm.ID, notice); err != nil {
		w.report(err, "Failed to send the archive note to %s", m.DisplayName())
	}
	return nil
}

// chatMembers returns the guild members who can read a chat. Direct messages
// have no channel membership.
func (w *Workflow) chatMembers(ctx context.Context, chat discord.Chat) ([]discord.Member, error) {
	gid := chat.Guild()
	if gid == "" {
		return nil, nil
	}
	dir, err := w.members(ctx)
	if err != nil {
		return nil, err
	}
	var out []discord.Member
	for _, m := range dir.GuildMembers(gid) {
		if w.p.Can(ctx, chat, m.ID, discord.PermRead) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ArchiveNotice is the message sent next to a DM'd archive, identifying
// where it came from.
func ArchiveNotice(guild *discord.Guild, target discord.Chat) string {
	var b strings.Builder
	b.WriteString("This is an archived copy of the Discord channel: ")
	if guild != nil {
		fmt.Fprintf(&b, "**Server:** %s, ", guild.Name)
	}
	switch t := target.(type) {
	case *discord.Thread:
		if t.Parent != nil {
			fmt.Fprintf(&b, "**Channel:** %s, ", t.Parent.Label())
		}
		fmt.Fprintf(&b, "**Thread:** %s", t.Name)
	default:
		fmt.Fprintf(&b, "**Channel:** %s", target.Label())
	}
	b.WriteString(".\n\nFor your records.")
	return b.String()
}

func (w *Workflow) offerDelete(ctx context.Context, target discord.Chat) error {
	w.con.Rule("Optional Channel Deletion")
	if _, ok := target.(*discord.DMChannel); ok {
		return nil
	}
	if !w.p.Can(ctx, target, w.p.BotID(), discord.PermManageChannels) {
		w.con.Print("The bot cannot delete %s.", target.Label())
		return nil
	}
	ok, err := w.ask.Confirm(fmt.Sprintf("Delete the %s '%s'?", discord.KindName(target), target.ChatName()), false)
	if err != nil || !ok {
		return err
	}
	if err := w.p.Delete(ctx, target.ChatID()); err != nil {
		w.report(err, "Failed to delete %s", target.Label())
		return nil
	}
	w.con.Success("Deleted %s.", target.Label())
	return nil
}

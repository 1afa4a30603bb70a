package workflow

import (
	"context"
	"fmt"

	"github.com/chrisedwards/discord-archive/internal/channels"
	"github.com/chrisedwards/discord-archive/internal/discord"
	"github.com/chrisedwards/discord-archive/internal/export"
)

// Browse lets the operator pick a server and one of its channels or threads,
// archives it and runs the distribution flow. Errors are returned only when
// the session must end.
func (w *Workflow) Browse(ctx context.Context) error {
	w.con.Rule("Archive by Server/Channel Selection")

	guild, st, err := w.chooseGuild(ctx)
	if err != nil || st != Selected {
		return err
	}

	w.con.Rule("Choose a Channel or Thread to Export")
	all, err := w.readable(ctx, guild.ID, w.p.BotID())
	if err != nil {
		w.report(err, "Failed to list channels of %s", guild.Name)
		return nil
	}
	channels.Sort(all)
	if len(all) == 0 {
		w.con.Error("No readable text channels or threads found in '%s'.", guild.Name)
		return nil
	}

	target, st, err := w.chooseChat(guild, all)
	if err != nil || st != Selected {
		return err
	}

	artifacts := w.archiveAll(ctx, exportSet(target, all))
	return w.Distribute(ctx, artifacts, guild, target)
}

func (w *Workflow) chooseGuild(ctx context.Context) (*discord.Guild, Status, error) {
	guilds, err := w.p.Guilds(ctx)
	if err != nil {
		w.report(err, "Failed to list servers")
		return nil, Empty, nil
	}
	if len(guilds) == 0 {
		w.con.Error("The bot is not in any Discord servers.")
		return nil, Empty, nil
	}
	items := make([]string, len(guilds))
	for i, g := range guilds {
		items[i] = fmt.Sprintf("%s (ID: %s)", g.Name, g.ID)
	}
	w.con.Numbered("Available Discord Servers", items)

	i, st, err := w.chooseIndex("Enter the number of the server to export from", len(guilds))
	if err != nil || st != Selected {
		return nil, st, err
	}
	return &guilds[i-1], Selected, nil
}

// chooseChat filters the sorted chats, displays them grouped and returns the
// chosen one.
func (w *Workflow) chooseChat(guild *discord.Guild, all []discord.Chat) (discord.Chat, Status, error) {
	var filtered []discord.Chat
	for {
		in, err := w.ask.Input("Enter text to filter channels (or leave blank for all, 'q' to go back)")
		if err != nil {
			return nil, Cancelled, err
		}
		if isCancel(in) {
			return nil, Cancelled, nil
		}
		filtered = channels.NewFilter(in).Apply(all)
		if len(filtered) > 0 {
			break
		}
		w.con.Warn("No channels found matching your filter. Please try again.")
	}

	list := channels.NewList()
	list.AddSection("Available Channels & Threads in "+guild.Name, filtered)
	w.con.RenderList(list)

	return w.chooseFromList(list, "Enter the number of the channel/thread to export")
}

// exportSet returns the chats archived for a selection: the chat itself and,
// for a text channel, every readable thread under it.
func exportSet(target discord.Chat, readable []discord.Chat) []discord.Chat {
	out := []discord.Chat{target}
	tc, ok := target.(*discord.TextChannel)
	if !ok {
		return out
	}
	for _, c := range readable {
		if th, ok := c.(*discord.Thread); ok && th.Parent != nil && th.Parent.ID == tc.ID {
			out = append(out, th)
		}
	}
	return out
}

// archiveAll archives chats one at a time. Failures are reported and left
// out of the result.
func (w *Workflow) archiveAll(ctx context.Context, chats []discord.Chat) []*export.Artifact {
	var out []*export.Artifact
	for _, c := range chats {
		if art := w.archive(ctx, c); art != nil {
			out = append(out, art)
		}
	}
	return out
}

func (w *Workflow) archive(ctx context.Context, c discord.Chat) *export.Artifact {
	w.con.Info("Archiving %s...", c.Label())
	art, err := w.arch.Archive(ctx, c)
	if err != nil {
		w.report(err, "Failed to archive %s", c.Label())
		return nil
	}
	w.con.Success("Saved %s (%s)", art.Path, art.Summary())
	return art
}

// chooseIndex prompts until the input is a valid index in 1..n or the cancel
// token.
func (w *Workflow) chooseIndex(title string, n int) (int, Status, error) {
	for {
		in, err := w.ask.Input(title)
		if err != nil {
			return 0, Cancelled, err
		}
		if isCancel(in) {
			return 0, Cancelled, nil
		}
		i, err := channels.ParseIndex(in, n)
		if err == nil {
			return i, Selected, nil
		}
		w.con.Warn("Invalid choice: enter a number between 1 and %d.", n)
	}
}

func (w *Workflow) chooseFromList(list *channels.List, title string) (discord.Chat, Status, error) {
	i, st, err := w.chooseIndex(title, list.Len())
	if err != nil || st != Selected {
		return nil, st, err
	}
	c, _ := list.At(i)
	return c, Selected, nil
}

// report shows a failure to the operator and logs it.
func (w *Workflow) report(err error, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	w.con.Error("%s: %v", msg, err)
	w.lg.Warn(msg, "error", err)
}

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/chrisedwards/discord-archive/internal/channels"
	"github.com/chrisedwards/discord-archive/internal/discord"
)

// Search finds a member by name, lists the chats the member shares with the
// bot, and applies an action plan to the chosen one.
func (w *Workflow) Search(ctx context.Context) error {
	w.con.Rule("Archive by User Search")

	user, st, err := w.findMember(ctx)
	if err != nil || st != Selected {
		return err
	}

	w.con.Rule("Finding mutual channels for " + user.DisplayName())
	list, guilds := w.mutualChats(ctx, user)
	if list.Len() == 0 {
		w.con.Error("No mutual readable channels found with %s.", user.DisplayName())
		return nil
	}
	w.con.RenderList(list)

	target, st, err := w.chooseFromList(list, "Enter channel number")
	if err != nil || st != Selected {
		return err
	}

	// the guild-scoped member carries the nickname and guild ID
	member := user
	var guild *discord.Guild
	if gid := target.Guild(); gid != "" {
		guild = guilds[gid]
		if dir, err := w.members(ctx); err == nil {
			if m, ok := dir.Member(gid, user.ID); ok {
				member = m
			}
		}
		w.showMembers(ctx, target)
	}

	plan, err := w.choosePlan()
	if err != nil {
		return err
	}
	outcome, err := w.Dispatch(ctx, plan, target, member, guild)
	w.lg.Debug("dispatch finished", "plan", int(plan), "target", target.ChatID(), "outcome", outcome.String())
	return err
}

// findMember prompts for a name fragment until exactly one member is chosen.
func (w *Workflow) findMember(ctx context.Context) (discord.Member, Status, error) {
	for {
		in, err := w.ask.Input("Enter username/handle to search for (or 'q' to go back)")
		if err != nil {
			return discord.Member{}, Cancelled, err
		}
		if isCancel(in) {
			return discord.Member{}, Cancelled, nil
		}
		query := strings.ToLower(strings.TrimSpace(in))
		if query == "" {
			continue
		}

		found, err := w.searchMembers(ctx, query)
		if err != nil {
			w.report(err, "Failed to fetch server members")
			return discord.Member{}, Empty, nil
		}
		switch len(found) {
		case 0:
			w.con.Warn("No users found matching '%s'.", query)
			continue
		case 1:
			return found[0], Selected, nil
		}

		items := make([]string, len(found))
		for i, m := range found {
			items[i] = fmt.Sprintf("%s (@%s)", m.DisplayName(), m.Username)
		}
		w.con.Numbered("Select a User", items)
		i, st, err := w.chooseIndex("Enter the number of the user", len(found))
		if err != nil {
			return discord.Member{}, st, err
		}
		if st == Selected {
			return found[i-1], Selected, nil
		}
		// cancelled the candidate list, search again
	}
}

func (w *Workflow) searchMembers(ctx context.Context, query string) ([]discord.Member, error) {
	guilds, err := w.p.Guilds(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(guilds))
	for i, g := range guilds {
		ids[i] = g.ID
	}
	dir, err := w.members(ctx)
	if err != nil {
		return nil, err
	}
	return dir.Search(ids, query), nil
}

// members resolves the member lists of every server. Only the first call
// fetches from Discord.
func (w *Workflow) members(ctx context.Context) (*discord.MemberDirectory, error) {
	if !w.membersLoaded {
		w.con.Info("Fetching server members, this may take a while...")
	}
	dir, err := w.p.ResolveMembers(ctx)
	if err != nil {
		return nil, err
	}
	w.membersLoaded = true
	return dir, nil
}

// mutualChats builds the merged selection list for a member: a DM first if
// one can be opened, then per server every chat both the member and the bot
// can read.
func (w *Workflow) mutualChats(ctx context.Context, user discord.Member) (*channels.List, map[string]*discord.Guild) {
	list := channels.NewList()
	byID := make(map[string]*discord.Guild)

	if dm, err := w.p.OpenDM(ctx, user); err != nil {
		w.lg.Debug("cannot open DM", "user", user.ID, "error", err)
	} else {
		list.AddDirect(dm)
	}

	guilds, err := w.p.Guilds(ctx)
	if err != nil {
		w.report(err, "Failed to list servers")
		return list, byID
	}
	dir, err := w.members(ctx)
	if err != nil {
		w.report(err, "Failed to fetch server members")
		return list, byID
	}
	bot := w.p.BotID()
	for i := range guilds {
		g := &guilds[i]
		byID[g.ID] = g
		if _, ok := dir.Member(g.ID, user.ID); !ok {
			continue
		}
		mutual, err := w.readable(ctx, g.ID, user.ID, bot)
		if err != nil {
			w.report(err, "Failed to list channels of %s", g.Name)
			continue
		}
		list.AddSection("Server: "+g.Name, mutual)
	}
	return list, byID
}

func (w *Workflow) showMembers(ctx context.Context, target discord.Chat) {
	members, err := w.chatMembers(ctx, target)
	if err != nil {
		w.lg.Debug("listing members failed", "chat", target.ChatID(), "error", err)
		return
	}
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = "- " + m.DisplayName()
	}
	w.con.Panel("Members in "+target.Label(), strings.Join(lines, "\n"))
}

func (w *Workflow) choosePlan() (Plan, error) {
	lines := make([]string, 0, len(Plans()))
	for _, p := range Plans() {
		line := fmt.Sprintf("%d. %s", int(p), p)
		if p == DefaultPlan {
			line += " (default)"
		}
		lines = append(lines, line)
	}
	w.con.Panel("Select Action", strings.Join(lines, "\n"))
	for {
		in, err := w.ask.Input(fmt.Sprintf("Select action [%d]", int(DefaultPlan)))
		if err != nil {
			return 0, err
		}
		p, err := ParsePlan(in)
		if err == nil {
			return p, nil
		}
		w.con.Warn("Invalid choice: enter a number between 1 and %d.", len(Plans()))
	}
}

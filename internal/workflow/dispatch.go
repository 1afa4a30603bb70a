package workflow

import (
	"context"
	"path/filepath"

	"github.com/chrisedwards/discord-archive/internal/discord"
	"github.com/chrisedwards/discord-archive/internal/export"
)

// RemovalNotice is posted into a chat after member has been removed from it.
func RemovalNotice(member discord.Member) string {
	return ":wave: " + member.Mention() + " has been removed from this channel. An archive of the conversation has been processed."
}

// Dispatch applies plan to member in target. Stages run in order: archive,
// send to member, remove, notify, upload. A failed archive aborts the plan;
// any other failure is reported and only stops the stages that depend on it.
// The error is non-nil only when the session must end.
func (w *Workflow) Dispatch(ctx context.Context, plan Plan, target discord.Chat, member discord.Member, guild *discord.Guild) (Outcome, error) {
	w.con.Rule("Post-Archive Actions")
	if plan == PlanNone {
		w.con.Warn("No action taken.")
		return NoAction, nil
	}
	_, isDM := target.(*discord.DMChannel)
	if isDM && plan == PlanRemoveOnly {
		w.con.Warn("Members cannot be removed from a direct message. No action taken.")
		return NoAction, nil
	}

	var art *export.Artifact
	if plan.Archives() {
		if art = w.archive(ctx, target); art == nil {
			w.con.Error("Archiving failed. Aborting further actions.")
			return Aborted, nil
		}
	}

	if plan.SendsToMember() {
		w.sendToMember(ctx, target, member, art)
	}

	removed := false
	if plan.Removes() {
		if isDM {
			w.con.Print("Removal does not apply to direct messages, skipped.")
		} else {
			removed = w.remove(ctx, target, member)
		}
	}

	if plan.Notifies() && removed {
		if err := w.p.SendMessage(ctx, target.ChatID(), RemovalNotice(member)); err != nil {
			w.report(err, "Failed to post the removal notice in %s", target.Label())
		}
	}

	if plan.Uploads() {
		if err := w.Distribute(ctx, []*export.Artifact{art}, guild, target); err != nil {
			return Completed, err
		}
	}
	return Completed, nil
}

// sendToMember sends the artifact privately. A DM target is reused as the
// destination when it is the conversation with member.
func (w *Workflow) sendToMember(ctx context.Context, target discord.Chat, member discord.Member, art *export.Artifact) {
	w.con.Info("Sending PDF to %s...", member.DisplayName())
	dm, ok := target.(*discord.DMChannel)
	if !ok || dm.Recipient.ID != member.ID {
		var err error
		if dm, err = w.p.OpenDM(ctx, member); err != nil {
			w.report(err, "Failed to open a DM with %s", member.DisplayName())
			return
		}
	}
	if err := w.p.SendFile(ctx, dm.ID, art.Path); err != nil {
		w.report(err, "Failed to send DM with %s", filepath.Base(art.Path))
		return
	}
	w.con.Success("DM sent successfully.")
}

// remove revokes member's access to target: threads drop the member, text
// channels lose the member's permission overwrite.
func (w *Workflow) remove(ctx context.Context, target discord.Chat, member discord.Member) bool {
	perm := discord.PermManageRoles
	if _, ok := target.(*discord.Thread); ok {
		perm = discord.PermManageThreads
	}
	if !w.p.Can(ctx, target, w.p.BotID(), perm) {
		w.con.Warn("Warning: Bot lacks permissions to remove users from %s.", target.Label())
		return false
	}

	w.con.Info("Removing %s from %s...", member.DisplayName(), target.Label())
	var err error
	switch t := target.(type) {
	case *discord.Thread:
		err = w.p.RemoveThreadMember(ctx, t.ID, member.ID)
	case *discord.TextChannel:
		err = w.p.ClearPermissionOverwrite(ctx, t.ID, member.ID)
	default:
		return false
	}
	if err != nil {
		w.report(err, "Failed to remove %s from %s", member.DisplayName(), target.Label())
		return false
	}
	w.con.Success("Removed %s.", member.DisplayName())
	return true
}

// Package workflow implements the interactive archive session: choosing a
// chat by browsing a server or by searching for a member, archiving it and
// acting on the result.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/chrisedwards/discord-archive/internal/discord"
	"github.com/chrisedwards/discord-archive/internal/export"
	"github.com/chrisedwards/discord-archive/internal/ui"
)

// Platform is the subset of the Discord session the workflows use.
type Platform interface {
	BotID() string
	Guilds(ctx context.Context) ([]discord.Guild, error)
	Chats(ctx context.Context, guildID string) ([]discord.Chat, error)
	Can(ctx context.Context, chat discord.Chat, userID string, perm discord.Permission) bool
	ResolveMembers(ctx context.Context) (*discord.MemberDirectory, error)
	OpenDM(ctx context.Context, user discord.Member) (*discord.DMChannel, error)
	SendMessage(ctx context.Context, channelID, content string) error
	SendFile(ctx context.Context, channelID, path string) error
	RemoveThreadMember(ctx context.Context, threadID, userID string) error
	ClearPermissionOverwrite(ctx context.Context, channelID, userID string) error
	Delete(ctx context.Context, chatID string) error
}

// Archiver turns one chat into a PDF artifact.
type Archiver interface {
	Archive(ctx context.Context, chat discord.Chat) (*export.Artifact, error)
}

// Settings holds the distribution options.
type Settings struct {
	UploadServerID     string
	UploadChannelID    string
	ArchiveChannelName string
	SendRate           float64 // sends per second; <= 0 means unlimited
}

// Workflow runs the operator session. It is not safe for concurrent use.
type Workflow struct {
	p    Platform
	arch Archiver
	ask  ui.Prompter
	con  *ui.Console
	set  Settings
	lim  *rate.Limiter
	lg   *slog.Logger

	membersLoaded bool
}

// New creates a Workflow.
func New(p Platform, arch Archiver, ask ui.Prompter, con *ui.Console, set Settings, lg *slog.Logger) *Workflow {
	if lg == nil {
		lg = slog.Default()
	}
	if set.ArchiveChannelName == "" {
		set.ArchiveChannelName = "channel-archive"
	}
	limit := rate.Inf
	if set.SendRate > 0 {
		limit = rate.Limit(set.SendRate)
	}
	return &Workflow{
		p:    p,
		arch: arch,
		ask:  ask,
		con:  con,
		set:  set,
		lim:  rate.NewLimiter(limit, 1),
		lg:   lg,
	}
}

// Status is the result of a selection prompt.
type Status int

const (
	Selected  Status = iota
	Cancelled        // operator typed the go-back token
	Empty            // nothing to choose from
)

// cancelToken returns the operator to the previous menu.
const cancelToken = "q"

func isCancel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), cancelToken)
}

// pace blocks until the next send is allowed.
func (w *Workflow) pace(ctx context.Context) error {
	return w.lim.Wait(ctx)
}

// readable returns the chats of a guild the user can read, sorted.
func (w *Workflow) readable(ctx context.Context, guildID string, userIDs ...string) ([]discord.Chat, error) {
	chats, err := w.p.Chats(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var out []discord.Chat
outer:
	for _, c := range chats {
		for _, uid := range userIDs {
			if !w.p.Can(ctx, c, uid, discord.PermRead) {
				continue outer
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// isFatal reports whether err must end the session rather than the current
// step.
func isFatal(err error) bool {
	return errors.Is(err, ui.ErrAborted) || errors.Is(err, context.Canceled)
}

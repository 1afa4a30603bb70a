package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries is the number of reconnect attempts made when the
	// gateway cannot be reached.
	DefaultMaxRetries = 5

	// DefaultInitialDelay is the first backoff interval between attempts.
	DefaultInitialDelay = 1 * time.Second

	// memberPageSize is the maximum page size of the list guild members
	// endpoint.
	memberPageSize = 1000
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Options configures the session.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
	Logger       *slog.Logger
}

// Client is the bot session. It is created once per process and passed
// explicitly to the workflows.
type Client struct {
	s       *discordgo.Session
	members *MemberDirectory
	lg      *slog.Logger

	threadMember func(ctx context.Context, threadID, userID string) (bool, error)
}

// Open authenticates and connects to the gateway. Transient failures are
// retried with exponential backoff; a rejected token fails immediately with
// ErrAuth.
func Open(ctx context.Context, creds *Credentials, opts Options) (*Client, error) {
	lg := opts.Logger
	if lg == nil {
		lg = slog.Default()
	}
	s, err := discordgo.New(creds.Authorization())
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.Identify.Intents = intents
	s.StateEnabled = true

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opts.InitialDelay
	if bo.InitialInterval <= 0 {
		bo.InitialInterval = DefaultInitialDelay
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}

	attempt := 0
	connect := func() error {
		attempt++
		if _, err := s.User("@me", discordgo.WithContext(ctx)); err != nil {
			if isAuthError(err) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrAuth, err))
			}
			lg.Warn("discord API unreachable", "attempt", attempt, "error", err)
			return err
		}
		if err := s.Open(); err != nil {
			if isAuthError(err) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrAuth, err))
			}
			lg.Warn("gateway connection failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, err
	}

	c := &Client{
		s:       s,
		members: NewMemberDirectory(),
		lg:      lg,
	}
	c.threadMember = c.isThreadMember
	return c, nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.s.Close()
}

// Self returns the bot user.
func (c *Client) Self() Member {
	if c.s.State == nil || c.s.State.User == nil {
		return Member{}
	}
	return memberFromUser(c.s.State.User)
}

// BotID returns the bot's user ID.
func (c *Client) BotID() string {
	return c.Self().ID
}

// Guilds returns the guilds the bot is a member of, in gateway order.
func (c *Client) Guilds(ctx context.Context) ([]Guild, error) {
	c.s.State.RLock()
	ids := make([]string, 0, len(c.s.State.Guilds))
	names := make(map[string]string, len(c.s.State.Guilds))
	for _, g := range c.s.State.Guilds {
		ids = append(ids, g.ID)
		names[g.ID] = g.Name
	}
	c.s.State.RUnlock()

	guilds := make([]Guild, 0, len(ids))
	for _, id := range ids {
		name := names[id]
		if name == "" {
			// still unavailable on the gateway
			g, err := c.s.Guild(id, discordgo.WithContext(ctx))
			if err != nil {
				return nil, fmt.Errorf("fetching guild %s: %w", id, err)
			}
			name = g.Name
		}
		guilds = append(guilds, Guild{ID: id, Name: name})
	}
	return guilds, nil
}

// Chats returns the text channels and active threads of a guild, unsorted
// and unfiltered by access.
func (c *Client) Chats(ctx context.Context, guildID string) ([]Chat, error) {
	channels, err := c.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing channels of guild %s: %w", guildID, err)
	}
	var threads []*discordgo.Channel
	active, err := c.s.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		// threads are optional, the channel list is still usable
		c.lg.Warn("listing active threads failed", "guild", guildID, "error", err)
	} else {
		threads = active.Threads
	}
	return chatsFromChannels(guildID, channels, threads), nil
}

// Can reports whether userID holds perm on chat. Lookup errors are logged
// and reported as "no".
func (c *Client) Can(ctx context.Context, chat Chat, userID string, perm Permission) bool {
	switch t := chat.(type) {
	case *DMChannel:
		return perm&^(PermRead|PermSend|PermAttach) == 0
	case *Thread:
		return c.canThread(ctx, t, userID, perm)
	}
	return c.channelPerms(ctx, chat.ChatID(), userID)&perm == perm
}

// canThread evaluates perm on the parent channel. Reading a private thread
// also takes thread membership or manage-threads on the parent.
func (c *Client) canThread(ctx context.Context, t *Thread, userID string, perm Permission) bool {
	if t.ParentID == "" {
		c.lg.Debug("thread without parent", "thread", t.ID)
		return false
	}
	got := c.channelPerms(ctx, t.ParentID, userID)
	if got&perm != perm {
		return false
	}
	if !t.Private || perm&PermRead == 0 || got&PermManageThreads != 0 {
		return true
	}
	ok, err := c.threadMember(ctx, t.ID, userID)
	if err != nil {
		c.lg.Debug("thread membership lookup failed", "thread", t.ID, "user", userID, "error", err)
		return false
	}
	return ok
}

func (c *Client) channelPerms(ctx context.Context, channelID, userID string) Permission {
	got, err := c.s.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		c.lg.Debug("permission lookup failed", "chat", channelID, "user", userID, "error", err)
		return 0
	}
	return Permission(got)
}

// isThreadMember asks Discord whether userID has joined the thread. A 404 means
// not a member.
func (c *Client) isThreadMember(ctx context.Context, threadID, userID string) (bool, error) {
	_, err := c.s.ThreadMember(threadID, userID, false, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

// ResolveMembers fetches the full member list of every guild that has not
// been resolved yet. It may take a while on large guilds.
func (c *Client) ResolveMembers(ctx context.Context) (*MemberDirectory, error) {
	guilds, err := c.Guilds(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range guilds {
		if c.members.Resolved(g.ID) {
			continue
		}
		members, err := c.fetchMembers(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("resolving members of %s: %w", g.Name, err)
		}
		c.members.Set(g.ID, members)
		c.lg.Debug("members resolved", "guild", g.Name, "count", len(members))
	}
	return c.members, nil
}

func (c *Client) fetchMembers(ctx context.Context, guildID string) ([]Member, error) {
	var (
		out   []Member
		after string
	)
	for {
		page, err := c.s.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			m.GuildID = guildID
			// keeps local permission computation off the REST API
			_ = c.s.State.MemberAdd(m)
			out = append(out, memberFromDiscord(guildID, m))
		}
		if len(page) < memberPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// OpenDM opens (or reuses) the direct-message channel with a user.
func (c *Client) OpenDM(ctx context.Context, user Member) (*DMChannel, error) {
	ch, err := c.s.UserChannelCreate(user.ID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("opening DM with %s: %w", user.Username, err)
	}
	recipient := user
	recipient.GuildID = ""
	return &DMChannel{ID: ch.ID, Recipient: recipient}, nil
}

// SendMessage posts a text message.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := c.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// SendFile uploads a file as a message attachment.
func (c *Client) SendFile(ctx context.Context, channelID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = c.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        filepath.Base(path),
			ContentType: "application/pdf",
			Reader:      f,
		}},
	}, discordgo.WithContext(ctx))
	return err
}

// RemoveThreadMember removes a user from a thread's membership.
func (c *Client) RemoveThreadMember(ctx context.Context, threadID, userID string) error {
	return c.s.ThreadMemberRemove(threadID, userID, discordgo.WithContext(ctx))
}

// ClearPermissionOverwrite deletes the user-specific permission overwrite on
// a channel, revoking any explicit access.
func (c *Client) ClearPermissionOverwrite(ctx context.Context, channelID, userID string) error {
	return c.s.ChannelPermissionDelete(channelID, userID, discordgo.WithContext(ctx))
}

// Delete deletes a channel or thread.
func (c *Client) Delete(ctx context.Context, chatID string) error {
	_, err := c.s.ChannelDelete(chatID, discordgo.WithContext(ctx))
	return err
}

package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chrisedwards/discord-archive/internal/discord"
	"github.com/chrisedwards/discord-archive/internal/export"
	"github.com/chrisedwards/discord-archive/internal/ui"
)

const botID = "bot"

type sent struct {
	channel string
	payload string
}

// fakePlatform is an in-memory Discord that records every side effect.
type fakePlatform struct {
	guilds []discord.Guild
	chats  map[string][]discord.Chat
	perms  map[string]discord.Permission // userID + "/" + chatID
	dir    *discord.MemberDirectory

	dmErr       map[string]error // by user ID
	sendFileErr error
	removeErr   error
	deleteErr   error

	files       []sent
	messages    []sent
	openedDMs   []string
	threadRemov []string // threadID/userID
	overwrites  []string // channelID/userID
	deleted     []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		chats: make(map[string][]discord.Chat),
		perms: make(map[string]discord.Permission),
		dir:   discord.NewMemberDirectory(),
		dmErr: make(map[string]error),
	}
}

func (f *fakePlatform) grant(userID string, chat discord.Chat, perms ...discord.Permission) {
	for _, p := range perms {
		f.perms[userID+"/"+chat.ChatID()] |= p
	}
}

func (f *fakePlatform) BotID() string { return botID }

func (f *fakePlatform) Guilds(context.Context) ([]discord.Guild, error) {
	return append([]discord.Guild(nil), f.guilds...), nil
}

func (f *fakePlatform) Chats(_ context.Context, guildID string) ([]discord.Chat, error) {
	return append([]discord.Chat(nil), f.chats[guildID]...), nil
}

func (f *fakePlatform) Can(_ context.Context, chat discord.Chat, userID string, perm discord.Permission) bool {
	if _, ok := chat.(*discord.DMChannel); ok {
		return perm&^(discord.PermRead|discord.PermSend|discord.PermAttach) == 0
	}
	return f.perms[userID+"/"+chat.ChatID()]&perm == perm
}

func (f *fakePlatform) ResolveMembers(context.Context) (*discord.MemberDirectory, error) {
	return f.dir, nil
}

func (f *fakePlatform) OpenDM(_ context.Context, user discord.Member) (*discord.DMChannel, error) {
	if err := f.dmErr[user.ID]; err != nil {
		return nil, err
	}
	f.openedDMs = append(f.openedDMs, user.ID)
	user.GuildID = ""
	return &discord.DMChannel{ID: "dm-" + user.ID, Recipient: user}, nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.messages = append(f.messages, sent{channelID, content})
	return nil
}

func (f *fakePlatform) SendFile(_ context.Context, channelID, path string) error {
	if f.sendFileErr != nil {
		return f.sendFileErr
	}
	f.files = append(f.files, sent{channelID, path})
	return nil
}

func (f *fakePlatform) RemoveThreadMember(_ context.Context, threadID, userID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.threadRemov = append(f.threadRemov, threadID+"/"+userID)
	return nil
}

func (f *fakePlatform) ClearPermissionOverwrite(_ context.Context, channelID, userID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.overwrites = append(f.overwrites, channelID+"/"+userID)
	return nil
}

func (f *fakePlatform) Delete(_ context.Context, chatID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, chatID)
	return nil
}

// fakeArchiver returns an artifact per chat unless a failure is configured.
type fakeArchiver struct {
	fail  map[string]bool
	calls []string
}

func (a *fakeArchiver) Archive(_ context.Context, chat discord.Chat) (*export.Artifact, error) {
	a.calls = append(a.calls, chat.ChatID())
	if a.fail[chat.ChatID()] {
		return nil, &export.ToolError{Tool: "DiscordChatExporter.Cli", ExitCode: 1, Stderr: "boom"}
	}
	return &export.Artifact{Path: "/out/" + chat.ChatID() + ".pdf", Size: 1024, Messages: 3, Pages: 1}, nil
}

var errScriptExhausted = errors.New("prompt script exhausted")

// scriptedPrompter answers prompts from fixed scripts and records the
// questions asked.
type scriptedPrompter struct {
	t        *testing.T
	inputs   []string
	confirms []bool
	asked    []string
}

func (p *scriptedPrompter) Input(title string) (string, error) {
	p.asked = append(p.asked, title)
	if len(p.inputs) == 0 {
		p.t.Errorf("unexpected input prompt %q", title)
		return "", errScriptExhausted
	}
	in := p.inputs[0]
	p.inputs = p.inputs[1:]
	return in, nil
}

func (p *scriptedPrompter) Confirm(title string, _ bool) (bool, error) {
	p.asked = append(p.asked, title)
	if len(p.confirms) == 0 {
		p.t.Errorf("unexpected confirm prompt %q", title)
		return false, errScriptExhausted
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

func (p *scriptedPrompter) Secret(title string) (string, error) {
	return p.Input(title)
}

func (p *scriptedPrompter) done() bool {
	return len(p.inputs) == 0 && len(p.confirms) == 0
}

type harness struct {
	p    *fakePlatform
	arch *fakeArchiver
	ask  *scriptedPrompter
	out  *bytes.Buffer
	w    *Workflow
}

func newHarness(t *testing.T, set Settings) *harness {
	t.Helper()
	h := &harness{
		p:    newFakePlatform(),
		arch: &fakeArchiver{fail: make(map[string]bool)},
		ask:  &scriptedPrompter{t: t},
		out:  &bytes.Buffer{},
	}
	h.w = New(h.p, h.arch, h.ask, ui.NewConsole(h.out), set, nil)
	return h
}

func (h *harness) script(inputs []string, confirms ...bool) {
	h.ask.inputs = inputs
	h.ask.confirms = confirms
}

// testServer is a guild with an "Info" category holding rules and welcome, an
// uncategorised general channel with one thread, and an archive channel.
type testServer struct {
	guild                         discord.Guild
	general, rules, welcome, arch *discord.TextChannel
	help                          *discord.Thread
	anna, annette, bob, botMember discord.Member
}

func newTestServer(p *fakePlatform) *testServer {
	g := discord.Guild{ID: "g1", Name: "Acme"}
	info := &discord.Category{ID: "cat-info", Name: "Info", Position: 0}
	s := &testServer{
		guild:   g,
		general: &discord.TextChannel{ID: "c-general", GuildID: g.ID, Name: "general", Position: 0},
		rules:   &discord.TextChannel{ID: "c-rules", GuildID: g.ID, Name: "rules", Category: info, Position: 0},
		welcome: &discord.TextChannel{ID: "c-welcome", GuildID: g.ID, Name: "welcome", Category: info, Position: 1},
		arch:    &discord.TextChannel{ID: "c-archive", GuildID: g.ID, Name: "channel-archive", Position: 5},
	}
	s.help = &discord.Thread{ID: "t-help", GuildID: g.ID, Name: "help", Parent: s.general}
	s.anna = discord.Member{ID: "u-anna", GuildID: g.ID, Username: "anna"}
	s.annette = discord.Member{ID: "u-annette", GuildID: g.ID, Username: "annette", GlobalName: "Annette"}
	s.bob = discord.Member{ID: "u-bob", GuildID: g.ID, Username: "bob"}
	s.botMember = discord.Member{ID: botID, GuildID: g.ID, Username: "archiver", Bot: true}

	p.guilds = append(p.guilds, g)
	p.chats[g.ID] = []discord.Chat{s.general, s.rules, s.welcome, s.help, s.arch}
	p.dir.Set(g.ID, []discord.Member{s.anna, s.annette, s.bob, s.botMember})
	for _, c := range p.chats[g.ID] {
		p.grant(botID, c, discord.PermRead)
	}
	return s
}

func ids(a []sent) []string {
	out := make([]string, len(a))
	for i, s := range a {
		out[i] = fmt.Sprintf("%s:%s", s.channel, s.payload)
	}
	return out
}

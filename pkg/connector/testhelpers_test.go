// Copyright 2024-2026 Aiku AI

package connector

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// sentMessage records one SendMessage call on the fake remote.
type sentMessage struct {
	ChannelID string
	Send      *discordgo.MessageSend
}

// executedWebhook records one ExecuteWebhook call on the fake remote.
type executedWebhook struct {
	WebhookID string
	Token     string
	Params    *discordgo.WebhookParams
}

// fakeRemote is an in-memory remoteAPI implementation. It records calls so
// tests can assert which mechanisms were attempted.
type fakeRemote struct {
	me            *discordgo.User
	channels      map[string]*discordgo.Channel
	guilds        []*discordgo.Guild
	relationships []*relationship
	users         map[string]*discordgo.User
	dmChannels    map[string]*discordgo.Channel
	webhooks      map[string][]*discordgo.Webhook
	deniedAccess  map[string]bool

	relationshipsErr error
	fetchUserErr     error
	openDMErr        error
	listWebhooksErr  error
	createWebhookErr error
	executeErr       error
	sendErr          error

	guildsCalls    int
	webhookLookups int
	webhookCreates int
	sent           []sentMessage
	executed       []executedWebhook
	nextMessageID  int
}

var _ remoteAPI = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		me:           &discordgo.User{ID: "self", Username: "bridgebot"},
		channels:     make(map[string]*discordgo.Channel),
		users:        make(map[string]*discordgo.User),
		dmChannels:   make(map[string]*discordgo.Channel),
		webhooks:     make(map[string][]*discordgo.Webhook),
		deniedAccess: make(map[string]bool),
	}
}

func (f *fakeRemote) Me() *discordgo.User { return f.me }

func (f *fakeRemote) CachedChannel(channelID string) *discordgo.Channel {
	return f.channels[channelID]
}

func (f *fakeRemote) Guilds() []*discordgo.Guild {
	f.guildsCalls++
	return f.guilds
}

func (f *fakeRemote) Relationships(_ context.Context) ([]*relationship, error) {
	if f.relationshipsErr != nil {
		return nil, f.relationshipsErr
	}
	return f.relationships, nil
}

func (f *fakeRemote) FetchUser(_ context.Context, userID string) (*discordgo.User, error) {
	if f.fetchUserErr != nil {
		return nil, f.fetchUserErr
	}
	user, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("unknown user %s", userID)
	}
	return user, nil
}

func (f *fakeRemote) OpenDM(_ context.Context, userID string) (*discordgo.Channel, error) {
	if f.openDMErr != nil {
		return nil, f.openDMErr
	}
	ch, ok := f.dmChannels[userID]
	if !ok {
		ch = &discordgo.Channel{
			ID:   "dm-channel-" + userID,
			Type: discordgo.ChannelTypeDM,
		}
		f.dmChannels[userID] = ch
	}
	return ch, nil
}

func (f *fakeRemote) ChannelWebhooks(_ context.Context, channelID string) ([]*discordgo.Webhook, error) {
	f.webhookLookups++
	if f.listWebhooksErr != nil {
		return nil, f.listWebhooksErr
	}
	return f.webhooks[channelID], nil
}

func (f *fakeRemote) CreateWebhook(_ context.Context, channelID, name string) (*discordgo.Webhook, error) {
	f.webhookCreates++
	if f.createWebhookErr != nil {
		return nil, f.createWebhookErr
	}
	wh := &discordgo.Webhook{
		ID:        "wh-" + channelID,
		ChannelID: channelID,
		Name:      name,
		Token:     "wh-token",
	}
	f.webhooks[channelID] = append(f.webhooks[channelID], wh)
	return wh, nil
}

func (f *fakeRemote) ExecuteWebhook(_ context.Context, webhookID, token string, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	f.executed = append(f.executed, executedWebhook{WebhookID: webhookID, Token: token, Params: params})
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	return f.newMessage(), nil
}

func (f *fakeRemote) SendMessage(_ context.Context, channelID string, send *discordgo.MessageSend) (*discordgo.Message, error) {
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Send: send})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.newMessage(), nil
}

func (f *fakeRemote) HasChannelAccess(channelID string) bool {
	return !f.deniedAccess[channelID]
}

func (f *fakeRemote) newMessage() *discordgo.Message {
	f.nextMessageID++
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextMessageID)}
}

// fakeRuntime is an in-memory BridgeRuntime.
type fakeRuntime struct {
	mu        sync.Mutex
	ghosts    map[string]id.UserID
	portals   map[string]id.RoomID
	emoji     map[string]id.ContentURIString
	presences map[string]setPresenceCall
}

type setPresenceCall struct {
	Presence event.Presence
	Status   string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		ghosts:    make(map[string]id.UserID),
		portals:   make(map[string]id.RoomID),
		emoji:     make(map[string]id.ContentURIString),
		presences: make(map[string]setPresenceCall),
	}
}

func (f *fakeRuntime) GhostMXID(_ context.Context, discordUserID string) (id.UserID, error) {
	return f.ghosts[discordUserID], nil
}

func (f *fakeRuntime) PortalMXID(_ context.Context, channelID string) (id.RoomID, error) {
	return f.portals[channelID], nil
}

func (f *fakeRuntime) CustomEmojiMXC(_ context.Context, name, emojiID string) (id.ContentURIString, error) {
	return f.emoji[name+":"+emojiID], nil
}

func (f *fakeRuntime) SetGhostPresence(_ context.Context, discordUserID string, presence event.Presence, statusMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presences[discordUserID] = setPresenceCall{Presence: presence, Status: statusMsg}
	return nil
}

// newTestClient creates a DiscordClient wired to a fake remote, with logs
// captured in the returned buffer.
func newTestClient(remote remoteAPI, isBot bool) (*DiscordClient, *bytes.Buffer) {
	logBuf := &bytes.Buffer{}
	connector := &DiscordConnector{
		Config: Config{WebhookName: "_matrix"},
	}
	return &DiscordClient{
		connector: connector,
		remote:    remote,
		userID:    "self",
		isBot:     isBot,
		Renderer:  DiscordEscaper{},
		log:       zerolog.New(logBuf),
	}, logBuf
}

// countWarnings counts warn-level log lines in a captured log buffer.
func countWarnings(logBuf *bytes.Buffer) int {
	return strings.Count(logBuf.String(), `"level":"warn"`)
}

// guildTextChannel builds a guild text channel for delivery tests.
func guildTextChannel(id string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Type: discordgo.ChannelTypeGuildText}
}

// dmChannel builds a direct-message channel for delivery tests.
func dmChannel(id string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Type: discordgo.ChannelTypeDM}
}

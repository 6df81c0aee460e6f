// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// relationship is one entry of a user account's friends/relationship list.
// The endpoint is not part of the bot API, so discordgo carries no type or
// method for it and the raw REST call lives in the session adapter.
type relationship struct {
	ID   string          `json:"id"`
	Type int             `json:"type"`
	User *discordgo.User `json:"user"`
}

// remoteAPI is the subset of the Discord client used by the resolvers, the
// delivery strategist, and the guild structure walker. It exists so tests
// can inject a fake instead of requiring a live discordgo session. All
// mutation (webhook creation, message posting) happens on the remote side;
// the interface holds no state of its own.
type remoteAPI interface {
	// Me returns the acting account, or nil before the session is ready.
	Me() *discordgo.User
	// CachedChannel returns the channel from the client's local cache, or
	// nil on a cache miss. No network round-trip.
	CachedChannel(channelID string) *discordgo.Channel
	// Guilds returns the cached guild list, including channel and member tables.
	Guilds() []*discordgo.Guild
	// Relationships returns the acting account's friends/relationship list.
	// Errors for bot accounts, which have no relationships.
	Relationships(ctx context.Context) ([]*relationship, error)
	// FetchUser fetches a user by ID over the network.
	FetchUser(ctx context.Context, userID string) (*discordgo.User, error)
	// OpenDM opens (or reuses) a direct-message channel with the given user.
	OpenDM(ctx context.Context, userID string) (*discordgo.Channel, error)
	// ChannelWebhooks lists the webhooks of a guild channel.
	ChannelWebhooks(ctx context.Context, channelID string) ([]*discordgo.Webhook, error)
	// CreateWebhook creates a webhook on a guild channel.
	CreateWebhook(ctx context.Context, channelID, name string) (*discordgo.Webhook, error)
	// ExecuteWebhook sends a message through a webhook and waits for the
	// created message.
	ExecuteWebhook(ctx context.Context, webhookID, token string, params *discordgo.WebhookParams) (*discordgo.Message, error)
	// SendMessage sends a message into a channel as the acting account.
	SendMessage(ctx context.Context, channelID string, send *discordgo.MessageSend) (*discordgo.Message, error)
	// HasChannelAccess reports whether the acting account can view the
	// given channel.
	HasChannelAccess(channelID string) bool
}

// sessionRemote adapts a *discordgo.Session to remoteAPI.
type sessionRemote struct {
	session *discordgo.Session
}

var _ remoteAPI = (*sessionRemote)(nil)

func (s *sessionRemote) Me() *discordgo.User {
	if s.session.State == nil {
		return nil
	}
	return s.session.State.User
}

func (s *sessionRemote) CachedChannel(channelID string) *discordgo.Channel {
	ch, err := s.session.State.Channel(channelID)
	if err != nil {
		return nil
	}
	return ch
}

func (s *sessionRemote) Guilds() []*discordgo.Guild {
	return s.session.State.Guilds
}

func (s *sessionRemote) Relationships(ctx context.Context) ([]*relationship, error) {
	if strings.HasPrefix(s.session.Token, "Bot ") {
		return nil, errors.New("relationships are not available to bot accounts")
	}
	endpoint := discordgo.EndpointUser("@me") + "/relationships"
	body, err := s.session.RequestWithBucketID(http.MethodGet, endpoint, nil, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	var relationships []*relationship
	if err := json.Unmarshal(body, &relationships); err != nil {
		return nil, err
	}
	return relationships, nil
}

func (s *sessionRemote) FetchUser(ctx context.Context, userID string) (*discordgo.User, error) {
	return s.session.User(userID, discordgo.WithContext(ctx))
}

func (s *sessionRemote) OpenDM(ctx context.Context, userID string) (*discordgo.Channel, error) {
	// discordgo returns the existing DM channel if one is already open.
	return s.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
}

func (s *sessionRemote) ChannelWebhooks(ctx context.Context, channelID string) ([]*discordgo.Webhook, error) {
	return s.session.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
}

func (s *sessionRemote) CreateWebhook(ctx context.Context, channelID, name string) (*discordgo.Webhook, error) {
	return s.session.WebhookCreate(channelID, name, "", discordgo.WithContext(ctx))
}

func (s *sessionRemote) ExecuteWebhook(ctx context.Context, webhookID, token string, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	return s.session.WebhookExecute(webhookID, token, true, params, discordgo.WithContext(ctx))
}

func (s *sessionRemote) SendMessage(ctx context.Context, channelID string, send *discordgo.MessageSend) (*discordgo.Message, error) {
	return s.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
}

func (s *sessionRemote) HasChannelAccess(channelID string) bool {
	me := s.Me()
	if me == nil {
		return false
	}
	perms, err := s.session.State.UserChannelPermissions(me.ID, channelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionViewChannel != 0
}

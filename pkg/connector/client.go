// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/bridgev2"
	"maunium.net/go/mautrix/bridgev2/networkid"
	"maunium.net/go/mautrix/bridgev2/status"
	"maunium.net/go/mautrix/event"
)

// DiscordClient represents a single authenticated Discord session.
type DiscordClient struct {
	connector *DiscordConnector
	userLogin *bridgev2.UserLogin

	session *discordgo.Session
	remote  remoteAPI
	userID  string
	isBot   bool

	// Runtime is the home-bridge collaborator for MXID, emoji, and
	// presence lookups. Optional; presence updates and mention lookups
	// degrade gracefully without it.
	Runtime BridgeRuntime
	// Renderer is the Matrix markup parser used by Escape. Defaults to a
	// plain Discord-markdown escaper.
	Renderer MarkupRenderer

	log zerolog.Logger
}

var _ bridgev2.NetworkAPI = (*DiscordClient)(nil)

// NewDiscordClient creates a new client from an existing user login.
func NewDiscordClient(login *bridgev2.UserLogin, connector *DiscordConnector) *DiscordClient {
	log := login.Log.With().Str("component", "discord_client").Logger()
	dc := &DiscordClient{
		connector: connector,
		userLogin: login,
		Renderer:  DiscordEscaper{},
		log:       log,
	}
	meta, _ := login.Metadata.(*UserLoginMetadata)
	if meta == nil {
		return dc
	}
	dc.userID = meta.UserID
	dc.isBot = meta.IsBot
	if meta.Token != "" {
		session, err := discordgo.New(sessionToken(meta.Token, meta.IsBot))
		if err != nil {
			log.Error().Err(err).Msg("Failed to build Discord session from stored token")
			return dc
		}
		dc.session = session
		dc.remote = &sessionRemote{session: session}
	}
	return dc
}

// sessionToken formats a stored token for discordgo, which expects bot
// tokens to carry the "Bot " prefix.
func sessionToken(token string, isBot bool) string {
	if isBot {
		return "Bot " + token
	}
	return token
}

// Connect implements bridgev2.NetworkAPI. It does not return an error;
// connection errors are reported via BridgeState.
func (d *DiscordClient) Connect(ctx context.Context) {
	if d.session == nil {
		d.log.Warn().Msg("Session not initialized, login first")
		d.userLogin.BridgeState.Send(status.BridgeState{
			StateEvent: status.StateBadCredentials,
			Error:      "discord-not-logged-in",
			Message:    "Not logged in to Discord",
		})
		return
	}

	// Inbound message handling lives in a separate component; this client
	// only needs guild/member/presence state for resolution and delivery.
	d.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences

	d.log.Info().Bool("bot", d.isBot).Msg("Connecting to Discord")

	if err := d.session.Open(); err != nil {
		d.log.Error().Err(err).Msg("Failed to open Discord gateway connection")
		d.userLogin.BridgeState.Send(status.BridgeState{
			StateEvent: status.StateTransientDisconnect,
			Error:      "discord-gateway-failed",
			Message:    "Failed to connect to the Discord gateway",
		})
		return
	}

	if me := d.remote.Me(); me != nil {
		d.userID = me.ID
		d.isBot = me.Bot
		d.log.Info().Str("user_id", me.ID).Str("username", me.Username).Msg("Authenticated")
	}

	d.userLogin.BridgeState.Send(status.BridgeState{
		StateEvent: status.StateConnected,
	})
}

// Disconnect closes the gateway connection.
func (d *DiscordClient) Disconnect() {
	if d.session != nil {
		if err := d.session.Close(); err != nil {
			d.log.Warn().Err(err).Msg("Failed to close Discord session")
		}
	}
}

// IsLoggedIn reports whether the client holds an authentication token.
func (d *DiscordClient) IsLoggedIn() bool {
	return d.session != nil && d.session.Token != ""
}

func (d *DiscordClient) LogoutRemote(_ context.Context) {
	// Discord tokens are not invalidated server-side by the bridge; just
	// drop the connection.
	d.Disconnect()
	d.session = nil
	d.remote = nil
}

// IsThisUser reports whether the given network user ID matches this client's Discord user.
func (d *DiscordClient) IsThisUser(_ context.Context, userID networkid.UserID) bool {
	return ParseUserID(userID) == d.userID
}

func (d *DiscordClient) GetChatInfo(ctx context.Context, portal *bridgev2.Portal) (*bridgev2.ChatInfo, error) {
	channel, err := d.ResolveChannel(ctx, portal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %s not found", ParsePortalID(portal.ID))
	}
	return d.channelToChatInfo(channel), nil
}

func (d *DiscordClient) GetUserInfo(ctx context.Context, ghost *bridgev2.Ghost) (*bridgev2.UserInfo, error) {
	user, err := d.ResolveUser(ctx, ParseUserID(ghost.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", ParseUserID(ghost.ID))
	}
	return d.userToUserInfo(user), nil
}

func (d *DiscordClient) GetCapabilities(_ context.Context, _ *bridgev2.Portal) *event.RoomFeatures {
	return &event.RoomFeatures{
		Formatting: event.FormattingFeatureMap{
			event.FmtBold:          event.CapLevelFullySupported,
			event.FmtItalic:        event.CapLevelFullySupported,
			event.FmtStrikethrough: event.CapLevelFullySupported,
			event.FmtInlineCode:    event.CapLevelFullySupported,
			event.FmtCodeBlock:     event.CapLevelFullySupported,
			event.FmtBlockquote:    event.CapLevelFullySupported,
			event.FmtInlineLink:    event.CapLevelFullySupported,
			event.FmtUserLink:      event.CapLevelFullySupported,
			event.FmtUnorderedList: event.CapLevelFullySupported,
			event.FmtOrderedList:   event.CapLevelFullySupported,
		},
		File: event.FileFeatureMap{
			event.MsgImage: {
				MimeTypes: map[string]event.CapabilitySupportLevel{
					"image/*": event.CapLevelFullySupported,
				},
				MaxSize: 25 * 1024 * 1024,
				Caption: event.CapLevelFullySupported,
			},
			event.MsgVideo: {
				MimeTypes: map[string]event.CapabilitySupportLevel{
					"video/*": event.CapLevelFullySupported,
				},
				MaxSize: 25 * 1024 * 1024,
				Caption: event.CapLevelFullySupported,
			},
			event.MsgAudio: {
				MimeTypes: map[string]event.CapabilitySupportLevel{
					"audio/*": event.CapLevelFullySupported,
				},
				MaxSize: 25 * 1024 * 1024,
			},
			event.MsgFile: {
				MimeTypes: map[string]event.CapabilitySupportLevel{
					"*/*": event.CapLevelFullySupported,
				},
				MaxSize: 25 * 1024 * 1024,
			},
		},
		MaxTextLength: 2000,
		Reply:         event.CapLevelFullySupported,
	}
}

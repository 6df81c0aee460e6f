// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/bridgev2"
	"maunium.net/go/mautrix/bridgev2/database"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// HandleMatrixMessage handles a message sent from Matrix to Discord. The
// message is converted into a delivery payload and handed to the delivery
// strategist; relayed senders become the delivery's sending identity.
func (d *DiscordClient) HandleMatrixMessage(ctx context.Context, msg *bridgev2.MatrixMessage) (*bridgev2.MatrixMessageResponse, error) {
	if !d.IsLoggedIn() {
		return nil, bridgev2.ErrNotLoggedIn
	}

	channel, err := d.ResolveChannel(ctx, msg.Portal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %s not found", ParsePortalID(msg.Portal.ID))
	}

	payload, err := d.payloadFromContent(ctx, msg)
	if err != nil {
		return nil, err
	}

	outcome, err := d.Deliver(ctx, channel, payload, identityFromOrigSender(msg.OrigSender), replyFromMessage(channel, msg.ReplyTo))
	if err != nil {
		return nil, err
	}

	return &bridgev2.MatrixMessageResponse{
		DB: &database.Message{
			ID:       MakeMessageID(outcome.Messages[0].ID),
			SenderID: MakeUserID(d.userID),
		},
	}, nil
}

// payloadFromContent converts Matrix message content into a delivery payload.
func (d *DiscordClient) payloadFromContent(ctx context.Context, msg *bridgev2.MatrixMessage) (MessagePayload, error) {
	content := msg.Content
	switch content.MsgType {
	case event.MsgText, event.MsgNotice, event.MsgEmote:
		body := d.Renderer.RenderPlain(msg.Portal.MXID, content.Body)
		if content.MsgType == event.MsgEmote {
			body = "_" + body + "_"
		}
		return TextPayload{Body: body}, nil

	case event.MsgImage, event.MsgVideo, event.MsgAudio, event.MsgFile:
		data, err := msg.Portal.Bridge.Bot.DownloadMedia(ctx, content.URL, content.File)
		if err != nil {
			return nil, fmt.Errorf("failed to download Matrix media: %w", err)
		}
		filename := content.GetFileName()
		if filename == "" {
			filename = "upload"
		}
		return FilePayload{
			Data:     data,
			Filename: filename,
			IsImage:  content.MsgType == event.MsgImage,
			URL:      string(content.URL),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", content.MsgType)
	}
}

// identityFromOrigSender builds a SendingIdentity for relayed messages.
// Returns nil for messages sent by the bridge's own login, which need no
// relay attribution.
func identityFromOrigSender(sender *bridgev2.OrigSender) *SendingIdentity {
	if sender == nil {
		return nil
	}
	displayName := sender.Displayname
	if displayName == "" {
		displayName = string(sender.UserID)
	}
	return &SendingIdentity{
		DisplayName: displayName,
		AvatarURL:   httpAvatarURL(sender.AvatarURL),
		HomeID:      sender.UserID,
	}
}

// httpAvatarURL passes through already-public avatar URLs. Matrix mxc URIs
// need the media repo to serve them; without a public mapping the avatar is
// simply omitted.
func httpAvatarURL(avatarURL id.ContentURIString) string {
	if strings.HasPrefix(string(avatarURL), "http://") || strings.HasPrefix(string(avatarURL), "https://") {
		return string(avatarURL)
	}
	return ""
}

// replyFromMessage builds the reply context for a Matrix reply. Only the
// native message reference is known at this layer; the rendered quote parts
// are filled by the event-handling component when it has them.
func replyFromMessage(channel *discordgo.Channel, replyTo *database.Message) *ReplyContext {
	if replyTo == nil {
		return nil
	}
	return &ReplyContext{
		NativeRef: &discordgo.MessageReference{
			MessageID: ParseMessageID(replyTo.ID),
			ChannelID: channel.ID,
		},
	}
}

// Copyright 2024-2026 Aiku AI

package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/id"
)

// webhookUsernameLimit is Discord's maximum webhook display name length.
const webhookUsernameLimit = 80

// MessagePayload is the content of a single outbound delivery. Exactly one
// of the three implementations is active per send.
type MessagePayload interface {
	isMessagePayload()
}

// TextPayload is a plain (already markdown-rendered) text message.
type TextPayload struct {
	Body string
}

// EmbedPayload is a rich embed with an optional title and image.
type EmbedPayload struct {
	Title       string
	Description string
	ImageURL    string
}

// FilePayload is a file attachment. URL points at the publicly reachable
// copy of the file, used by the relay mechanisms that cannot re-upload.
type FilePayload struct {
	Data     []byte
	Filename string
	IsImage  bool
	URL      string
}

func (TextPayload) isMessagePayload()  {}
func (EmbedPayload) isMessagePayload() {}
func (FilePayload) isMessagePayload()  {}

// SendingIdentity describes the Matrix user a delivery should be attributed
// to. A nil identity means the message is sent as the bridge's own Discord
// account and no relay mechanism is needed.
type SendingIdentity struct {
	DisplayName string
	AvatarURL   string
	HomeID      id.UserID
}

// ReplyContext carries the rendered form of the message being replied to,
// for mechanisms without native reply support. NativeRef, when set, allows
// bot accounts to compose a native Discord reply instead.
type ReplyContext struct {
	AuthorName  string
	Description string
	NativeRef   *discordgo.MessageReference
}

// DeliveryOutcome holds the remote message(s) a successful delivery
// produced. Always non-empty on success.
type DeliveryOutcome struct {
	Messages []*discordgo.Message
}

// deliveryRequest bundles the arguments of a single Deliver call.
type deliveryRequest struct {
	channel  *discordgo.Channel
	payload  MessagePayload
	identity *SendingIdentity
	reply    *ReplyContext
}

// errTierUnavailable signals that a delivery tier cannot complete for a
// recoverable reason and the next tier should be tried. It never escapes
// Deliver.
var errTierUnavailable = errors.New("delivery tier unavailable")

// deliveryTier is one (precondition, attempt) pair of the fallback chain.
type deliveryTier struct {
	name    string
	applies func(d *DiscordClient, req *deliveryRequest) bool
	attempt func(d *DiscordClient, ctx context.Context, req *deliveryRequest) (*DeliveryOutcome, error)
}

// deliveryTiers is the fallback chain in strict priority order. Keeping it
// as an ordered list keeps the priority auditable and each tier testable in
// isolation.
var deliveryTiers = []deliveryTier{
	{
		name:    "direct",
		applies: func(_ *DiscordClient, req *deliveryRequest) bool { return req.identity == nil },
		attempt: (*DiscordClient).sendDirect,
	},
	{
		name: "webhook",
		applies: func(_ *DiscordClient, req *deliveryRequest) bool {
			return req.channel.Type == discordgo.ChannelTypeGuildText
		},
		attempt: (*DiscordClient).sendWebhook,
	},
	{
		name:    "embed",
		applies: func(d *DiscordClient, _ *deliveryRequest) bool { return d.isBot },
		attempt: (*DiscordClient).sendEmbed,
	},
	{
		name:    "plaintext",
		applies: func(_ *DiscordClient, _ *deliveryRequest) bool { return true },
		attempt: (*DiscordClient).sendPlaintext,
	},
}

// Deliver sends a payload into a channel through the best available
// mechanism, preserving authorship attribution as faithfully as Discord
// allows for the given account type. Mechanism unavailability degrades
// silently to the next tier; only unrecoverable send failures are returned.
func (d *DiscordClient) Deliver(ctx context.Context, channel *discordgo.Channel, payload MessagePayload, identity *SendingIdentity, reply *ReplyContext) (*DeliveryOutcome, error) {
	req := &deliveryRequest{
		channel:  channel,
		payload:  payload,
		identity: identity,
		reply:    reply,
	}
	for _, tier := range deliveryTiers {
		if !tier.applies(d, req) {
			continue
		}
		outcome, err := tier.attempt(d, ctx, req)
		if errors.Is(err, errTierUnavailable) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s delivery failed: %w", tier.name, err)
		}
		d.log.Debug().
			Str("tier", tier.name).
			Str("channel_id", channel.ID).
			Msg("Message delivered")
		return outcome, nil
	}
	// Unreachable: the direct tier applies whenever identity is nil and the
	// plaintext tier applies whenever it is not.
	return nil, fmt.Errorf("no delivery mechanism applies")
}

// sendDirect sends the payload as the bridge's own account, with a native
// reply composition when the account is a bot and a reference is known.
func (d *DiscordClient) sendDirect(ctx context.Context, req *deliveryRequest) (*DeliveryOutcome, error) {
	send := &discordgo.MessageSend{}
	switch p := req.payload.(type) {
	case TextPayload:
		send.Content = p.Body
	case EmbedPayload:
		send.Embeds = []*discordgo.MessageEmbed{embedFromPayload(p)}
	case FilePayload:
		send.Files = []*discordgo.File{{
			Name:   p.Filename,
			Reader: bytes.NewReader(p.Data),
		}}
	}
	if d.isBot && req.reply != nil && req.reply.NativeRef != nil {
		send.Reference = req.reply.NativeRef
	}
	msg, err := d.remote.SendMessage(ctx, req.channel.ID, send)
	if err != nil {
		return nil, err
	}
	return &DeliveryOutcome{Messages: []*discordgo.Message{msg}}, nil
}

// sendWebhook relays the payload through the channel's bridge webhook, with
// the sending identity substituted as the webhook's apparent sender. Webhook
// lookup or creation failures (typically missing Manage Webhooks permission)
// log a single warning and fall through to the next tier.
func (d *DiscordClient) sendWebhook(ctx context.Context, req *deliveryRequest) (*DeliveryOutcome, error) {
	webhook, err := d.findOrCreateWebhook(ctx, req.channel.ID)
	if err != nil {
		d.log.Warn().Err(err).
			Str("channel_id", req.channel.ID).
			Msg("Webhook unavailable, falling back to direct relay")
		return nil, errTierUnavailable
	}

	params := &discordgo.WebhookParams{
		Username:  truncate(req.identity.DisplayName, webhookUsernameLimit),
		AvatarURL: req.identity.AvatarURL,
	}
	// Webhooks cannot compose native replies. A reply with only a native
	// reference has nothing to quote; an empty embed would be rejected.
	if req.reply != nil && req.reply.Description != "" {
		params.Embeds = append(params.Embeds, &discordgo.MessageEmbed{
			Author:      &discordgo.MessageEmbedAuthor{Name: req.reply.AuthorName},
			Description: req.reply.Description,
		})
	}
	switch p := req.payload.(type) {
	case TextPayload:
		params.Content = p.Body
	case EmbedPayload:
		params.Embeds = append(params.Embeds, embedFromPayload(p))
	case FilePayload:
		params.Files = []*discordgo.File{{
			Name:   p.Filename,
			Reader: bytes.NewReader(p.Data),
		}}
	}

	msg, err := d.remote.ExecuteWebhook(ctx, webhook.ID, webhook.Token, params)
	if err != nil {
		return nil, err
	}
	return &DeliveryOutcome{Messages: []*discordgo.Message{msg}}, nil
}

// findOrCreateWebhook looks up the reserved bridge webhook on a channel,
// creating it if absent. Concurrent calls may race to create duplicates;
// this is accepted rather than locked against.
func (d *DiscordClient) findOrCreateWebhook(ctx context.Context, channelID string) (*discordgo.Webhook, error) {
	name := d.connector.Config.WebhookName
	if name == "" {
		name = defaultWebhookName
	}
	webhooks, err := d.remote.ChannelWebhooks(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	for _, wh := range webhooks {
		if wh.Name == name {
			return wh, nil
		}
	}
	webhook, err := d.remote.CreateWebhook(ctx, channelID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return webhook, nil
}

// sendEmbed relays the payload as a synthetic embed with the sending
// identity in the embed author fields. Only bot accounts can render embed
// authorship, which is why the tier precondition requires one.
func (d *DiscordClient) sendEmbed(ctx context.Context, req *deliveryRequest) (*DeliveryOutcome, error) {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    req.identity.DisplayName,
			IconURL: req.identity.AvatarURL,
			URL:     req.identity.HomeID.URI().MatrixToURL(),
		},
	}
	switch p := req.payload.(type) {
	case TextPayload:
		embed.Description = p.Body
	case EmbedPayload:
		embed.Title = p.Title
		embed.Description = p.Description
		if p.ImageURL != "" {
			embed.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
		}
	case FilePayload:
		if p.IsImage {
			embed.Title = p.Filename
			embed.Image = &discordgo.MessageEmbedImage{URL: p.URL}
		} else {
			embed.Description = fmt.Sprintf("Uploaded a file: [%s](%s)", d.Escape(p.Filename), p.URL)
		}
	}
	if req.reply != nil && req.reply.Description != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Replying to", Value: req.reply.AuthorName},
			&discordgo.MessageEmbedField{Name: "Reply text", Value: req.reply.Description},
		)
	}

	msg, err := d.remote.SendMessage(ctx, req.channel.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return nil, err
	}
	return &DeliveryOutcome{Messages: []*discordgo.Message{msg}}, nil
}

// sendPlaintext relays the payload as plain text with the escaped display
// name bold-prefixed. This is the guaranteed last resort; its precondition
// always holds.
func (d *DiscordClient) sendPlaintext(ctx context.Context, req *deliveryRequest) (*DeliveryOutcome, error) {
	name := d.Escape(req.identity.DisplayName)
	var content string
	switch p := req.payload.(type) {
	case TextPayload:
		content = fmt.Sprintf("**%s**: %s", name, p.Body)
	case EmbedPayload:
		if p.ImageURL != "" {
			if p.Title != "" {
				content = fmt.Sprintf("**%s** uploaded a file `%s`: %s", name, d.Escape(p.Title), p.ImageURL)
			} else {
				content = fmt.Sprintf("**%s** uploaded a file: %s", name, p.ImageURL)
			}
		} else {
			content = fmt.Sprintf("**%s**: %s", name, p.Description)
		}
	case FilePayload:
		content = fmt.Sprintf("**%s** uploaded a file `%s`: %s", name, d.Escape(p.Filename), p.URL)
	}
	if req.reply != nil && req.reply.Description != "" {
		content += "\n> " + req.reply.Description
	}

	msg, err := d.remote.SendMessage(ctx, req.channel.ID, &discordgo.MessageSend{Content: content})
	if err != nil {
		return nil, err
	}
	return &DeliveryOutcome{Messages: []*discordgo.Message{msg}}, nil
}

// embedFromPayload converts an EmbedPayload to a Discord embed.
func embedFromPayload(p EmbedPayload) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
	}
	if p.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
	}
	return embed
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

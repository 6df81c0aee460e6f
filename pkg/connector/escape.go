// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"strings"

	"maunium.net/go/mautrix/id"
)

// escapeRoomID is the sentinel room ID that puts the markup parser into
// pass-through rendering mode: no mention or emoji resolution, only
// neutralization of Discord markup metacharacters.
const escapeRoomID = id.RoomID("-1")

// MarkupRenderer is the Matrix markup parser collaborator. It renders a
// Matrix message body into Discord markdown for the given room.
type MarkupRenderer interface {
	RenderPlain(roomID id.RoomID, body string) string
}

// Escape neutralizes Discord markup control characters in text by rendering
// it through the markup parser in pass-through mode. This reuses the same
// escaping rules the bridge trusts for full message bodies, so display names
// and filenames inserted into relayed content cannot be misinterpreted as
// formatting syntax.
func (d *DiscordClient) Escape(text string) string {
	return d.Renderer.RenderPlain(escapeRoomID, text)
}

// discordMarkupEscaper backslash-escapes every Discord markdown
// metacharacter.
var discordMarkupEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`|`, `\|`,
	`>`, `\>`,
)

// DiscordEscaper is the default MarkupRenderer: a plain character escaper
// with no mention handling. The full bridge replaces it with the real
// markup parser.
type DiscordEscaper struct{}

var _ MarkupRenderer = DiscordEscaper{}

func (DiscordEscaper) RenderPlain(_ id.RoomID, body string) string {
	return discordMarkupEscaper.Replace(body)
}

// UserMention is the Matrix-side identity behind a Discord user mention.
type UserMention struct {
	MXID id.UserID
	Name string
}

// ChannelMention is the Matrix-side identity behind a Discord channel mention.
type ChannelMention struct {
	MXID id.RoomID
	Name string
}

// MentionLookups is the callback bundle the markup-parsing collaborator
// needs to resolve Discord mentions into Matrix identities.
type MentionLookups struct {
	GetUser    func(ctx context.Context, userID string) *UserMention
	GetChannel func(ctx context.Context, channelID string) *ChannelMention
	GetEmoji   func(ctx context.Context, name, emojiID string) id.ContentURIString
}

// MentionLookups builds the parser callback bundle for this client. Each
// callback performs an MXID lookup through the bridge runtime plus a
// best-effort display-name resolution; the display name falls back to the
// MXID itself when resolution misses.
func (d *DiscordClient) MentionLookups() *MentionLookups {
	return &MentionLookups{
		GetUser: func(ctx context.Context, userID string) *UserMention {
			if d.Runtime == nil {
				return nil
			}
			mxid, err := d.Runtime.GhostMXID(ctx, userID)
			if err != nil || mxid == "" {
				return nil
			}
			name := string(mxid)
			if user, _ := d.ResolveUser(ctx, userID); user != nil {
				name = d.connector.Config.FormatDisplayname(DisplaynameParams{
					Username:      user.Username,
					GlobalName:    user.GlobalName,
					Discriminator: user.Discriminator,
					Bot:           user.Bot,
				})
			}
			return &UserMention{MXID: mxid, Name: name}
		},
		GetChannel: func(ctx context.Context, channelID string) *ChannelMention {
			if d.Runtime == nil {
				return nil
			}
			mxid, err := d.Runtime.PortalMXID(ctx, channelID)
			if err != nil || mxid == "" {
				return nil
			}
			name := string(mxid)
			if ch, _ := d.ResolveChannel(ctx, MakePortalID(channelID)); ch != nil && ch.Name != "" {
				name = ch.Name
			}
			return &ChannelMention{MXID: mxid, Name: name}
		},
		GetEmoji: func(ctx context.Context, name, emojiID string) id.ContentURIString {
			if d.Runtime == nil {
				return ""
			}
			mxc, err := d.Runtime.CustomEmojiMXC(ctx, name, emojiID)
			if err != nil {
				return ""
			}
			return mxc
		},
	}
}

// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// BridgeRuntime is the home-bridge collaborator: persistent ID mapping,
// custom emoji storage, and ghost presence. The production implementation
// lives in the bridge runtime; this package only consumes it.
type BridgeRuntime interface {
	// GhostMXID returns the Matrix user ID of the ghost for a Discord user.
	GhostMXID(ctx context.Context, discordUserID string) (id.UserID, error)
	// PortalMXID returns the Matrix room ID of the portal for a Discord channel.
	PortalMXID(ctx context.Context, channelID string) (id.RoomID, error)
	// CustomEmojiMXC returns the uploaded mxc URI for a Discord custom emoji.
	CustomEmojiMXC(ctx context.Context, name, emojiID string) (id.ContentURIString, error)
	// SetGhostPresence updates the Matrix presence and status message of the
	// ghost for a Discord user.
	SetGhostPresence(ctx context.Context, discordUserID string, presence event.Presence, statusMsg string) error
}

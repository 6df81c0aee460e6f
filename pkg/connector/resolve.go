// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/bridgev2/networkid"
)

// Resolution misses are signalled with a nil result and a nil error: "not
// found" is a defined answer, not a failure, and is never logged as one.

// userLookup is a single authoritative source for resolving a user ID. A nil
// return means this source does not know the user.
type userLookup func(ctx context.Context, userID string) *discordgo.User

// userLookups returns the lookup sources in priority order: guild membership
// is locally cached and cheap, the relationship list is one small REST call
// (user accounts only), and the per-user network fetch is the last resort.
// First match wins; results from different sources are never merged.
func (d *DiscordClient) userLookups() []userLookup {
	return []userLookup{
		d.lookupGuildMember,
		d.lookupRelationship,
		d.lookupFetch,
	}
}

// ResolveUser maps a Discord user ID to a live user object, or nil if no
// source knows it.
func (d *DiscordClient) ResolveUser(ctx context.Context, userID string) (*discordgo.User, error) {
	for _, lookup := range d.userLookups() {
		if user := lookup(ctx, userID); user != nil {
			return user, nil
		}
	}
	return nil, nil
}

func (d *DiscordClient) lookupGuildMember(_ context.Context, userID string) *discordgo.User {
	for _, guild := range d.remote.Guilds() {
		for _, member := range guild.Members {
			if member.User != nil && member.User.ID == userID {
				return member.User
			}
		}
	}
	return nil
}

func (d *DiscordClient) lookupRelationship(ctx context.Context, userID string) *discordgo.User {
	relationships, err := d.remote.Relationships(ctx)
	if err != nil {
		d.log.Debug().Err(err).Msg("Failed to fetch relationship list")
		return nil
	}
	for _, rel := range relationships {
		if rel.User != nil && rel.User.ID == userID {
			return rel.User
		}
	}
	return nil
}

func (d *DiscordClient) lookupFetch(ctx context.Context, userID string) *discordgo.User {
	user, err := d.remote.FetchUser(ctx, userID)
	if err != nil {
		d.log.Debug().Err(err).Str("user_id", userID).Msg("Network user fetch failed")
		return nil
	}
	return user
}

// ResolveChannel maps a portal ID to a live Discord channel, or nil if the
// ID cannot be resolved. DM-marked IDs resolve the target user and open (or
// reuse) a direct-message channel with them; other IDs are looked up in the
// client's channel cache first and every guild's channel table second.
func (d *DiscordClient) ResolveChannel(ctx context.Context, portalID networkid.PortalID) (*discordgo.Channel, error) {
	if userID, ok := ParseDMPortalID(portalID); ok {
		return d.resolveDMChannel(ctx, userID)
	}

	channelID := ParsePortalID(portalID)
	if ch := d.lookupCachedChannel(channelID); ch != nil {
		return ch, nil
	}
	return d.lookupGuildChannel(channelID), nil
}

func (d *DiscordClient) resolveDMChannel(ctx context.Context, userID string) (*discordgo.Channel, error) {
	user, err := d.ResolveUser(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}
	channel, err := d.remote.OpenDM(ctx, user.ID)
	if err != nil {
		d.log.Debug().Err(err).Str("user_id", user.ID).Msg("Failed to open DM channel")
		return nil, nil
	}
	return channel, nil
}

// lookupCachedChannel checks the client's cached channel table, restricted
// to group-DM and guild text channel kinds.
func (d *DiscordClient) lookupCachedChannel(channelID string) *discordgo.Channel {
	ch := d.remote.CachedChannel(channelID)
	if ch == nil {
		return nil
	}
	switch ch.Type {
	case discordgo.ChannelTypeGroupDM, discordgo.ChannelTypeGuildText:
		return ch
	default:
		return nil
	}
}

// lookupGuildChannel scans every guild's channel table for a text channel
// with the given ID.
func (d *DiscordClient) lookupGuildChannel(channelID string) *discordgo.Channel {
	for _, guild := range d.remote.Guilds() {
		for _, ch := range guild.Channels {
			if ch.ID == channelID && ch.Type == discordgo.ChannelTypeGuildText {
				return ch
			}
		}
	}
	return nil
}

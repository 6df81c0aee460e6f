// Copyright 2024-2026 Aiku AI

package connector

import (
	"sort"

	"github.com/bwmarrin/discordgo"
)

// WalkGuildStructure enumerates a guild's bridgeable channels in display
// order: uncategorized channels first, then channels grouped under their
// categories. onCategory fires at most once per category, lazily, upon the
// first qualifying child; a category with no qualifying children is never
// announced. No channel is visited twice.
//
// A channel qualifies when it is a text channel, the acting account can view
// it, and the allowlist admits it (its guild fully bridged or the channel
// individually listed).
func (d *DiscordClient) WalkGuildStructure(guild *discordgo.Guild, allowlist Allowlist, onCategory, onChannel func(*discordgo.Channel)) {
	var uncategorized, categories []*discordgo.Channel
	children := make(map[string][]*discordgo.Channel)
	for _, ch := range guild.Channels {
		switch {
		case ch.Type == discordgo.ChannelTypeGuildCategory:
			categories = append(categories, ch)
		case ch.ParentID == "":
			uncategorized = append(uncategorized, ch)
		default:
			children[ch.ParentID] = append(children[ch.ParentID], ch)
		}
	}
	sortByDisplayOrder(uncategorized)
	sortByDisplayOrder(categories)

	for _, ch := range uncategorized {
		if d.channelQualifies(guild, ch, allowlist) {
			onChannel(ch)
		}
	}

	for _, category := range categories {
		if !d.remote.HasChannelAccess(category.ID) {
			continue
		}
		kids := children[category.ID]
		sortByDisplayOrder(kids)
		announced := false
		for _, ch := range kids {
			if !d.channelQualifies(guild, ch, allowlist) {
				continue
			}
			if !announced {
				onCategory(category)
				announced = true
			}
			onChannel(ch)
		}
	}
}

// channelQualifies applies the kind, membership, and allowlist filters.
func (d *DiscordClient) channelQualifies(guild *discordgo.Guild, ch *discordgo.Channel, allowlist Allowlist) bool {
	if ch.Type != discordgo.ChannelTypeGuildText {
		return false
	}
	if !d.remote.HasChannelAccess(ch.ID) {
		return false
	}
	return allowlist.IsGuildBridged(guild.ID) || allowlist.IsChannelBridged(ch.ID)
}

// sortByDisplayOrder sorts channels the way Discord displays them: by
// position, with the ID as a stable tiebreaker.
func sortByDisplayOrder(channels []*discordgo.Channel) {
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}
		return channels[i].ID < channels[j].ID
	})
}

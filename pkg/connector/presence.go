// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/event"
)

// translatePresence maps a Discord presence to the Matrix three-state
// presence model plus a free-text status line. The status set is closed;
// an unmapped value is a programmer error, not a runtime condition.
func translatePresence(presence *discordgo.Presence) (event.Presence, string) {
	var home event.Presence
	switch presence.Status {
	case discordgo.StatusOnline:
		home = event.PresenceOnline
	case discordgo.StatusIdle, discordgo.StatusDoNotDisturb:
		home = event.PresenceUnavailable
	case discordgo.StatusOffline, discordgo.StatusInvisible:
		home = event.PresenceOffline
	default:
		panic(fmt.Sprintf("unmapped Discord presence status %q", presence.Status))
	}

	// First activity producing a non-empty line wins; later activities are
	// not consulted once one has. A leading activity that renders empty
	// falls through to the next.
	var statusLine string
	for _, activity := range presence.Activities {
		if statusLine != "" {
			break
		}
		statusLine = renderActivity(activity)
	}
	return home, statusLine
}

// renderActivity builds the status line for one activity: the capitalized
// activity verb plus name for regular activities, or the emoji and state
// text for custom statuses.
func renderActivity(activity *discordgo.Activity) string {
	if activity == nil {
		return ""
	}
	if activity.Type == discordgo.ActivityTypeCustom {
		parts := make([]string, 0, 2)
		if activity.Emoji.Name != "" {
			parts = append(parts, activity.Emoji.Name)
		}
		if activity.State != "" {
			parts = append(parts, activity.State)
		}
		return strings.Join(parts, " ")
	}
	if activity.Name == "" {
		return ""
	}
	return activityVerb(activity.Type) + " " + activity.Name
}

// activityVerb returns Discord's display verb for an activity category.
func activityVerb(t discordgo.ActivityType) string {
	switch t {
	case discordgo.ActivityTypeGame:
		return "Playing"
	case discordgo.ActivityTypeStreaming:
		return "Streaming"
	case discordgo.ActivityTypeListening:
		return "Listening to"
	case discordgo.ActivityTypeWatching:
		return "Watching"
	case discordgo.ActivityTypeCompeting:
		return "Competing in"
	default:
		return "Playing"
	}
}

// UpdateRemotePresence translates a Discord presence update and applies it
// to the corresponding ghost through the bridge runtime. An absent presence
// or absent user is a no-op, not an error.
func (d *DiscordClient) UpdateRemotePresence(ctx context.Context, presence *discordgo.Presence) error {
	if presence == nil || presence.User == nil || d.Runtime == nil {
		return nil
	}
	home, statusLine := translatePresence(presence)
	if err := d.Runtime.SetGhostPresence(ctx, presence.User.ID, home, statusLine); err != nil {
		return fmt.Errorf("failed to set ghost presence: %w", err)
	}
	return nil
}

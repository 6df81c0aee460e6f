// Copyright 2024-2026 Aiku AI

package connector

import (
	"strings"

	"maunium.net/go/mautrix/bridgev2/networkid"
)

// dmPortalPrefix marks portal IDs that refer to a direct-message channel
// with a user rather than a guild channel. The remainder of the ID is the
// Discord user ID to open the DM with.
const dmPortalPrefix = "dm-"

// MakePortalID creates a networkid.PortalID from a Discord channel ID.
func MakePortalID(channelID string) networkid.PortalID {
	return networkid.PortalID(channelID)
}

// MakeDMPortalID creates a networkid.PortalID referring to a direct-message
// channel with the given Discord user.
func MakeDMPortalID(userID string) networkid.PortalID {
	return networkid.PortalID(dmPortalPrefix + userID)
}

// ParsePortalID extracts the Discord channel ID from a PortalID.
func ParsePortalID(portalID networkid.PortalID) string {
	return string(portalID)
}

// ParseDMPortalID extracts the Discord user ID from a DM-marked PortalID.
// The second return is false if the ID does not carry the DM marker.
func ParseDMPortalID(portalID networkid.PortalID) (string, bool) {
	return strings.CutPrefix(string(portalID), dmPortalPrefix)
}

// MakeUserID creates a networkid.UserID from a Discord user ID.
func MakeUserID(userID string) networkid.UserID {
	return networkid.UserID(userID)
}

// ParseUserID extracts the Discord user ID from a networkid.UserID.
func ParseUserID(userID networkid.UserID) string {
	return string(userID)
}

// MakeUserLoginID creates a UserLoginID from a Discord user ID.
func MakeUserLoginID(userID string) networkid.UserLoginID {
	return networkid.UserLoginID(userID)
}

// ParseUserLoginID extracts the Discord user ID from a UserLoginID.
func ParseUserLoginID(loginID networkid.UserLoginID) string {
	return string(loginID)
}

// MakeMessageID creates a networkid.MessageID from a Discord message ID.
func MakeMessageID(messageID string) networkid.MessageID {
	return networkid.MessageID(messageID)
}

// ParseMessageID extracts the Discord message ID from a MessageID.
func ParseMessageID(messageID networkid.MessageID) string {
	return string(messageID)
}


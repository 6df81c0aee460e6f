// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"

	"maunium.net/go/mautrix/bridgev2"
	"maunium.net/go/mautrix/bridgev2/database"
)

// defaultWebhookName is the reserved webhook name used when the config does
// not override it. Matches what other Matrix-Discord bridges create, so an
// existing webhook is reused instead of duplicated.
const defaultWebhookName = "_matrix"

// DiscordConnector implements bridgev2.NetworkConnector for Discord.
type DiscordConnector struct {
	Bridge *bridgev2.Bridge
	Config Config

	allowlist Allowlist
}

var _ bridgev2.NetworkConnector = (*DiscordConnector)(nil)

func (dc *DiscordConnector) Init(bridge *bridgev2.Bridge) {
	dc.Bridge = bridge
}

func (dc *DiscordConnector) Start(_ context.Context) error {
	if err := dc.Config.PostProcess(); err != nil {
		return fmt.Errorf("failed to post-process config: %w", err)
	}
	dc.allowlist = dc.Config.Bridging.Allowlist()
	return nil
}

// Allowlist returns the bridge-membership allowlist built from config.
// Valid after Start.
func (dc *DiscordConnector) Allowlist() Allowlist {
	return dc.allowlist
}

func (dc *DiscordConnector) LoadUserLogin(_ context.Context, login *bridgev2.UserLogin) error {
	login.Client = NewDiscordClient(login, dc)
	return nil
}

func (dc *DiscordConnector) GetName() bridgev2.BridgeName {
	return bridgev2.BridgeName{
		DisplayName:      "Discord",
		NetworkURL:       "https://discord.com",
		NetworkIcon:      "mxc://maunium.net/nIdEykemnwdisvHbpxflpDlC",
		NetworkID:        "discord",
		BeeperBridgeType: "discord",
		DefaultPort:      29334,
	}
}

func (dc *DiscordConnector) GetDBMetaTypes() database.MetaTypes {
	return database.MetaTypes{
		UserLogin: func() any {
			return &UserLoginMetadata{}
		},
	}
}

func (dc *DiscordConnector) GetCapabilities() *bridgev2.NetworkGeneralCapabilities {
	return &bridgev2.NetworkGeneralCapabilities{
		DisappearingMessages: false,
		AggressiveUpdateInfo: false,
	}
}

func (dc *DiscordConnector) GetBridgeInfoVersion() (info, capabilities int) {
	return 1, 1
}

// UserLoginMetadata stores Discord-specific login data.
type UserLoginMetadata struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	// IsBot records whether the token belongs to a bot application. Bot
	// accounts can render embed authorship and native replies; user tokens
	// cannot, which changes the delivery fallback chain.
	IsBot bool `json:"is_bot"`
}

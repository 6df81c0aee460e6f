// Copyright 2024-2026 Aiku AI

// Command mautrix-discord is a Matrix-Discord bridge built on the mautrix
// bridgev2 framework. Its delivery core relays Matrix messages to Discord
// through the best available mechanism for preserving authorship: a channel
// webhook wearing the sender's name and avatar, an embed with the sender in
// the author fields, or a name-prefixed plain-text message as the last
// resort.
package main

import (
	"github.com/aiku/mautrix-discord/pkg/connector"
	"maunium.net/go/mautrix/bridgev2/matrix/mxmain"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var m = mxmain.BridgeMain{
	Name:        "mautrix-discord",
	URL:         "https://github.com/aiku/mautrix-discord",
	Description: "A Matrix-Discord bridge",
	Version:     "0.1.0",

	Connector: &connector.DiscordConnector{},
}

func main() {
	m.Run()
}

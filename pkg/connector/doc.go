// Copyright 2024-2026 Aiku AI

// Package connector implements the Discord side of a Matrix-Discord bridge
// using the mautrix bridgev2 framework.
//
// The core of the package is the outbound delivery strategist: given a
// message payload and an optional sending identity (the Matrix user who
// authored it), it picks the best available Discord mechanism to deliver the
// message while preserving authorship attribution. Four mechanisms are tried
// in strict priority order: direct send (no relay needed), webhook relay
// (name and avatar substituted on the webhook), embed relay (authorship in
// embed author fields, bot accounts only), and prefixed plain text (the
// guaranteed last resort). Delivery quality degrades silently; only
// transport-level failures propagate to the caller.
//
// # Core Types
//
// [DiscordConnector] implements [bridgev2.NetworkConnector] and manages the
// bridge lifecycle and configuration.
//
// [DiscordClient] represents an authenticated Discord session. It owns the
// delivery strategist, the channel and user resolvers, presence translation,
// and the guild structure walker.
//
// [MessagePayload] is the closed union of deliverable content: plain text,
// a rich embed, or a file attachment.
//
// # Collaborators
//
// Inbound event handling, persistent ID mapping, and markup rendering live
// outside this package. They are consumed through narrow interfaces:
// [BridgeRuntime] for MXID/presence/emoji lookups and [MarkupRenderer] for
// the Matrix markup parser used by [DiscordClient.Escape].
package connector

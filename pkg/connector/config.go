// Copyright 2024-2026 Aiku AI

package connector

import (
	_ "embed"
	"text/template"

	up "go.mau.fi/util/configupgrade"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config holds the Discord connector configuration.
type Config struct {
	DisplaynameTemplate string `yaml:"displayname_template"`
	// WebhookName is the reserved name of the webhook the bridge looks up
	// or creates on guild channels for relayed messages. All bridge
	// instances sharing a channel must agree on it.
	WebhookName string `yaml:"webhook_name"`

	Bridging BridgingConfig `yaml:"bridging"`

	displaynameTemplate *template.Template `yaml:"-"`
}

// BridgingConfig is the allowlist of what gets bridged: whole guilds or
// individual channels. A channel is eligible iff its guild is listed in
// Guilds or its own ID is listed in Channels.
type BridgingConfig struct {
	Guilds   []string `yaml:"guilds"`
	Channels []string `yaml:"channels"`
}

// Allowlist answers bridge-membership questions for guilds and channels.
type Allowlist interface {
	IsGuildBridged(guildID string) bool
	IsChannelBridged(channelID string) bool
}

// staticAllowlist is the config-backed Allowlist implementation.
type staticAllowlist struct {
	guilds   map[string]struct{}
	channels map[string]struct{}
}

func (a *staticAllowlist) IsGuildBridged(guildID string) bool {
	_, ok := a.guilds[guildID]
	return ok
}

func (a *staticAllowlist) IsChannelBridged(channelID string) bool {
	_, ok := a.channels[channelID]
	return ok
}

// Allowlist builds an Allowlist from the configured guild and channel IDs.
func (b *BridgingConfig) Allowlist() Allowlist {
	al := &staticAllowlist{
		guilds:   make(map[string]struct{}, len(b.Guilds)),
		channels: make(map[string]struct{}, len(b.Channels)),
	}
	for _, g := range b.Guilds {
		al.guilds[g] = struct{}{}
	}
	for _, c := range b.Channels {
		al.channels[c] = struct{}{}
	}
	return al
}

// DisplaynameParams holds the parameters for rendering the displayname template.
type DisplaynameParams struct {
	Username      string
	GlobalName    string
	Discriminator string
	Bot           bool
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

func (c *Config) PostProcess() error {
	if c.WebhookName == "" {
		c.WebhookName = defaultWebhookName
	}
	var err error
	c.displaynameTemplate, err = template.New("displayname").Parse(c.DisplaynameTemplate)
	return err
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "displayname_template")
	helper.Copy(up.Str, "webhook_name")
	helper.Copy(up.List, "bridging", "guilds")
	helper.Copy(up.List, "bridging", "channels")
}

func (dc *DiscordConnector) GetConfig() (example string, data any, upgrader up.Upgrader) {
	return ExampleConfig, &dc.Config, &up.StructUpgrader{
		SimpleUpgrader: up.SimpleUpgrader(upgradeConfig),
		Blocks:         nil,
		Base:           ExampleConfig,
	}
}

// FormatDisplayname generates a display name from the template and params.
func (c *Config) FormatDisplayname(params DisplaynameParams) string {
	if c.displaynameTemplate == nil {
		return params.Username
	}
	var buf []byte
	err := c.displaynameTemplate.Execute(
		(*templateBuffer)(&buf),
		params,
	)
	if err != nil {
		return params.Username
	}
	return string(buf)
}

// templateBuffer is a simple io.Writer that appends to a byte slice.
type templateBuffer []byte

func (b *templateBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

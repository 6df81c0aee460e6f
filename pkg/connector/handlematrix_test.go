// Copyright 2024-2026 Aiku AI

package connector

import (
	"testing"

	"maunium.net/go/mautrix/bridgev2"
	"maunium.net/go/mautrix/bridgev2/database"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

func TestIdentityFromOrigSender_Nil(t *testing.T) {
	if got := identityFromOrigSender(nil); got != nil {
		t.Errorf("got %+v, want nil for the bridge's own login", got)
	}
}

func TestIdentityFromOrigSender_DisplaynameFallback(t *testing.T) {
	sender := &bridgev2.OrigSender{UserID: "@alice:example.com"}
	identity := identityFromOrigSender(sender)
	if identity == nil {
		t.Fatal("got nil identity")
	}
	if identity.DisplayName != "@alice:example.com" {
		t.Errorf("display name: got %q, want the mxid fallback", identity.DisplayName)
	}
	if identity.HomeID != "@alice:example.com" {
		t.Errorf("home ID: got %q", identity.HomeID)
	}
}

func TestIdentityFromOrigSender_ProfileFields(t *testing.T) {
	sender := &bridgev2.OrigSender{
		UserID: "@alice:example.com",
		MemberEventContent: event.MemberEventContent{
			Displayname: "Alice",
			AvatarURL:   "https://example.com/a.png",
		},
	}
	identity := identityFromOrigSender(sender)
	if identity.DisplayName != "Alice" {
		t.Errorf("display name: got %q", identity.DisplayName)
	}
	if identity.AvatarURL != "https://example.com/a.png" {
		t.Errorf("avatar: got %q", identity.AvatarURL)
	}
}

func TestHTTPAvatarURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/a.png", "https://example.com/a.png"},
		{"http://example.com/a.png", "http://example.com/a.png"},
		{"mxc://example.com/abcdef", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := httpAvatarURL(id.ContentURIString(tt.in)); got != tt.want {
			t.Errorf("httpAvatarURL(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReplyFromMessage(t *testing.T) {
	if got := replyFromMessage(guildTextChannel("chan1"), nil); got != nil {
		t.Errorf("got %+v, want nil without a reply target", got)
	}

	reply := replyFromMessage(guildTextChannel("chan1"), &database.Message{ID: MakeMessageID("m9")})
	if reply == nil || reply.NativeRef == nil {
		t.Fatal("expected a native reference")
	}
	if reply.NativeRef.MessageID != "m9" || reply.NativeRef.ChannelID != "chan1" {
		t.Errorf("reference: %+v", reply.NativeRef)
	}
}

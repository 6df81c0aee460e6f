// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/event"
)

func TestTranslatePresence_StatusMapping(t *testing.T) {
	tests := []struct {
		status discordgo.Status
		want   event.Presence
	}{
		{discordgo.StatusOnline, event.PresenceOnline},
		{discordgo.StatusIdle, event.PresenceUnavailable},
		{discordgo.StatusDoNotDisturb, event.PresenceUnavailable},
		{discordgo.StatusOffline, event.PresenceOffline},
	}
	for _, tt := range tests {
		got, _ := translatePresence(&discordgo.Presence{Status: tt.status})
		if got != tt.want {
			t.Errorf("translatePresence(%q): got %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTranslatePresence_UnknownStatusPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unmapped status")
		}
	}()
	translatePresence(&discordgo.Presence{Status: "astral-projection"})
}

func TestTranslatePresence_ActivityStatusLine(t *testing.T) {
	tests := []struct {
		name       string
		activities []*discordgo.Activity
		want       string
	}{
		{
			"game activity",
			[]*discordgo.Activity{{Type: discordgo.ActivityTypeGame, Name: "Rocket League"}},
			"Playing Rocket League",
		},
		{
			"listening activity",
			[]*discordgo.Activity{{Type: discordgo.ActivityTypeListening, Name: "Spotify"}},
			"Listening to Spotify",
		},
		{
			"custom status with emoji and state",
			[]*discordgo.Activity{{
				Type:  discordgo.ActivityTypeCustom,
				Emoji: discordgo.Emoji{Name: "\U0001f3ae"},
				State: "Playing",
			}},
			"\U0001f3ae Playing",
		},
		{
			"custom status with state only",
			[]*discordgo.Activity{{Type: discordgo.ActivityTypeCustom, State: "busy"}},
			"busy",
		},
		{
			"custom status with emoji only",
			[]*discordgo.Activity{{Type: discordgo.ActivityTypeCustom, Emoji: discordgo.Emoji{Name: "☕"}}},
			"☕",
		},
		{
			"no activities",
			nil,
			"",
		},
		{
			"empty leading activity falls through",
			[]*discordgo.Activity{
				{Type: discordgo.ActivityTypeGame, Name: ""},
				{Type: discordgo.ActivityTypeWatching, Name: "a movie"},
			},
			"Watching a movie",
		},
		{
			"first non-empty wins",
			[]*discordgo.Activity{
				{Type: discordgo.ActivityTypeGame, Name: "First"},
				{Type: discordgo.ActivityTypeGame, Name: "Second"},
			},
			"Playing First",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := translatePresence(&discordgo.Presence{
				Status:     discordgo.StatusOnline,
				Activities: tt.activities,
			})
			if got != tt.want {
				t.Errorf("status line: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateRemotePresence_AppliesToGhost(t *testing.T) {
	client, _ := newTestClient(newFakeRemote(), true)
	runtime := newFakeRuntime()
	client.Runtime = runtime

	err := client.UpdateRemotePresence(context.Background(), &discordgo.Presence{
		User:   &discordgo.User{ID: "u1"},
		Status: discordgo.StatusIdle,
		Activities: []*discordgo.Activity{
			{Type: discordgo.ActivityTypeGame, Name: "chess"},
		},
	})
	if err != nil {
		t.Fatalf("UpdateRemotePresence: %v", err)
	}
	call, ok := runtime.presences["u1"]
	if !ok {
		t.Fatal("presence was not applied")
	}
	if call.Presence != event.PresenceUnavailable {
		t.Errorf("presence: got %q, want %q", call.Presence, event.PresenceUnavailable)
	}
	if call.Status != "Playing chess" {
		t.Errorf("status: got %q, want %q", call.Status, "Playing chess")
	}
}

func TestUpdateRemotePresence_AbsentInputsAreNoOps(t *testing.T) {
	client, _ := newTestClient(newFakeRemote(), true)
	runtime := newFakeRuntime()
	client.Runtime = runtime

	if err := client.UpdateRemotePresence(context.Background(), nil); err != nil {
		t.Errorf("nil presence: %v", err)
	}
	if err := client.UpdateRemotePresence(context.Background(), &discordgo.Presence{Status: discordgo.StatusOnline}); err != nil {
		t.Errorf("nil user: %v", err)
	}
	if len(runtime.presences) != 0 {
		t.Errorf("presence applied on no-op input: %+v", runtime.presences)
	}
}

// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.mau.fi/util/ptr"
	"maunium.net/go/mautrix/bridgev2"
	"maunium.net/go/mautrix/bridgev2/database"
	"maunium.net/go/mautrix/bridgev2/networkid"
	"maunium.net/go/mautrix/event"
)

// channelToChatInfo converts a Discord channel to a bridgev2.ChatInfo.
func (d *DiscordClient) channelToChatInfo(channel *discordgo.Channel) *bridgev2.ChatInfo {
	chatInfo := &bridgev2.ChatInfo{}

	switch channel.Type {
	case discordgo.ChannelTypeDM:
		chatInfo.Type = ptr.Ptr(database.RoomTypeDM)
		chatInfo.Members = recipientsToChatMembers(channel.Recipients)
		for _, recipient := range channel.Recipients {
			if recipient.ID != d.userID {
				chatInfo.Members.OtherUserID = MakeUserID(recipient.ID)
				break
			}
		}
	case discordgo.ChannelTypeGroupDM:
		chatInfo.Type = ptr.Ptr(database.RoomTypeGroupDM)
		chatInfo.Members = recipientsToChatMembers(channel.Recipients)
		if channel.Name != "" {
			chatInfo.Name = ptr.Ptr(channel.Name)
		}
	default:
		chatInfo.Type = ptr.Ptr(database.RoomTypeDefault)
		chatInfo.Name = ptr.Ptr(channel.Name)
		if channel.Topic != "" {
			chatInfo.Topic = ptr.Ptr(channel.Topic)
		}
	}

	return chatInfo
}

// recipientsToChatMembers converts DM recipients to a bridgev2 member list.
func recipientsToChatMembers(recipients []*discordgo.User) *bridgev2.ChatMemberList {
	memberMap := make(map[networkid.UserID]bridgev2.ChatMember, len(recipients))
	for _, recipient := range recipients {
		memberMap[MakeUserID(recipient.ID)] = bridgev2.ChatMember{
			EventSender: bridgev2.EventSender{
				Sender: MakeUserID(recipient.ID),
			},
			Membership: event.MembershipJoin,
		}
	}
	return &bridgev2.ChatMemberList{
		IsFull:           true,
		TotalMemberCount: len(recipients),
		MemberMap:        memberMap,
	}
}

// userToUserInfo converts a Discord user to a bridgev2.UserInfo.
func (d *DiscordClient) userToUserInfo(user *discordgo.User) *bridgev2.UserInfo {
	name := d.connector.Config.FormatDisplayname(DisplaynameParams{
		Username:      user.Username,
		GlobalName:    user.GlobalName,
		Discriminator: user.Discriminator,
		Bot:           user.Bot,
	})

	info := &bridgev2.UserInfo{
		Identifiers: []string{
			fmt.Sprintf("discord:%s", user.ID),
		},
		Name: &name,
	}

	if user.Avatar != "" {
		avatarURL := user.AvatarURL("")
		info.Avatar = &bridgev2.Avatar{
			ID:  networkid.AvatarID(user.Avatar),
			Get: func(ctx context.Context) ([]byte, error) { return fetchURL(ctx, avatarURL) },
		}
	}

	return info
}

// fetchURL downloads a CDN resource. Discord avatars are plain public URLs,
// so no API client involvement is needed.
func fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching avatar", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/bridgev2"
	"maunium.net/go/mautrix/bridgev2/database"
)

// GetLoginFlows returns the available login methods for the bridge.
func (dc *DiscordConnector) GetLoginFlows() []bridgev2.LoginFlow {
	return []bridgev2.LoginFlow{
		{
			Name:        "Token",
			Description: "Log in with a Discord bot or user token",
			ID:          "token",
		},
	}
}

// CreateLogin starts a new login process for the given flow.
func (dc *DiscordConnector) CreateLogin(_ context.Context, user *bridgev2.User, flowID string) (bridgev2.LoginProcess, error) {
	if flowID != "token" {
		return nil, fmt.Errorf("unknown login flow: %s", flowID)
	}
	return &TokenLoginProcess{
		connector: dc,
		user:      user,
	}, nil
}

// TokenLoginProcess implements token-based login.
type TokenLoginProcess struct {
	connector *DiscordConnector
	user      *bridgev2.User
}

var _ bridgev2.LoginProcessUserInput = (*TokenLoginProcess)(nil)

func (t *TokenLoginProcess) Start(_ context.Context) (*bridgev2.LoginStep, error) {
	return &bridgev2.LoginStep{
		Type:         bridgev2.LoginStepTypeUserInput,
		StepID:       "fi.mau.discord.login.token",
		Instructions: "Enter your Discord bot token (or user token)",
		UserInputParams: &bridgev2.LoginUserInputParams{
			Fields: []bridgev2.LoginInputDataField{
				{
					Type: bridgev2.LoginInputFieldTypePassword,
					ID:   "token",
					Name: "Token",
				},
			},
		},
	}, nil
}

func (t *TokenLoginProcess) SubmitUserInput(ctx context.Context, input map[string]string) (*bridgev2.LoginStep, error) {
	token := input["token"]
	me, isBot, err := validateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	loginID := MakeUserLoginID(me.ID)
	ul, err := t.user.NewLogin(ctx, &database.UserLogin{
		ID:         loginID,
		RemoteName: me.Username,
	}, &bridgev2.NewLoginParams{
		LoadUserLogin: t.connector.LoadUserLogin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create login: %w", err)
	}

	meta := ul.Metadata.(*UserLoginMetadata)
	meta.Token = token
	meta.UserID = me.ID
	meta.IsBot = isBot
	if err := ul.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save login: %w", err)
	}

	client := ul.Client.(*DiscordClient)
	session, err := discordgo.New(sessionToken(token, isBot))
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}
	client.session = session
	client.remote = &sessionRemote{session: session}
	client.userID = me.ID
	client.isBot = isBot
	client.Connect(ctx)

	return &bridgev2.LoginStep{
		Type:         bridgev2.LoginStepTypeComplete,
		StepID:       "fi.mau.discord.login.complete",
		Instructions: fmt.Sprintf("Logged in as %s", me.Username),
		CompleteParams: &bridgev2.LoginCompleteParams{
			UserLoginID: loginID,
			UserLogin:   ul,
		},
	}, nil
}

func (t *TokenLoginProcess) Cancel() {}

// validateToken authenticates the token against the REST API and reports
// whether it belongs to a bot application. Bot authentication is attempted
// first; tokens that fail it are retried as user tokens.
func validateToken(ctx context.Context, token string) (*discordgo.User, bool, error) {
	me, err := fetchSelf(ctx, "Bot "+token)
	if err == nil {
		return me, true, nil
	}
	me, userErr := fetchSelf(ctx, token)
	if userErr == nil {
		return me, false, nil
	}
	return nil, false, err
}

// fetchSelf builds a throwaway session for the given formatted token and
// fetches the acting account.
func fetchSelf(ctx context.Context, formattedToken string) (*discordgo.User, error) {
	session, err := discordgo.New(formattedToken)
	if err != nil {
		return nil, err
	}
	return session.User("@me", discordgo.WithContext(ctx))
}

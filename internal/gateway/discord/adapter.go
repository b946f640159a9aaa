// Package discord implements gateway.Gateway on top of discordgo.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"studyhub-bot/internal/gateway"
)

const memberPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Adapter wraps a discordgo session behind the gateway contract.
type Adapter struct {
	session *discordgo.Session
}

func NewAdapter(token string) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	return &Adapter{session: session}, nil
}

// Open connects to the Discord gateway; Close disconnects.
func (a *Adapter) Open() error  { return a.session.Open() }
func (a *Adapter) Close() error { return a.session.Close() }

func (a *Adapter) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (a *Adapter) SendMessageWithButtons(ctx context.Context, channelID, content string, buttons []gateway.Button) (string, error) {
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		btn := discordgo.Button{
			Label:    b.Label,
			Style:    discordgo.PrimaryButton,
			CustomID: b.CustomID,
		}
		if b.Emoji != "" {
			btn.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
		}
		row.Components = append(row.Components, btn)
	}
	msg, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Components: []discordgo.MessageComponent{row},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (a *Adapter) ClearButtons(ctx context.Context, channelID, messageID string) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	empty := []discordgo.MessageComponent{}
	edit.Components = &empty
	_, err := a.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) React(ctx context.Context, channelID, messageID, emoji string) error {
	return a.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (a *Adapter) ReactionCount(ctx context.Context, channelID, messageID, emoji string) (int, error) {
	msg, err := a.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	for _, r := range msg.Reactions {
		if r.Emoji != nil && r.Emoji.Name == emoji {
			return r.Count, nil
		}
	}
	return 0, nil
}

func (a *Adapter) CreatePrivateChannel(ctx context.Context, guildID, name, parentID string, memberIDs, roleIDs []string) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone shares its id with the guild
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
	}
	for _, id := range memberIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPermissions,
		})
	}
	for _, id := range roleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberPermissions,
		})
	}

	channel, err := a.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return channel.ID, nil
}

func (a *Adapter) GrantChannelAccess(ctx context.Context, channelID, userID string) error {
	return a.session.ChannelPermissionSet(channelID, userID,
		discordgo.PermissionOverwriteTypeMember, memberPermissions, 0,
		discordgo.WithContext(ctx))
}

func (a *Adapter) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := a.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) FindCategory(ctx context.Context, guildID, name string) (string, error) {
	channels, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == name {
			return ch.ID, nil
		}
	}
	return "", nil
}

func (a *Adapter) FindRole(ctx context.Context, guildID, name string) (string, error) {
	roles, err := a.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if role.Name == name {
			return role.ID, nil
		}
	}
	return "", nil
}

func (a *Adapter) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *Adapter) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *Adapter) MemberHasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	member, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, err
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

var _ gateway.Gateway = (*Adapter)(nil)

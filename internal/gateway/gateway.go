// Package gateway defines the contract between the bot's managers and the
// chat platform: typed inbound events and the outbound side-effecting
// operations the managers need. Production uses the discord implementation;
// tests substitute gatewaytest.Fake.
package gateway

import "context"

// Button is a clickable affordance attached to a message. CustomID comes
// back verbatim in the ButtonClicked event.
type Button struct {
	CustomID string
	Label    string
	Emoji    string
}

// MessageCreated is delivered for every inbound guild message.
type MessageCreated struct {
	GuildID    string
	ChannelID  string
	MessageID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
	HasMedia   bool // message carries attachments or embedded content
}

// ReactionChanged is delivered on reaction add or remove. It carries no
// count: consumers re-read the authoritative total via ReactionCount.
type ReactionChanged struct {
	GuildID   string
	ChannelID string
	MessageID string
	Emoji     string
	Removed   bool
}

// ButtonClicked is delivered when a user clicks a message button.
type ButtonClicked struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	UserName  string
	CustomID  string
}

// Gateway exposes the outbound operations consumed by the quiz and contest
// managers. Implementations must be safe for concurrent use.
type Gateway interface {
	// SendMessage posts content to a channel and returns the message id.
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	// SendMessageWithButtons posts content with a row of buttons.
	SendMessageWithButtons(ctx context.Context, channelID, content string, buttons []Button) (string, error)
	// ClearButtons removes all buttons from a previously sent message.
	ClearButtons(ctx context.Context, channelID, messageID string) error
	// React adds an emoji reaction to a message.
	React(ctx context.Context, channelID, messageID, emoji string) error
	// ReactionCount reads the current total count for one emoji on a message.
	ReactionCount(ctx context.Context, channelID, messageID, emoji string) (int, error)

	// CreatePrivateChannel creates a text channel under parentID visible only
	// to the given members and roles, returning the channel id.
	CreatePrivateChannel(ctx context.Context, guildID, name, parentID string, memberIDs, roleIDs []string) (string, error)
	// GrantChannelAccess makes a channel visible and writable for a member.
	GrantChannelAccess(ctx context.Context, channelID, userID string) error
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error

	// FindCategory resolves a guild category by name; "" when absent.
	FindCategory(ctx context.Context, guildID, name string) (string, error)
	// FindRole resolves a guild role by name; "" when absent.
	FindRole(ctx context.Context, guildID, name string) (string, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	MemberHasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
}

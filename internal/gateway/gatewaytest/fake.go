// Package gatewaytest provides a recording in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"studyhub-bot/internal/gateway"
)

// SentMessage records one SendMessage/SendMessageWithButtons call.
type SentMessage struct {
	ChannelID string
	MessageID string
	Content   string
	Buttons   []gateway.Button
}

// Fake is an in-memory gateway.Gateway that records every side effect and
// lets tests preconfigure guild state (categories, roles, reaction counts).
type Fake struct {
	mu sync.Mutex

	Categories map[string]string // name -> id
	Roles      map[string]string // name -> id

	// Err, when set, is returned by every operation.
	Err error

	Sent            []SentMessage
	Reactions       []string // "channel/message/emoji"
	Counts          map[string]int
	Channels        map[string]string // id -> name, live channels
	Deleted         []string
	Renames         map[string]string
	Granted         []string // "channel/user"
	RolesAdded      []string // "guild/user/role"
	RolesRemoved    []string
	MemberRoles     map[string]bool // "guild/user/role" -> held
	ClearedButtons  []string        // "channel/message"
	nextID          int
	CreatedChannels []string
}

func New() *Fake {
	return &Fake{
		Categories:  map[string]string{},
		Roles:       map[string]string{},
		Counts:      map[string]int{},
		Channels:    map[string]string{},
		Renames:     map[string]string{},
		MemberRoles: map[string]bool{},
	}
}

func (f *Fake) nextMessageID() string {
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID)
}

func (f *Fake) SendMessage(_ context.Context, channelID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	id := f.nextMessageID()
	f.Sent = append(f.Sent, SentMessage{ChannelID: channelID, MessageID: id, Content: content})
	return id, nil
}

func (f *Fake) SendMessageWithButtons(_ context.Context, channelID, content string, buttons []gateway.Button) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	id := f.nextMessageID()
	f.Sent = append(f.Sent, SentMessage{ChannelID: channelID, MessageID: id, Content: content, Buttons: buttons})
	return id, nil
}

func (f *Fake) ClearButtons(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.ClearedButtons = append(f.ClearedButtons, channelID+"/"+messageID)
	return nil
}

func (f *Fake) React(_ context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Reactions = append(f.Reactions, channelID+"/"+messageID+"/"+emoji)
	return nil
}

func (f *Fake) ReactionCount(_ context.Context, channelID, messageID, emoji string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Counts[channelID+"/"+messageID+"/"+emoji], nil
}

// SetReactionCount preconfigures the authoritative count a resync will read.
func (f *Fake) SetReactionCount(channelID, messageID, emoji string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Counts[channelID+"/"+messageID+"/"+emoji] = count
}

func (f *Fake) CreatePrivateChannel(_ context.Context, _, name, _ string, _, _ []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.nextID++
	id := fmt.Sprintf("chan-%d", f.nextID)
	f.Channels[id] = name
	f.CreatedChannels = append(f.CreatedChannels, id)
	return id, nil
}

func (f *Fake) GrantChannelAccess(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Granted = append(f.Granted, channelID+"/"+userID)
	return nil
}

func (f *Fake) RenameChannel(_ context.Context, channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Renames[channelID] = name
	f.Channels[channelID] = name
	return nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	delete(f.Channels, channelID)
	f.Deleted = append(f.Deleted, channelID)
	return nil
}

func (f *Fake) FindCategory(_ context.Context, _, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Categories[name], nil
}

func (f *Fake) FindRole(_ context.Context, _, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Roles[name], nil
}

func (f *Fake) AddRole(_ context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	key := guildID + "/" + userID + "/" + roleID
	f.RolesAdded = append(f.RolesAdded, key)
	f.MemberRoles[key] = true
	return nil
}

func (f *Fake) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	key := guildID + "/" + userID + "/" + roleID
	f.RolesRemoved = append(f.RolesRemoved, key)
	f.MemberRoles[key] = false
	return nil
}

func (f *Fake) MemberHasRole(_ context.Context, guildID, userID, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	return f.MemberRoles[guildID+"/"+userID+"/"+roleID], nil
}

// LastSent returns the most recent message sent to channelID, or nil.
func (f *Fake) LastSent(channelID string) *SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if f.Sent[i].ChannelID == channelID {
			msg := f.Sent[i]
			return &msg
		}
	}
	return nil
}

// SentContaining reports whether any message to channelID contains substr.
func (f *Fake) SentContaining(channelID, substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Sent {
		if m.ChannelID == channelID && strings.Contains(m.Content, substr) {
			return true
		}
	}
	return false
}

var _ gateway.Gateway = (*Fake)(nil)

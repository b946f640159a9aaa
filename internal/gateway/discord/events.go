package discord

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"studyhub-bot/internal/gateway"
)

// EventHandler receives the typed inbound events this bot consumes.
type EventHandler interface {
	HandleMessage(ctx context.Context, ev gateway.MessageCreated)
	HandleReaction(ctx context.Context, ev gateway.ReactionChanged)
	// HandleButton returns the reply shown (ephemerally) to the clicker.
	HandleButton(ctx context.Context, ev gateway.ButtonClicked) string
}

// BindHandlers registers discordgo event handlers that translate raw
// payloads into the restricted typed events and forward them. Handlers run
// in their own goroutines so slow work never stalls the gateway read loop.
func (a *Adapter) BindHandlers(h EventHandler) {
	a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		ev := gateway.MessageCreated{
			GuildID:    m.GuildID,
			ChannelID:  m.ChannelID,
			MessageID:  m.ID,
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
			AuthorBot:  m.Author.Bot,
			Content:    m.Content,
			HasMedia:   len(m.Attachments) > 0 || len(m.Embeds) > 0,
		}
		go h.HandleMessage(context.Background(), ev)
	})

	a.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		go h.HandleReaction(context.Background(), gateway.ReactionChanged{
			GuildID:   r.GuildID,
			ChannelID: r.ChannelID,
			MessageID: r.MessageID,
			Emoji:     r.Emoji.Name,
		})
	})

	a.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		go h.HandleReaction(context.Background(), gateway.ReactionChanged{
			GuildID:   r.GuildID,
			ChannelID: r.ChannelID,
			MessageID: r.MessageID,
			Emoji:     r.Emoji.Name,
			Removed:   true,
		})
	})

	a.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionMessageComponent {
			return
		}
		userID, userName := "", ""
		if i.Member != nil && i.Member.User != nil {
			userID = i.Member.User.ID
			userName = i.Member.User.Username
		} else if i.User != nil {
			userID = i.User.ID
			userName = i.User.Username
		}
		ev := gateway.ButtonClicked{
			GuildID:   i.GuildID,
			ChannelID: i.ChannelID,
			UserID:    userID,
			UserName:  userName,
			CustomID:  i.MessageComponentData().CustomID,
		}
		if i.Message != nil {
			ev.MessageID = i.Message.ID
		}

		go func() {
			reply := h.HandleButton(context.Background(), ev)
			if reply == "" {
				reply = "…"
			}
			err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: reply,
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			})
			if err != nil {
				log.Printf("[discord] interaction response failed: %v", err)
			}
		}()
	})
}

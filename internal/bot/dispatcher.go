// Package bot routes inbound chat events to the quiz and contest managers
// and translates the domain error taxonomy into short user-facing replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"studyhub-bot/internal/contest"
	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/gateway"
	"studyhub-bot/internal/quiz"
)

// Dispatcher parses text commands and button payloads. Recognized commands:
//
//	<prefix>quiz <category>   start a 1v1 quiz
//	<prefix>join <creator>    join a waiting quiz (mention or raw id)
//	<prefix>meme-start        start a meme contest (privileged)
//	<prefix>meme-status       show the running contest
type Dispatcher struct {
	gw        gateway.Gateway
	quizzes   *quiz.Manager
	contests  *contest.Manager
	prefix    string
	adminRole string // empty means meme-start is unrestricted
}

func NewDispatcher(gw gateway.Gateway, quizzes *quiz.Manager, contests *contest.Manager, prefix, adminRole string) *Dispatcher {
	if prefix == "" {
		prefix = "!"
	}
	return &Dispatcher{
		gw:        gw,
		quizzes:   quizzes,
		contests:  contests,
		prefix:    prefix,
		adminRole: adminRole,
	}
}

// HandleMessage processes one inbound guild message: contest submission
// tracking first, then command parsing.
func (d *Dispatcher) HandleMessage(ctx context.Context, ev gateway.MessageCreated) {
	if ev.AuthorBot {
		return
	}

	d.contests.HandleNewMessage(ctx, ev)

	if !strings.HasPrefix(ev.Content, d.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(ev.Content, d.prefix))
	if len(fields) == 0 {
		return
	}

	var reply string
	switch fields[0] {
	case "quiz":
		reply = d.startQuiz(ctx, ev, fields[1:])
	case "join":
		reply = d.joinQuiz(ctx, ev, fields[1:])
	case "meme-start":
		reply = d.startContest(ctx, ev)
	case "meme-status":
		reply = d.contestStatus(ctx)
	default:
		return
	}

	if reply != "" {
		if _, err := d.gw.SendMessage(ctx, ev.ChannelID, reply); err != nil {
			log.Printf("[bot] reply in %s failed: %v", ev.ChannelID, err)
		}
	}
}

// HandleReaction forwards reaction changes to the contest manager.
func (d *Dispatcher) HandleReaction(ctx context.Context, ev gateway.ReactionChanged) {
	d.contests.HandleReactionUpdate(ctx, ev)
}

// HandleButton processes a button click and returns the (ephemeral) reply.
func (d *Dispatcher) HandleButton(ctx context.Context, ev gateway.ButtonClicked) string {
	switch {
	case strings.HasPrefix(ev.CustomID, "join_quiz_"):
		creatorID := strings.TrimPrefix(ev.CustomID, "join_quiz_")
		if err := d.quizzes.JoinSession(ctx, ev.UserID, ev.UserName, creatorID, ev.GuildID); err != nil {
			return replyForError(err)
		}
		return "Successfully joined the quiz! The quiz will start automatically when both players are ready."
	case strings.HasPrefix(ev.CustomID, "answer_"):
		letter := strings.TrimPrefix(ev.CustomID, "answer_")
		if err := d.quizzes.SubmitAnswer(ctx, ev.UserID, letter, ev.ChannelID); err != nil {
			return replyForError(err)
		}
		return "Answer recorded!"
	}
	return ""
}

func (d *Dispatcher) startQuiz(ctx context.Context, ev gateway.MessageCreated, args []string) string {
	if len(args) != 1 {
		return "Usage: " + d.prefix + "quiz <" + strings.Join(d.categoryKeys(), "|") + ">"
	}
	channelID, err := d.quizzes.CreateSession(ctx, ev.AuthorID, ev.AuthorName, args[0], ev.GuildID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			return "Invalid quiz type! Available types: " + strings.Join(d.categoryKeys(), ", ")
		}
		return replyForError(err)
	}
	return fmt.Sprintf("Quiz created! Check <#%s>", channelID)
}

func (d *Dispatcher) joinQuiz(ctx context.Context, ev gateway.MessageCreated, args []string) string {
	if len(args) != 1 {
		return "Usage: " + d.prefix + "join <quiz creator>"
	}
	creatorID := stripMention(args[0])
	if err := d.quizzes.JoinSession(ctx, ev.AuthorID, ev.AuthorName, creatorID, ev.GuildID); err != nil {
		return replyForError(err)
	}
	return "Successfully joined the quiz! The quiz will start automatically when both players are ready."
}

func (d *Dispatcher) startContest(ctx context.Context, ev gateway.MessageCreated) string {
	if d.adminRole != "" {
		roleID, err := d.gw.FindRole(ctx, ev.GuildID, d.adminRole)
		if err != nil || roleID == "" {
			log.Printf("[bot] admin role %q not resolvable: %v", d.adminRole, err)
			return "Server is missing the admin role. Please contact an administrator."
		}
		has, err := d.gw.MemberHasRole(ctx, ev.GuildID, ev.AuthorID, roleID)
		if err != nil {
			return replyForError(fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err))
		}
		if !has {
			return "You don't have permission to start a meme contest."
		}
	}

	c, err := d.contests.StartNewContest(ctx, ev.ChannelID)
	if err != nil {
		return replyForError(err)
	}
	minutes := int(c.EndDate.Sub(c.StartDate).Minutes())
	return fmt.Sprintf(
		"🎉 New meme contest started! Post your best memes in <#%s> and get the most reactions to win! Contest ends in %d minutes.",
		c.ChannelID, minutes)
}

func (d *Dispatcher) contestStatus(ctx context.Context) string {
	standing, err := d.contests.Status(ctx)
	if err != nil {
		return replyForError(err)
	}
	reply := fmt.Sprintf("🎭 Meme contest is running! %d minutes left.", standing.MinutesLeft)
	if len(standing.TopSubmissions) > 0 {
		reply += "\n\n**Top submissions:**"
		for i, sub := range standing.TopSubmissions {
			reply += fmt.Sprintf("\n%d. <@%s> — %d reactions", i+1, sub.AuthorID, sub.ReactionCount)
		}
	}
	return reply
}

func (d *Dispatcher) categoryKeys() []string {
	keys := make([]string, 0, len(d.quizzes.Categories()))
	for key := range d.quizzes.Categories() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// stripMention turns "<@123>" or "<@!123>" into "123"; raw ids pass through.
func stripMention(s string) string {
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	return strings.TrimSuffix(s, ">")
}

func replyForError(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateSession):
		return "You already have an active quiz!"
	case errors.Is(err, domain.ErrInvalidCategory):
		return "Invalid quiz type!"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return "Server is missing quiz setup. Please contact an administrator."
	case errors.Is(err, domain.ErrQuestionSupplyFailure):
		return "Failed to generate questions. Please try again."
	case errors.Is(err, domain.ErrSessionNotFound):
		return "This quiz is no longer available!"
	case errors.Is(err, domain.ErrAlreadyStarted):
		return "This quiz has already started!"
	case errors.Is(err, domain.ErrSelfJoin):
		return "You cannot join your own quiz."
	case errors.Is(err, domain.ErrAlreadyJoined):
		return "You're already in this quiz!"
	case errors.Is(err, domain.ErrNotActive):
		return "No active quiz found!"
	case errors.Is(err, domain.ErrNotParticipant):
		return "You're not in this quiz!"
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return "You've already answered this question!"
	case errors.Is(err, domain.ErrContestAlreadyActive):
		return "A meme contest is already active!"
	case errors.Is(err, domain.ErrNoActiveContest):
		return "No active contest running."
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return "Something went wrong talking to Discord. Please try again."
	default:
		log.Printf("[bot] unexpected error: %v", err)
		return "Something went wrong. Please try again."
	}
}

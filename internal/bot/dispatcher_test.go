package bot

import (
	"context"
	"strings"
	"testing"

	"studyhub-bot/internal/contest"
	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/gateway"
	"studyhub-bot/internal/gateway/gatewaytest"
	"studyhub-bot/internal/infra/memory"
	"studyhub-bot/internal/quiz"
)

type stubProvider struct{}

func (stubProvider) FetchQuestions(_ context.Context, _ domain.QuizCategory, _ int) ([]domain.Question, error) {
	return []domain.Question{
		{Text: "First?", Options: []string{"right", "w1", "w2", "w3"}, Answer: "A"},
		{Text: "Second?", Options: []string{"w1", "right", "w2", "w3"}, Answer: "B"},
	}, nil
}

func newTestDispatcher(adminRole string) (*Dispatcher, *gatewaytest.Fake) {
	fake := gatewaytest.New()
	fake.Categories["QUIZS"] = "cat-1"
	fake.Roles["Verified"] = "role-verified"
	fake.Roles["Meme-Lord"] = "role-meme"

	quizzes := quiz.NewManager(fake, stubProvider{}, quiz.Options{})
	contests := contest.NewManager(fake, memory.NewContestStore(), contest.Options{GuildID: "g1"})
	return NewDispatcher(fake, quizzes, contests, "!", adminRole), fake
}

func command(author, channel, content string) gateway.MessageCreated {
	return gateway.MessageCreated{
		GuildID:    "g1",
		ChannelID:  channel,
		AuthorID:   author,
		AuthorName: author,
		Content:    content,
	}
}

func TestQuizCommand(t *testing.T) {
	ctx := context.Background()
	d, fake := newTestDispatcher("")

	d.HandleMessage(ctx, command("u1", "lobby", "!quiz core-cs"))
	if !fake.SentContaining("lobby", "Quiz created! Check <#") {
		t.Fatalf("missing creation reply: %+v", fake.Sent)
	}

	d.HandleMessage(ctx, command("u2", "lobby", "!quiz"))
	if !fake.SentContaining("lobby", "Usage: !quiz") {
		t.Fatalf("missing usage reply: %+v", fake.Sent)
	}

	d.HandleMessage(ctx, command("u2", "lobby", "!quiz bogus"))
	if !fake.SentContaining("lobby", "Available types: core-cs, mental-ability") {
		t.Fatalf("missing category listing: %+v", fake.Sent)
	}

	d.HandleMessage(ctx, command("u1", "lobby", "!quiz core-cs"))
	if !fake.SentContaining("lobby", "You already have an active quiz!") {
		t.Fatalf("missing duplicate reply: %+v", fake.Sent)
	}
}

func TestJoinCommandStripsMention(t *testing.T) {
	ctx := context.Background()
	d, fake := newTestDispatcher("")

	d.HandleMessage(ctx, command("u1", "lobby", "!quiz core-cs"))
	quizChannel := fake.CreatedChannels[0]

	d.HandleMessage(ctx, command("u2", "lobby", "!join <@!u1>"))
	if !fake.SentContaining("lobby", "Successfully joined the quiz!") {
		t.Fatalf("missing join reply: %+v", fake.Sent)
	}
	if !fake.SentContaining(quizChannel, "Question 1/2") {
		t.Fatal("quiz did not start after join")
	}
}

func TestButtonHandling(t *testing.T) {
	ctx := context.Background()
	d, fake := newTestDispatcher("")

	d.HandleMessage(ctx, command("u1", "lobby", "!quiz core-cs"))
	quizChannel := fake.CreatedChannels[0]

	reply := d.HandleButton(ctx, gateway.ButtonClicked{GuildID: "g1", ChannelID: quizChannel, UserID: "u2", UserName: "bart", CustomID: "join_quiz_u1"})
	if !strings.Contains(reply, "Successfully joined") {
		t.Fatalf("join button reply: %q", reply)
	}
	if fake.Renames[quizChannel] != "quiz-u1-vs-bart" {
		t.Fatalf("channel not renamed with both names: %q", fake.Renames[quizChannel])
	}

	reply = d.HandleButton(ctx, gateway.ButtonClicked{GuildID: "g1", ChannelID: quizChannel, UserID: "u2", CustomID: "answer_A"})
	if reply != "Answer recorded!" {
		t.Fatalf("answer button reply: %q", reply)
	}

	reply = d.HandleButton(ctx, gateway.ButtonClicked{GuildID: "g1", ChannelID: quizChannel, UserID: "u2", CustomID: "answer_B"})
	if reply != "You've already answered this question!" {
		t.Fatalf("double answer reply: %q", reply)
	}

	if reply := d.HandleButton(ctx, gateway.ButtonClicked{CustomID: "unknown"}); reply != "" {
		t.Fatalf("unknown button produced a reply: %q", reply)
	}
}

func TestMemeStartAdminGate(t *testing.T) {
	ctx := context.Background()
	d, fake := newTestDispatcher("Admin")
	fake.Roles["Admin"] = "role-admin"

	d.HandleMessage(ctx, command("u1", "memes", "!meme-start"))
	if !fake.SentContaining("memes", "You don't have permission") {
		t.Fatalf("missing permission reply: %+v", fake.Sent)
	}

	fake.MemberRoles["g1/u1/role-admin"] = true
	d.HandleMessage(ctx, command("u1", "memes", "!meme-start"))
	if !fake.SentContaining("memes", "New meme contest started!") {
		t.Fatalf("missing start announcement: %+v", fake.Sent)
	}

	d.HandleMessage(ctx, command("u1", "memes", "!meme-start"))
	if !fake.SentContaining("memes", "A meme contest is already active!") {
		t.Fatalf("missing duplicate reply: %+v", fake.Sent)
	}
}

func TestMemeStatusAndSubmissions(t *testing.T) {
	ctx := context.Background()
	d, fake := newTestDispatcher("")

	d.HandleMessage(ctx, command("u1", "memes", "!meme-status"))
	if !fake.SentContaining("memes", "No active contest running.") {
		t.Fatalf("missing no-contest reply: %+v", fake.Sent)
	}

	d.HandleMessage(ctx, command("u1", "memes", "!meme-start"))

	meme := command("u2", "memes", "look at this")
	meme.MessageID = "m1"
	meme.HasMedia = true
	d.HandleMessage(ctx, meme)
	if len(fake.Reactions) != 1 {
		t.Fatalf("submission not registered: %v", fake.Reactions)
	}

	fake.SetReactionCount("memes", "m1", "😂", 4)
	d.HandleReaction(ctx, gateway.ReactionChanged{ChannelID: "memes", MessageID: "m1", Emoji: "😂"})

	d.HandleMessage(ctx, command("u1", "memes", "!meme-status"))
	if !fake.SentContaining("memes", "Meme contest is running!") {
		t.Fatalf("missing status reply: %+v", fake.Sent)
	}
	if !fake.SentContaining("memes", "<@u2> — 4 reactions") {
		t.Fatalf("missing standings: %+v", fake.Sent)
	}
}

func TestIgnoresBotsAndNonCommands(t *testing.T) {
	ctx := context.Background()
	d, fake := newTestDispatcher("")

	bot := command("bot", "lobby", "!quiz core-cs")
	bot.AuthorBot = true
	d.HandleMessage(ctx, bot)

	d.HandleMessage(ctx, command("u1", "lobby", "hello there"))
	d.HandleMessage(ctx, command("u1", "lobby", "!"))
	d.HandleMessage(ctx, command("u1", "lobby", "!frobnicate"))

	if len(fake.Sent) != 0 {
		t.Fatalf("unexpected replies: %+v", fake.Sent)
	}
}

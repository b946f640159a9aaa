package contest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/gateway"
	"studyhub-bot/internal/gateway/gatewaytest"
	"studyhub-bot/internal/infra/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager() (*Manager, *gatewaytest.Fake, *memory.ContestStore, *fakeClock) {
	fake := gatewaytest.New()
	fake.Roles["Meme-Lord"] = "role-meme"
	store := memory.NewContestStore()
	clk := &fakeClock{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(fake, store, Options{GuildID: "g1", Clock: clk.Now})
	return m, fake, store, clk
}

func memeMessage(channelID, authorID, messageID string) gateway.MessageCreated {
	return gateway.MessageCreated{
		GuildID:   "g1",
		ChannelID: channelID,
		MessageID: messageID,
		AuthorID:  authorID,
		HasMedia:  true,
	}
}

func TestStartNewContest(t *testing.T) {
	ctx := context.Background()
	m, _, _, clk := newTestManager()

	c, err := m.StartNewContest(ctx, "memes")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("contest id not assigned")
	}
	if want := clk.Now().Add(72 * time.Hour); !c.EndDate.Equal(want) {
		t.Fatalf("end date %s, want %s", c.EndDate, want)
	}

	if _, err := m.StartNewContest(ctx, "other"); !errors.Is(err, domain.ErrContestAlreadyActive) {
		t.Fatalf("expected already active error, got %v", err)
	}
}

type failingStore struct {
	*memory.ContestStore
	insertErr error
}

func (s *failingStore) InsertContest(ctx context.Context, c *domain.MemeContest) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.ContestStore.InsertContest(ctx, c)
}

func TestStartNewContestPersistFailure(t *testing.T) {
	ctx := context.Background()
	fake := gatewaytest.New()
	store := &failingStore{ContestStore: memory.NewContestStore(), insertErr: errors.New("db down")}
	m := NewManager(fake, store, Options{GuildID: "g1"})

	if _, err := m.StartNewContest(ctx, "memes"); err == nil {
		t.Fatal("expected persistence error")
	}

	// The in-memory pointer only flips after a successful write, so a retry
	// must not report an active contest.
	store.insertErr = nil
	if _, err := m.StartNewContest(ctx, "memes"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestHandleNewMessage(t *testing.T) {
	ctx := context.Background()
	m, fake, store, _ := newTestManager()

	c, err := m.StartNewContest(ctx, "memes")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	m.HandleNewMessage(ctx, memeMessage("memes", "u1", "m1"))

	bot := memeMessage("memes", "bot", "m2")
	bot.AuthorBot = true
	m.HandleNewMessage(ctx, bot)

	plain := memeMessage("memes", "u2", "m3")
	plain.HasMedia = false
	m.HandleNewMessage(ctx, plain)

	m.HandleNewMessage(ctx, memeMessage("elsewhere", "u3", "m4"))

	subs, err := store.TopSubmissions(ctx, c.ID, 10)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(subs) != 1 || subs[0].MessageID != "m1" {
		t.Fatalf("expected exactly the qualifying submission, got %+v", subs)
	}
	if len(fake.Reactions) != 1 || fake.Reactions[0] != "memes/m1/😂" {
		t.Fatalf("seed reaction missing: %v", fake.Reactions)
	}

	// Reposting the same message id stays a single row.
	m.HandleNewMessage(ctx, memeMessage("memes", "u1", "m1"))
	subs, _ = store.TopSubmissions(ctx, c.ID, 10)
	if len(subs) != 1 {
		t.Fatalf("duplicate submission stored: %+v", subs)
	}
}

func TestHandleReactionUpdateResync(t *testing.T) {
	ctx := context.Background()
	m, fake, store, _ := newTestManager()

	c, _ := m.StartNewContest(ctx, "memes")
	m.HandleNewMessage(ctx, memeMessage("memes", "u1", "m1"))

	fake.SetReactionCount("memes", "m1", "😂", 7)
	m.HandleReactionUpdate(ctx, gateway.ReactionChanged{ChannelID: "memes", MessageID: "m1", Emoji: "😂"})

	subs, _ := store.TopSubmissions(ctx, c.ID, 1)
	if subs[0].ReactionCount != 7 {
		t.Fatalf("count not resynced: %d", subs[0].ReactionCount)
	}

	// The stored count always follows the authoritative total, even downward.
	fake.SetReactionCount("memes", "m1", "😂", 3)
	m.HandleReactionUpdate(ctx, gateway.ReactionChanged{ChannelID: "memes", MessageID: "m1", Emoji: "😂", Removed: true})
	subs, _ = store.TopSubmissions(ctx, c.ID, 1)
	if subs[0].ReactionCount != 3 {
		t.Fatalf("count not resynced downward: %d", subs[0].ReactionCount)
	}
}

func TestWinnerSelection(t *testing.T) {
	ctx := context.Background()
	m, fake, store, clk := newTestManager()

	c, _ := m.StartNewContest(ctx, "memes")
	for i, sub := range []struct {
		author, message string
		count           int
	}{
		{"u1", "m1", 5},
		{"u2", "m2", 7},
		{"u3", "m3", 7},
	} {
		clk.Advance(time.Duration(i) * time.Minute)
		m.HandleNewMessage(ctx, memeMessage("memes", sub.author, sub.message))
		fake.SetReactionCount("memes", sub.message, "😂", sub.count)
		m.HandleReactionUpdate(ctx, gateway.ReactionChanged{ChannelID: "memes", MessageID: sub.message, Emoji: "😂"})
	}

	m.EndContest(ctx, c.ID)

	// u2 and u3 tie on reactions; the earlier submission wins.
	if len(fake.RolesAdded) != 1 || fake.RolesAdded[0] != "g1/u2/role-meme" {
		t.Fatalf("role grant: %v", fake.RolesAdded)
	}
	msg := fake.LastSent("memes")
	if msg == nil || !strings.Contains(msg.Content, "<@u2>") || !strings.Contains(msg.Content, "7") {
		t.Fatalf("winner announcement wrong: %+v", msg)
	}

	active, _ := store.FindActiveContest(ctx)
	if active != nil {
		t.Fatalf("contest still active after end: %+v", active)
	}
	if _, err := m.StartNewContest(ctx, "memes"); err != nil {
		t.Fatalf("new contest after end failed: %v", err)
	}
}

func TestEndContestNoSubmissions(t *testing.T) {
	ctx := context.Background()
	m, fake, store, _ := newTestManager()

	c, _ := m.StartNewContest(ctx, "memes")
	m.EndContest(ctx, c.ID)

	if len(fake.Sent) != 0 || len(fake.RolesAdded) != 0 {
		t.Fatalf("no-submission contest produced side effects: %v %v", fake.Sent, fake.RolesAdded)
	}
	if active, _ := store.FindActiveContest(ctx); active != nil {
		t.Fatalf("contest still active: %+v", active)
	}
}

func TestEndContestIdempotent(t *testing.T) {
	ctx := context.Background()
	m, fake, _, _ := newTestManager()

	c, _ := m.StartNewContest(ctx, "memes")
	m.HandleNewMessage(ctx, memeMessage("memes", "u1", "m1"))

	m.EndContest(ctx, 999) // unknown id, inert
	m.EndContest(ctx, c.ID)
	m.EndContest(ctx, c.ID)

	if len(fake.RolesAdded) != 1 {
		t.Fatalf("repeated end repeated the reward: %v", fake.RolesAdded)
	}
}

func TestRevokeRole(t *testing.T) {
	m, fake, _, _ := newTestManager()

	fake.MemberRoles["g1/u2/role-meme"] = true
	m.revokeRole("g1", "u2", "role-meme")
	if len(fake.RolesRemoved) != 1 {
		t.Fatalf("role not removed: %v", fake.RolesRemoved)
	}

	// Role already gone by other means.
	m.revokeRole("g1", "u2", "role-meme")
	if len(fake.RolesRemoved) != 1 {
		t.Fatalf("removal is not a no-op when role absent: %v", fake.RolesRemoved)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	m, fake, _, clk := newTestManager()

	if _, err := m.Status(ctx); !errors.Is(err, domain.ErrNoActiveContest) {
		t.Fatalf("expected no active contest, got %v", err)
	}

	m.StartNewContest(ctx, "memes")
	m.HandleNewMessage(ctx, memeMessage("memes", "u1", "m1"))
	fake.SetReactionCount("memes", "m1", "😂", 4)
	m.HandleReactionUpdate(ctx, gateway.ReactionChanged{ChannelID: "memes", MessageID: "m1", Emoji: "😂"})

	clk.Advance(71*time.Hour + 30*time.Second)
	standing, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if standing.MinutesLeft != 60 {
		t.Fatalf("minutes left %d, want 60", standing.MinutesLeft)
	}
	if len(standing.TopSubmissions) != 1 || standing.TopSubmissions[0].ReactionCount != 4 {
		t.Fatalf("standing submissions: %+v", standing.TopSubmissions)
	}
}

func TestStatusEndsExpiredContest(t *testing.T) {
	ctx := context.Background()
	m, _, store, clk := newTestManager()

	m.StartNewContest(ctx, "memes")
	clk.Advance(73 * time.Hour)

	if _, err := m.Status(ctx); !errors.Is(err, domain.ErrNoActiveContest) {
		t.Fatalf("expected lazy expiry, got %v", err)
	}
	if active, _ := store.FindActiveContest(ctx); active != nil {
		t.Fatalf("expired contest left active: %+v", active)
	}
}

func TestCheckExpiry(t *testing.T) {
	ctx := context.Background()
	m, _, store, clk := newTestManager()

	m.StartNewContest(ctx, "memes")
	m.CheckExpiry(ctx)
	if active, _ := store.FindActiveContest(ctx); active == nil {
		t.Fatal("running contest ended early")
	}

	clk.Advance(73 * time.Hour)
	m.CheckExpiry(ctx)
	if active, _ := store.FindActiveContest(ctx); active != nil {
		t.Fatalf("expired contest not ended: %+v", active)
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	m, _, store, clk := newTestManager()

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("initialize with empty store failed: %v", err)
	}

	c, _ := m.StartNewContest(ctx, "memes")

	// A fresh manager over the same store picks the contest back up.
	resumed := NewManager(gatewaytest.New(), store, Options{GuildID: "g1", Clock: clk.Now})
	if err := resumed.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := resumed.StartNewContest(ctx, "memes"); !errors.Is(err, domain.ErrContestAlreadyActive) {
		t.Fatalf("resumed manager lost the active contest: %v", err)
	}

	// A contest that expired while the process was down ends immediately.
	clk.Advance(80 * time.Hour)
	late := NewManager(gatewaytest.New(), store, Options{GuildID: "g1", Clock: clk.Now})
	if err := late.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if active, _ := store.FindActiveContest(ctx); active != nil && active.ID == c.ID {
		t.Fatalf("expired contest not ended on startup: %+v", active)
	}
}

package contest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/gateway"
)

// Store persists contest and submission rows. Implementations must make
// InsertSubmission idempotent on (ContestID, MessageID) and order
// TopSubmissions by reaction count descending, creation time ascending.
type Store interface {
	InsertContest(ctx context.Context, c *domain.MemeContest) error
	// FindActiveContest returns the most recent active contest, or nil.
	FindActiveContest(ctx context.Context) (*domain.MemeContest, error)
	MarkContestEnded(ctx context.Context, id int64, winnerUserID, winnerMessageID string) error
	InsertSubmission(ctx context.Context, sub domain.MemeSubmission) error
	UpdateReactionCount(ctx context.Context, contestID int64, messageID string, count int) error
	TopSubmissions(ctx context.Context, contestID int64, limit int) ([]domain.MemeSubmission, error)
}

// Options configures a Manager.
type Options struct {
	GuildID       string
	RewardRole    string // granted to the winner, time-boxed
	ReactionEmoji string // seeded on qualifying submissions

	Duration      time.Duration // contest length
	RoleDuration  time.Duration // how long the winner keeps the role
	CheckInterval time.Duration // expiry poll period

	Clock func() time.Time
}

func (o *Options) applyDefaults() {
	if o.RewardRole == "" {
		o.RewardRole = "Meme-Lord"
	}
	if o.ReactionEmoji == "" {
		o.ReactionEmoji = "😂"
	}
	if o.Duration == 0 {
		o.Duration = 72 * time.Hour
	}
	if o.RoleDuration == 0 {
		o.RoleDuration = 72 * time.Hour
	}
	if o.CheckInterval == 0 {
		o.CheckInterval = time.Minute
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Manager owns the meme contest lifecycle: at most one active contest
// process-wide, submission registration, reaction resync, expiry, winner
// selection, and the timed reward role.
type Manager struct {
	gw    gateway.Gateway
	store Store
	opts  Options

	mu     sync.Mutex
	active *domain.MemeContest

	stopCh chan struct{}
}

func NewManager(gw gateway.Gateway, store Store, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		gw:     gw,
		store:  store,
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Initialize reloads a persisted active contest after a restart, ending it
// immediately if its deadline already passed.
func (m *Manager) Initialize(ctx context.Context) error {
	c, err := m.store.FindActiveContest(ctx)
	if err != nil {
		return fmt.Errorf("load active contest: %w", err)
	}
	if c == nil {
		return nil
	}

	m.mu.Lock()
	m.active = c
	expired := m.opts.Clock().After(c.EndDate)
	if expired {
		m.endLocked(ctx, c.ID)
	}
	m.mu.Unlock()

	if !expired {
		log.Printf("[contest] resumed active contest %d, ends %s", c.ID, c.EndDate.Format(time.RFC3339))
	}
	return nil
}

// Start launches the periodic expiry check. Stop terminates it.
func (m *Manager) Start() {
	go m.checkLoop()
	log.Printf("[contest] expiry checks started (every %s)", m.opts.CheckInterval)
}

func (m *Manager) Stop() {
	close(m.stopCh)
}

func (m *Manager) checkLoop() {
	ticker := time.NewTicker(m.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.CheckExpiry(context.Background())
		}
	}
}

// CheckExpiry ends the active contest once its deadline has passed.
func (m *Manager) CheckExpiry(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.opts.Clock().After(m.active.EndDate) {
		m.endLocked(ctx, m.active.ID)
	}
}

// StartNewContest begins a contest in the given channel. The in-memory
// active pointer is only set after the row persists.
func (m *Manager) StartNewContest(ctx context.Context, channelID string) (*domain.MemeContest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, domain.ErrContestAlreadyActive
	}

	now := m.opts.Clock()
	c := &domain.MemeContest{
		ChannelID: channelID,
		StartDate: now,
		EndDate:   now.Add(m.opts.Duration),
		Status:    domain.ContestActive,
		CreatedAt: now,
	}
	if err := m.store.InsertContest(ctx, c); err != nil {
		return nil, fmt.Errorf("persist contest: %w", err)
	}
	m.active = c
	log.Printf("[contest] started contest %d in channel %s, ends %s", c.ID, channelID, c.EndDate.Format(time.RFC3339))
	return c, nil
}

// HandleNewMessage registers qualifying messages (attached media or embeds)
// posted in the active contest's channel as submissions. Duplicate messages
// are silent no-ops.
func (m *Manager) HandleNewMessage(ctx context.Context, ev gateway.MessageCreated) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ChannelID != ev.ChannelID || ev.AuthorBot || !ev.HasMedia {
		return
	}

	// Seed a reaction to encourage others to react.
	if err := m.gw.React(ctx, ev.ChannelID, ev.MessageID, m.opts.ReactionEmoji); err != nil {
		log.Printf("[contest] seeding reaction on %s failed: %v", ev.MessageID, err)
	}

	sub := domain.MemeSubmission{
		ContestID: m.active.ID,
		AuthorID:  ev.AuthorID,
		MessageID: ev.MessageID,
		CreatedAt: m.opts.Clock(),
	}
	if err := m.store.InsertSubmission(ctx, sub); err != nil {
		log.Printf("[contest] storing submission %s failed: %v", ev.MessageID, err)
		return
	}
	log.Printf("[contest] new submission %s by %s in contest %d", ev.MessageID, ev.AuthorID, m.active.ID)
}

// HandleReactionUpdate resynchronizes a submission's reaction count. The
// authoritative current total is re-read from the gateway, never derived
// from the event delta, so reordered or duplicate events are harmless.
func (m *Manager) HandleReactionUpdate(ctx context.Context, ev gateway.ReactionChanged) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ChannelID != ev.ChannelID {
		return
	}

	count, err := m.gw.ReactionCount(ctx, ev.ChannelID, ev.MessageID, ev.Emoji)
	if err != nil {
		log.Printf("[contest] reading reaction count for %s failed: %v", ev.MessageID, err)
		return
	}
	if err := m.store.UpdateReactionCount(ctx, m.active.ID, ev.MessageID, count); err != nil {
		log.Printf("[contest] updating reaction count for %s failed: %v", ev.MessageID, err)
	}
}

// EndContest finishes the contest with the given id. Calling it for a
// contest that already ended, or was never active, is a safe no-op.
func (m *Manager) EndContest(ctx context.Context, contestID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endLocked(ctx, contestID)
}

func (m *Manager) endLocked(ctx context.Context, contestID int64) {
	if m.active == nil || m.active.ID != contestID {
		return
	}
	contest := m.active
	// Cleared regardless of outcome below so a new contest can start.
	m.active = nil

	winners, err := m.store.TopSubmissions(ctx, contestID, 1)
	if err != nil {
		log.Printf("[contest] loading submissions for contest %d failed: %v", contestID, err)
	}
	if len(winners) == 0 {
		if err := m.store.MarkContestEnded(ctx, contestID, "", ""); err != nil {
			log.Printf("[contest] marking contest %d ended failed: %v", contestID, err)
		}
		log.Printf("[contest] contest %d ended with no submissions", contestID)
		return
	}

	winner := winners[0]
	if err := m.store.MarkContestEnded(ctx, contestID, winner.AuthorID, winner.MessageID); err != nil {
		log.Printf("[contest] marking contest %d ended failed: %v", contestID, err)
	}

	m.rewardWinner(ctx, contest, winner)
	log.Printf("[contest] contest %d ended, winner %s with %d reactions", contestID, winner.AuthorID, winner.ReactionCount)
}

func (m *Manager) rewardWinner(ctx context.Context, contest *domain.MemeContest, winner domain.MemeSubmission) {
	roleID, err := m.gw.FindRole(ctx, m.opts.GuildID, m.opts.RewardRole)
	if err != nil || roleID == "" {
		log.Printf("[contest] role %q not resolvable, skipping role assignment: %v", m.opts.RewardRole, err)
	} else {
		if err := m.gw.AddRole(ctx, m.opts.GuildID, winner.AuthorID, roleID); err != nil {
			log.Printf("[contest] granting role to %s failed: %v", winner.AuthorID, err)
		} else {
			guildID, userID := m.opts.GuildID, winner.AuthorID
			time.AfterFunc(m.opts.RoleDuration, func() { m.revokeRole(guildID, userID, roleID) })
		}
	}

	days := int(m.opts.RoleDuration.Hours() / 24)
	announcement := fmt.Sprintf(
		"🏆 **Meme Contest Winner!**\nCongratulations <@%s>! Your meme got %d %s reactions and won the %s role for %d days!",
		winner.AuthorID, winner.ReactionCount, m.opts.ReactionEmoji, m.opts.RewardRole, days)
	if _, err := m.gw.SendMessage(ctx, contest.ChannelID, announcement); err != nil {
		log.Printf("[contest] winner announcement failed: %v", err)
	}
}

// revokeRole fires when the reward period elapses. Removal is a no-op if
// the role was already taken away by other means.
func (m *Manager) revokeRole(guildID, userID, roleID string) {
	ctx := context.Background()
	has, err := m.gw.MemberHasRole(ctx, guildID, userID, roleID)
	if err != nil {
		log.Printf("[contest] checking reward role on %s failed: %v", userID, err)
		return
	}
	if !has {
		return
	}
	if err := m.gw.RemoveRole(ctx, guildID, userID, roleID); err != nil {
		log.Printf("[contest] removing reward role from %s failed: %v", userID, err)
		return
	}
	log.Printf("[contest] removed %s role from %s", m.opts.RewardRole, userID)
}

// Status reports the running contest: minutes left and the current top 5
// submissions. An expired contest is ended inline first, so status never
// reports a stale active contest.
func (m *Manager) Status(ctx context.Context) (*domain.ContestStanding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, domain.ErrNoActiveContest
	}

	now := m.opts.Clock()
	left := m.active.EndDate.Sub(now)
	if left <= 0 {
		m.endLocked(ctx, m.active.ID)
		return nil, domain.ErrNoActiveContest
	}

	top, err := m.store.TopSubmissions(ctx, m.active.ID, 5)
	if err != nil {
		return nil, fmt.Errorf("load top submissions: %w", err)
	}
	contest := *m.active
	return &domain.ContestStanding{
		Contest:        contest,
		MinutesLeft:    int((left + time.Minute - 1) / time.Minute),
		TopSubmissions: top,
	}, nil
}

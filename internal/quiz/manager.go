package quiz

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/gateway"
)

// QuestionProvider supplies the question pool for a session, possibly fewer
// than requested, possibly none.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, category domain.QuizCategory, count int) ([]domain.Question, error)
}

// Options configures a Manager. Zero values fall back to the defaults used
// by the production deployment.
type Options struct {
	// CategoryChannel is the guild category quiz channels are created under.
	CategoryChannel string
	// VerifiedRole gates visibility of quiz channels.
	VerifiedRole string
	// Categories overrides the built-in category table.
	Categories map[string]domain.QuizCategory

	JoinTimeout     time.Duration
	QuestionTimeout time.Duration
	ResultsGrace    time.Duration

	Clock func() time.Time
}

func (o *Options) applyDefaults() {
	if o.CategoryChannel == "" {
		o.CategoryChannel = "QUIZS"
	}
	if o.VerifiedRole == "" {
		o.VerifiedRole = "Verified"
	}
	if o.Categories == nil {
		o.Categories = DefaultCategories()
	}
	if o.JoinTimeout == 0 {
		o.JoinTimeout = 10 * time.Minute
	}
	if o.QuestionTimeout == 0 {
		o.QuestionTimeout = 30 * time.Second
	}
	if o.ResultsGrace == 0 {
		o.ResultsGrace = 2 * time.Minute
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Manager owns the live quiz session table: creation, pairing, question
// sequencing, answer collection, scoring, and channel lifecycle. One active
// session per creator.
//
// Timer callbacks hold the *session they were armed for, not the creator id:
// the creator id is a recycled key, so a callback that outlives its session
// must not be able to act on the creator's next one.
type Manager struct {
	gw       gateway.Gateway
	provider QuestionProvider
	opts     Options

	mu        sync.Mutex
	sessions  map[string]*session // keyed by creator id
	byChannel map[string]string   // channel id -> creator id
}

func NewManager(gw gateway.Gateway, provider QuestionProvider, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		gw:        gw,
		provider:  provider,
		opts:      opts,
		sessions:  make(map[string]*session),
		byChannel: make(map[string]string),
	}
}

// Categories returns the category table for help/usage texts.
func (m *Manager) Categories() map[string]domain.QuizCategory {
	return m.opts.Categories
}

// CreateSession provisions a dedicated channel and question pool for a new
// quiz, registers it in the waiting state, and arms the join timeout.
// Returns the created channel's id.
func (m *Manager) CreateSession(ctx context.Context, creatorID, creatorName, categoryKey, guildID string) (string, error) {
	m.mu.Lock()
	if _, ok := m.sessions[creatorID]; ok {
		m.mu.Unlock()
		return "", domain.ErrDuplicateSession
	}
	category, ok := m.opts.Categories[categoryKey]
	if !ok {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCategory, categoryKey)
	}
	// Reserve the creator's slot so a second start command cannot race the
	// slow provisioning below. The placeholder is invisible to joins until
	// ready flips.
	s := &session{
		creatorID:   creatorID,
		creatorName: creatorName,
		guildID:     guildID,
		category:    category,
		status:      domain.QuizWaiting,
	}
	m.sessions[creatorID] = s
	m.mu.Unlock()

	channelID, err := m.provision(ctx, s, creatorID, creatorName, guildID)
	if err != nil {
		m.mu.Lock()
		delete(m.sessions, creatorID)
		m.mu.Unlock()
		return "", err
	}
	return channelID, nil
}

func (m *Manager) provision(ctx context.Context, s *session, creatorID, creatorName, guildID string) (string, error) {
	parentID, err := m.gw.FindCategory(ctx, guildID, m.opts.CategoryChannel)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if parentID == "" {
		return "", fmt.Errorf("%w: category %q not found", domain.ErrConfigurationMissing, m.opts.CategoryChannel)
	}
	verifiedID, err := m.gw.FindRole(ctx, guildID, m.opts.VerifiedRole)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if verifiedID == "" {
		return "", fmt.Errorf("%w: role %q not found", domain.ErrConfigurationMissing, m.opts.VerifiedRole)
	}

	name := fmt.Sprintf("quiz-%s-vs-?", creatorName)
	channelID, err := m.gw.CreatePrivateChannel(ctx, guildID, name, parentID, []string{creatorID}, []string{verifiedID})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	questions, err := m.provider.FetchQuestions(ctx, s.category, s.category.QuestionCount)
	if err != nil || len(questions) == 0 {
		// Compensate: the half-created channel must not leak.
		if derr := m.gw.DeleteChannel(ctx, channelID); derr != nil {
			log.Printf("[quiz] cleanup of channel %s failed: %v", channelID, derr)
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrQuestionSupplyFailure, err)
		}
		return "", domain.ErrQuestionSupplyFailure
	}

	lobby := fmt.Sprintf("🎮 **%s**\n\n"+
		"⏱️ Duration: %d minutes\n"+
		"📝 Questions: %d\n\n"+
		"📋 **Rules:**\n"+
		"• One question at a time\n"+
		"• Select your answer using the buttons\n"+
		"• No changing answers\n"+
		"• Timer will auto-submit if not completed\n\n"+
		"👥 Waiting for opponent to join...\n"+
		"Click the button below to join!",
		s.category.Name, int(s.category.Duration.Minutes()), len(questions))
	lobbyID, err := m.gw.SendMessageWithButtons(ctx, channelID, lobby, []gateway.Button{
		{CustomID: "join_quiz_" + creatorID, Label: "Join Quiz", Emoji: "🎮"},
	})
	if err != nil {
		if derr := m.gw.DeleteChannel(ctx, channelID); derr != nil {
			log.Printf("[quiz] cleanup of channel %s failed: %v", channelID, derr)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	m.mu.Lock()
	s.channelID = channelID
	s.lobbyID = lobbyID
	s.questions = questions
	s.participants = []string{creatorID}
	s.answers = map[string][]string{creatorID: make([]string, len(questions))}
	s.ready = true
	m.byChannel[channelID] = creatorID
	m.mu.Unlock()

	time.AfterFunc(m.opts.JoinTimeout, func() { m.expireJoin(s) })

	log.Printf("[quiz] session created by %s (%s), channel %s", creatorName, creatorID, channelID)
	return channelID, nil
}

// expireJoin fires when the join timeout elapses. The pointer comparison
// rejects callbacks from a session that already ended, even when the same
// creator has a newer session under the key. A session that already started
// is left untouched.
func (m *Manager) expireJoin(s *session) {
	m.mu.Lock()
	if m.sessions[s.creatorID] != s || s.status != domain.QuizWaiting {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, s.creatorID)
	delete(m.byChannel, s.channelID)
	channelID := s.channelID
	m.mu.Unlock()

	ctx := context.Background()
	if _, err := m.gw.SendMessage(ctx, channelID, "⏰ No one joined the quiz in time. Channel will be deleted."); err != nil {
		log.Printf("[quiz] join-timeout notice failed: %v", err)
	}
	if err := m.gw.DeleteChannel(ctx, channelID); err != nil {
		log.Printf("[quiz] join-timeout channel delete failed: %v", err)
	}
}

// JoinSession adds a second participant to a waiting session and starts
// question delivery once the pair is complete. Gateway calls happen outside
// the lock so a slow network round trip cannot stall other sessions; the
// session is re-validated after each unlocked stretch.
func (m *Manager) JoinSession(ctx context.Context, joinerID, joinerName, creatorID, guildID string) error {
	m.mu.Lock()
	s, ok := m.sessions[creatorID]
	if !ok || !s.ready {
		m.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	if s.status != domain.QuizWaiting {
		m.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	if joinerID == creatorID {
		m.mu.Unlock()
		return domain.ErrSelfJoin
	}
	channelID, lobbyID := s.channelID, s.lobbyID
	creatorName := s.creatorName
	m.mu.Unlock()

	if err := m.gw.GrantChannelAccess(ctx, channelID, joinerID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if err := m.gw.RenameChannel(ctx, channelID, fmt.Sprintf("quiz-%s-vs-%s", creatorName, joinerName)); err != nil {
		log.Printf("[quiz] channel rename failed: %v", err)
	}

	m.mu.Lock()
	if m.sessions[creatorID] != s {
		m.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	if s.isParticipant(joinerID) {
		m.mu.Unlock()
		return domain.ErrAlreadyJoined
	}
	if s.status != domain.QuizWaiting {
		// Another joiner filled the seat while access was being granted.
		m.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	s.addParticipant(joinerID)
	s.status = domain.QuizActive
	s.startedAt = m.opts.Clock()
	content, buttons := s.questionPrompt()
	index := s.current
	m.mu.Unlock()

	if err := m.gw.ClearButtons(ctx, channelID, lobbyID); err != nil {
		log.Printf("[quiz] removing join button failed: %v", err)
	}
	log.Printf("[quiz] session %s started", creatorID)
	m.deliverQuestion(ctx, s, content, buttons, index)
	return nil
}

// SubmitAnswer records an option letter for the current question. When every
// participant has answered, the cursor advances; this is the synchronization
// point pairing the two participants' pace. Correctness is not revealed
// until end of quiz.
func (m *Manager) SubmitAnswer(ctx context.Context, userID, letter, channelID string) error {
	m.mu.Lock()
	s, err := m.recordAnswerLocked(userID, letter, channelID)
	if err != nil || s == nil {
		m.mu.Unlock()
		return err
	}
	content, buttons, index, ended := m.advanceLocked(s)
	m.mu.Unlock()

	m.deliver(ctx, s, content, buttons, index, ended)
	return nil
}

// recordAnswerLocked validates and stores one answer. It returns the session
// only when the answer completed the current question for both participants,
// meaning the caller must advance.
func (m *Manager) recordAnswerLocked(userID, letter, channelID string) (*session, error) {
	creatorID, ok := m.byChannel[channelID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s, ok := m.sessions[creatorID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.status != domain.QuizActive {
		return nil, domain.ErrNotActive
	}
	if !s.isParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	if s.answers[userID][s.current] != "" {
		return nil, domain.ErrAlreadyAnswered
	}

	s.answers[userID][s.current] = letter
	if !s.allAnswered() {
		return nil, nil
	}
	return s, nil
}

// forceAdvance fires when the per-question timeout elapses. Unanswered slots
// stay empty and the session advances exactly as if all had answered. The
// pointer comparison rejects callbacks from an ended session; one that
// already moved past index is left untouched.
func (m *Manager) forceAdvance(s *session, index int) {
	m.mu.Lock()
	if m.sessions[s.creatorID] != s || s.status != domain.QuizActive || s.current != index {
		m.mu.Unlock()
		return
	}
	content, buttons, next, ended := m.advanceLocked(s)
	m.mu.Unlock()

	m.deliver(context.Background(), s, content, buttons, next, ended)
}

// advanceLocked moves the cursor and, when the pool is exhausted, ends the
// session. It returns the message to deliver once the lock is released.
func (m *Manager) advanceLocked(s *session) (string, []gateway.Button, int, bool) {
	s.current++
	if s.current >= len(s.questions) {
		return m.endLocked(s), nil, 0, true
	}
	content, buttons := s.questionPrompt()
	return content, buttons, s.current, false
}

func (m *Manager) deliver(ctx context.Context, s *session, content string, buttons []gateway.Button, index int, ended bool) {
	if ended {
		if _, err := m.gw.SendMessage(ctx, s.channelID, content); err != nil {
			log.Printf("[quiz] results message failed: %v", err)
		}
		return
	}
	m.deliverQuestion(ctx, s, content, buttons, index)
}

func (m *Manager) deliverQuestion(ctx context.Context, s *session, content string, buttons []gateway.Button, index int) {
	if _, err := m.gw.SendMessageWithButtons(ctx, s.channelID, content, buttons); err != nil {
		log.Printf("[quiz] sending question %d to %s failed: %v", index+1, s.channelID, err)
	}
	time.AfterFunc(m.opts.QuestionTimeout, func() { m.forceAdvance(s, index) })
}

// endLocked retires the session and returns the results message. The session
// leaves the live table immediately so pending timers no-op; the channel
// lingers for the grace period so results stay readable.
func (m *Manager) endLocked(s *session) string {
	s.status = domain.QuizEnded

	scores := s.scores()
	content := "🏁 **Quiz Ended!**\n\n📊 **Results:**\n"
	for _, p := range s.participants {
		content += fmt.Sprintf("<@%s>: %d/%d\n", p, scores[p], len(s.questions))
	}

	channelID := s.channelID
	delete(m.sessions, s.creatorID)
	delete(m.byChannel, channelID)
	time.AfterFunc(m.opts.ResultsGrace, func() {
		if err := m.gw.DeleteChannel(context.Background(), channelID); err != nil {
			log.Printf("[quiz] deleting quiz channel %s failed: %v", channelID, err)
		}
	})
	log.Printf("[quiz] session %s ended", s.creatorID)
	return content
}

package quiz

import (
	"fmt"
	"time"

	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/gateway"
)

// session is the live state of one 1v1 quiz. The creator id is the lookup
// key; the session exclusively owns its dedicated channel's lifetime.
// All fields are guarded by the owning Manager's mutex.
type session struct {
	creatorID   string
	creatorName string // display name, used for the channel title
	guildID     string
	category    domain.QuizCategory
	channelID   string
	lobbyID     string // message carrying the join button

	// ready flips once channel and questions are provisioned; until then
	// the session only reserves the creator's slot in the table.
	ready bool

	questions    []domain.Question
	participants []string            // creator first, capacity 2
	answers      map[string][]string // per participant, "" = unanswered
	current      int
	status       domain.QuizStatus
	startedAt    time.Time
}

func (s *session) isParticipant(userID string) bool {
	for _, p := range s.participants {
		if p == userID {
			return true
		}
	}
	return false
}

func (s *session) addParticipant(userID string) {
	s.participants = append(s.participants, userID)
	s.answers[userID] = make([]string, len(s.questions))
}

// questionPrompt renders the current question with one answer button per
// option letter.
func (s *session) questionPrompt() (string, []gateway.Button) {
	q := s.questions[s.current]
	content := fmt.Sprintf("**Question %d/%d**\n\n%s\n\n", s.current+1, len(s.questions), q.Text)
	buttons := make([]gateway.Button, 0, len(q.Options))
	for i, opt := range q.Options {
		letter := domain.OptionLetters[i]
		content += fmt.Sprintf("%s) %s\n", letter, opt)
		buttons = append(buttons, gateway.Button{CustomID: "answer_" + letter, Label: letter})
	}
	return content, buttons
}

// allAnswered reports whether every participant has a non-empty slot at the
// current question index.
func (s *session) allAnswered() bool {
	for _, p := range s.participants {
		if s.answers[p][s.current] == "" {
			return false
		}
	}
	return true
}

// scores counts, per participant, the slots matching the correct option
// letter. Empty slots never match.
func (s *session) scores() map[string]int {
	result := make(map[string]int, len(s.participants))
	for _, p := range s.participants {
		score := 0
		for i, letter := range s.answers[p] {
			if letter != "" && letter == s.questions[i].Answer {
				score++
			}
		}
		result[p] = score
	}
	return result
}

package domain

import "time"

// Question models an MCQ question with exactly four lettered options.
// Immutable once attached to a quiz session.
type Question struct {
	Text        string   `json:"text"`
	Options     []string `json:"options"` // index 0..3 rendered as letters A..D
	Answer      string   `json:"answer"`  // correct option letter, one of A..D
	Explanation string   `json:"explanation,omitempty"`
}

// OptionLetters are the accepted answer letters, in option order.
var OptionLetters = []string{"A", "B", "C", "D"}

// QuizCategory describes one quiz type: how many questions a match asks,
// how long a match runs, and where questions are sourced from.
type QuizCategory struct {
	Key            string
	Name           string
	Description    string
	Duration       time.Duration
	QuestionCount  int
	Subjects       []string
	TriviaCategory int // Open Trivia DB category id, 0 when unmapped
}

// QuizStatus is the lifecycle state of a quiz session.
type QuizStatus string

const (
	QuizWaiting QuizStatus = "waiting"
	QuizActive  QuizStatus = "active"
	QuizEnded   QuizStatus = "ended"
)

// ContestStatus is the lifecycle state of a meme contest.
type ContestStatus string

const (
	ContestActive ContestStatus = "active"
	ContestEnded  ContestStatus = "ended"
)

// MemeContest is one time-boxed meme-reaction competition. At most one
// contest has Status == ContestActive at any time, process-wide.
type MemeContest struct {
	ID              int64
	ChannelID       string
	StartDate       time.Time
	EndDate         time.Time
	Status          ContestStatus
	WinnerUserID    string // empty unless ended with a winner
	WinnerMessageID string
	CreatedAt       time.Time
}

// MemeSubmission is a qualifying message posted during an active contest,
// unique per (ContestID, MessageID).
type MemeSubmission struct {
	ContestID     int64
	AuthorID      string
	MessageID     string
	ReactionCount int
	CreatedAt     time.Time
}

// ContestStanding is the status-query view of a running contest.
type ContestStanding struct {
	Contest        MemeContest
	MinutesLeft    int
	TopSubmissions []MemeSubmission
}

package domain

import "errors"

var (
	// ErrDuplicateSession is returned when a creator already owns a live quiz.
	ErrDuplicateSession = errors.New("you already have an active quiz")
	// ErrInvalidCategory is returned for an unrecognized quiz category key.
	ErrInvalidCategory = errors.New("invalid quiz category")
	// ErrConfigurationMissing indicates the guild lacks the quiz category
	// channel or the verified role needed for channel permissioning.
	ErrConfigurationMissing = errors.New("guild configuration missing")
	// ErrQuestionSupplyFailure indicates no questions could be sourced.
	ErrQuestionSupplyFailure = errors.New("failed to source quiz questions")
	// ErrSessionNotFound is returned when no live session matches the lookup.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrAlreadyStarted is returned when joining a session past the waiting state.
	ErrAlreadyStarted = errors.New("quiz has already started")
	// ErrSelfJoin is returned when a creator tries to join their own quiz.
	ErrSelfJoin = errors.New("cannot join your own quiz")
	// ErrAlreadyJoined is returned when a user is already a participant.
	ErrAlreadyJoined = errors.New("already joined this quiz")
	// ErrNotActive is returned for answers outside the active state.
	ErrNotActive = errors.New("quiz is not in progress")
	// ErrNotParticipant is returned for answers from non-participants.
	ErrNotParticipant = errors.New("not a participant of this quiz")
	// ErrAlreadyAnswered is returned when the current question slot is filled.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrContestAlreadyActive is returned when starting a contest while one runs.
	ErrContestAlreadyActive = errors.New("a meme contest is already active")
	// ErrNoActiveContest is returned by status queries when nothing is running.
	ErrNoActiveContest = errors.New("no active contest running")
	// ErrGatewayUnavailable wraps transient failures of outbound gateway calls.
	ErrGatewayUnavailable = errors.New("messaging gateway unavailable")
)

package services

import "errors"

// Shared service-level errors, mapped to HTTP statuses by the handlers.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")

	// Schedule generation
	ErrAlreadyGenerated         = errors.New("schedule already generated for this tournament")
	ErrInsufficientParticipants = errors.New("not enough approved participants to generate a schedule")
	ErrTournamentNotDraft       = errors.New("tournament schedule can only be generated from draft status")

	// Match state machine
	ErrInvalidEventType      = errors.New("invalid match event type")
	ErrInvalidMatchPatch     = errors.New("invalid match update payload")
	ErrMatchAlreadyCompleted = errors.New("match already completed")
	ErrDuplicateLifecycle    = errors.New("lifecycle event already recorded for this match")
	ErrNoEventsToRollback    = errors.New("no events to roll back")
	ErrUnauthorized          = errors.New("invalid credentials")
	ErrResetAfterAdvance     = errors.New("cannot reset a match whose winner has already advanced; clear the downstream slot first")
	ErrMatchMissingOpponents = errors.New("match slots are not resolved yet")

	// Progression / 3rd-place playoff
	ErrUnsupportedFormat    = errors.New("tournament format does not support this operation")
	ErrSemifinalsIncomplete = errors.New("semifinal has not determined a winner")
	ErrThirdPlaceExists     = errors.New("third-place match already exists")
	ErrNoWinnerDeterminable = errors.New("no winner determinable: scores level and no penalty scores recorded")

	// Finalization
	ErrTournamentNotActive   = errors.New("tournament is not active")
	ErrTournamentUnfinished  = errors.New("tournament still has unfinished matches")
)

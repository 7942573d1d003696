package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
	"github.com/ligahub/match-engine/utils"
)

type MatchService interface {
	RecordEvent(ctx context.Context, matchID int, input RecordEventInput) (*models.Match, *models.MatchEvent, error)
	RollbackLastEvent(ctx context.Context, matchID int) (*models.Match, error)
	UpdateMatch(ctx context.Context, matchID int, patch UpdateMatchInput) (*models.Match, error)
	ResetMatch(ctx context.Context, matchID, userID int, password string) (*models.Match, error)
	ListEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error)
}

type RecordEventInput struct {
	Type     models.MatchEventType `json:"type"`
	Minute   int                   `json:"minute"`
	TeamSide models.TeamSide       `json:"team_side"`
	Player   *string               `json:"player,omitempty"`
}

// UpdateMatchInput is a partial patch; nil fields are left untouched.
type UpdateMatchInput struct {
	Status      *models.MatchStatus `json:"status,omitempty"`
	Period      *models.MatchPeriod `json:"period,omitempty"`
	HomeScore   *int                `json:"home_score,omitempty"`
	AwayScore   *int                `json:"away_score,omitempty"`
	HomePenalty *int                `json:"home_penalty,omitempty"`
	AwayPenalty *int                `json:"away_penalty,omitempty"`
}

type matchService struct {
	txManager       repositories.TxManager
	matchRepo       repositories.MatchRepository
	eventRepo       repositories.MatchEventRepository
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	ledger          *StandingsLedger
	stats           *StatsService
	progression     *ProgressionService
	notifier        Notifier
	logger          *slog.Logger
}

func NewMatchService(
	txManager repositories.TxManager,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.MatchEventRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	ledger *StandingsLedger,
	stats *StatsService,
	progression *ProgressionService,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		txManager:       txManager,
		matchRepo:       matchRepo,
		eventRepo:       eventRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		ledger:          ledger,
		stats:           stats,
		progression:     progression,
		notifier:        notifier,
		logger:          logger,
	}
}

// RecordEvent appends one event to the match log under the match row lock.
// Kickoff moves the match to live and opens the score at 0:0; fulltime marks
// the finished-playing condition and triggers finalization. Both lifecycle
// markers are unique per match.
func (s *matchService) RecordEvent(ctx context.Context, matchID int, input RecordEventInput) (*models.Match, *models.MatchEvent, error) {
	if !input.Type.Valid() {
		return nil, nil, ErrInvalidEventType
	}
	if input.TeamSide != models.SideHome && input.TeamSide != models.SideAway {
		return nil, nil, ErrInvalidEventType
	}

	var (
		match *models.Match
		event *models.MatchEvent
		fx    sideEffects
	)
	err := s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if err != nil {
			return mapMatchRepoError(err)
		}
		if match.Status == models.MatchCompleted {
			return ErrMatchAlreadyCompleted
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}

		switch input.Type {
		case models.EventKickoff, models.EventFulltime:
			exists, probeErr := s.eventRepo.HasEventOfType(ctx, tx, matchID, input.Type)
			if probeErr != nil {
				return probeErr
			}
			if exists {
				return ErrDuplicateLifecycle
			}
		}

		switch input.Type {
		case models.EventKickoff:
			match.Status = models.MatchLive
			match.Period = utils.Ptr(models.PeriodFirstHalf)
			match.HomeScore = utils.Ptr(0)
			match.AwayScore = utils.Ptr(0)
			fx.started = true
		case models.EventFulltime:
			match.Period = utils.Ptr(models.PeriodFulltime)
		default:
			dh, da := (&models.MatchEvent{Type: input.Type, TeamSide: input.TeamSide}).ScoreDelta()
			if dh != 0 || da != 0 {
				match.HomeScore = utils.Ptr(derefOrZero(match.HomeScore) + dh)
				match.AwayScore = utils.Ptr(derefOrZero(match.AwayScore) + da)
			}
		}

		event = &models.MatchEvent{
			MatchID:  matchID,
			Type:     input.Type,
			Minute:   input.Minute,
			TeamSide: input.TeamSide,
			Player:   input.Player,
		}
		if err = s.eventRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if fx.started {
			if fx.userIDs, err = s.matchUserIDs(ctx, tx, match); err != nil {
				return err
			}
		}
		return s.persistAndFinalize(ctx, tx, tournament, match, &fx)
	})
	if err != nil {
		return nil, nil, err
	}

	s.dispatch(ctx, match, fx)
	return match, event, nil
}

// RollbackLastEvent removes the newest event and recomputes the match state
// from the events that remain. A finalized match cannot be rolled back event
// by event; reset it instead.
func (s *matchService) RollbackLastEvent(ctx context.Context, matchID int) (*models.Match, error) {
	var match *models.Match
	err := s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if err != nil {
			return mapMatchRepoError(err)
		}
		if match.FinalizedAt != nil || match.Status == models.MatchCompleted {
			return ErrMatchAlreadyCompleted
		}

		last, err := s.eventRepo.GetLastByMatch(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchEventNotFound) {
				return ErrNoEventsToRollback
			}
			return err
		}
		if err = s.eventRepo.Delete(ctx, tx, last.ID); err != nil {
			return err
		}

		remaining, err := s.eventRepo.ListByMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		recomputeFromEvents(match, remaining)

		return s.matchRepo.Update(ctx, tx, match)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.MatchUpdated(ctx, match)
	return match, nil
}

// recomputeFromEvents rebuilds score and lifecycle state from the event log.
// Without a kickoff the match is back to scheduled with no score; with one,
// the score is the sum of the remaining scoring events.
func recomputeFromEvents(match *models.Match, events []*models.MatchEvent) {
	kickedOff := false
	fulltime := false
	home, away := 0, 0
	for _, e := range events {
		switch e.Type {
		case models.EventKickoff:
			kickedOff = true
		case models.EventFulltime:
			fulltime = true
		default:
			dh, da := e.ScoreDelta()
			home += dh
			away += da
		}
	}

	if !kickedOff {
		match.Status = models.MatchScheduled
		match.Period = nil
		match.HomeScore = nil
		match.AwayScore = nil
		return
	}

	match.HomeScore = utils.Ptr(home)
	match.AwayScore = utils.Ptr(away)
	if !fulltime && match.Period != nil && *match.Period == models.PeriodFulltime {
		match.Period = utils.Ptr(models.PeriodSecondHalf)
	}
}

// UpdateMatch applies a partial patch under the row lock. The patch drives
// the same lifecycle chain as explicit events: moving a scheduled match to
// live appends the kickoff marker, and reaching the fulltime condition
// (status completed or period fulltime) finalizes the match exactly once,
// with standings, season stats and progression firing on the first
// finalizing update only. Progression re-resolves on every later
// condition-satisfying update so a penalty correction can decide an open tie.
func (s *matchService) UpdateMatch(ctx context.Context, matchID int, patch UpdateMatchInput) (*models.Match, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var (
		match *models.Match
		fx    sideEffects
	)
	err := s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if err != nil {
			return mapMatchRepoError(err)
		}
		if err = checkPatchAgainstFinalized(match, patch); err != nil {
			return err
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}

		wasScheduled := match.Status == models.MatchScheduled

		if patch.Status != nil {
			match.Status = *patch.Status
		}
		if patch.Period != nil {
			match.Period = patch.Period
		}
		if patch.HomeScore != nil {
			match.HomeScore = patch.HomeScore
		}
		if patch.AwayScore != nil {
			match.AwayScore = patch.AwayScore
		}
		if patch.HomePenalty != nil {
			match.HomePenalty = patch.HomePenalty
		}
		if patch.AwayPenalty != nil {
			match.AwayPenalty = patch.AwayPenalty
		}

		if wasScheduled && match.Status == models.MatchLive {
			if match.Period == nil {
				match.Period = utils.Ptr(models.PeriodFirstHalf)
			}
			if match.HomeScore == nil {
				match.HomeScore = utils.Ptr(0)
			}
			if match.AwayScore == nil {
				match.AwayScore = utils.Ptr(0)
			}
			if err = s.ensureLifecycleEvent(ctx, tx, matchID, models.EventKickoff); err != nil {
				return err
			}
			fx.started = true
		}

		if err = s.persistAndFinalize(ctx, tx, tournament, match, &fx); err != nil {
			return err
		}
		if fx.started && !fx.finalized {
			if fx.userIDs, err = s.matchUserIDs(ctx, tx, match); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, match, fx)
	return match, nil
}

func validatePatch(patch UpdateMatchInput) error {
	if patch.Status != nil {
		switch *patch.Status {
		case models.MatchScheduled, models.MatchLive, models.MatchCompleted:
		default:
			return ErrInvalidMatchPatch
		}
	}
	if patch.Period != nil {
		switch *patch.Period {
		case models.PeriodFirstHalf, models.PeriodHalftime, models.PeriodSecondHalf, models.PeriodFulltime:
		default:
			return ErrInvalidMatchPatch
		}
	}
	for _, v := range []*int{patch.HomeScore, patch.AwayScore, patch.HomePenalty, patch.AwayPenalty} {
		if v != nil && *v < 0 {
			return ErrInvalidMatchPatch
		}
	}
	return nil
}

// checkPatchAgainstFinalized limits what a patch may touch once a match is
// finalized: penalties (to decide an open knockout tie) and restatements of
// the terminal status/period. Scores are locked because standings and season
// stats already counted them; ResetMatch is the sanctioned undo.
func checkPatchAgainstFinalized(match *models.Match, patch UpdateMatchInput) error {
	if match.FinalizedAt == nil {
		return nil
	}
	if patch.Status != nil && *patch.Status != models.MatchCompleted {
		return ErrMatchAlreadyCompleted
	}
	if patch.Period != nil && *patch.Period != models.PeriodFulltime {
		return ErrMatchAlreadyCompleted
	}
	if patch.HomeScore != nil || patch.AwayScore != nil {
		return ErrMatchAlreadyCompleted
	}
	return nil
}

// ResetMatch wipes a match back to its freshly scheduled state: event log
// deleted, scores cleared, standings and season stats reversed. The caller
// must confirm their password. A knockout match whose winner already advanced
// is refused.
func (s *matchService) ResetMatch(ctx context.Context, matchID, userID int, password string) (*models.Match, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}

	var match *models.Match
	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if err != nil {
			return mapMatchRepoError(err)
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}

		if match.IsKnockoutStage() && match.FinalizedAt != nil {
			advanced, checkErr := s.winnerHasAdvanced(ctx, tx, match)
			if checkErr != nil {
				return checkErr
			}
			if advanced {
				return ErrResetAfterAdvance
			}
		}

		if match.FinalizedAt != nil {
			// Scores are locked once finalized, so reversing with the current
			// row undoes exactly the deltas finalization applied.
			if match.IsStandingsFixture(tournament.Type) {
				if err = s.ledger.Reverse(ctx, tx, match); err != nil {
					return err
				}
			}
			if err = s.reverseStats(ctx, tx, match); err != nil {
				return err
			}
			if err = s.stats.RemoveSnapshots(ctx, tx, matchID); err != nil {
				return err
			}
		}

		if err = s.eventRepo.DeleteByMatch(ctx, tx, matchID); err != nil {
			return err
		}

		match.Status = models.MatchScheduled
		match.Period = nil
		match.HomeScore = nil
		match.AwayScore = nil
		match.HomePenalty = nil
		match.AwayPenalty = nil
		match.FinalizedAt = nil

		return s.matchRepo.Update(ctx, tx, match)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match reset",
		slog.Int("match_id", matchID),
		slog.Int("requested_by", userID),
	)
	s.notifier.MatchUpdated(ctx, match)
	s.notifier.StandingsUpdated(ctx, match.TournamentID)
	return match, nil
}

func (s *matchService) ListEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error) {
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		return nil, mapMatchRepoError(err)
	}
	return s.eventRepo.ListByMatch(ctx, nil, matchID)
}

// sideEffects records, inside the transaction, which notifications are owed
// once it commits.
type sideEffects struct {
	started   bool
	finalized bool
	standings bool
	bracket   bool
	userIDs   []int
}

// persistAndFinalize normalizes the fulltime condition, persists the row, and
// runs the finalization chain. The row is written before progression runs so
// the resolver observes the completed state.
func (s *matchService) persistAndFinalize(ctx context.Context, tx repositories.SQLExecutor, tournament *models.Tournament, match *models.Match, fx *sideEffects) error {
	if match.FulltimeReached() {
		match.Status = models.MatchCompleted
	}

	firstFinalize := match.Status == models.MatchCompleted && match.FinalizedAt == nil
	if firstFinalize {
		now := time.Now()
		match.FinalizedAt = &now
		// The timeline carries exactly one fulltime marker whether the
		// condition arrived as an explicit event or as a patch.
		if err := s.ensureLifecycleEvent(ctx, tx, match.ID, models.EventFulltime); err != nil {
			return err
		}
	}

	if err := s.matchRepo.Update(ctx, tx, match); err != nil {
		return err
	}

	if match.Status != models.MatchCompleted {
		return nil
	}

	if firstFinalize {
		fx.finalized = true
		if match.IsStandingsFixture(tournament.Type) {
			if err := s.ledger.Apply(ctx, tx, match); err != nil {
				return err
			}
			fx.standings = true
		}
		if err := s.applyStats(ctx, tx, match, fx); err != nil {
			return err
		}
	}

	if err := s.progression.ResolveAfterFulltime(ctx, tx, tournament, match); err != nil {
		return err
	}
	if match.IsKnockoutStage() || match.Details.Stage == models.StageGroup {
		fx.bracket = true
	}
	return nil
}

// applyStats folds the result into both participants' season aggregates.
// Placeholder participants without a linked user account are skipped.
func (s *matchService) applyStats(ctx context.Context, tx repositories.SQLExecutor, match *models.Match, fx *sideEffects) error {
	homeScore := derefOrZero(match.HomeScore)
	awayScore := derefOrZero(match.AwayScore)

	sides := []struct {
		participantID *int
		goalsFor      int
		goalsAgainst  int
	}{
		{match.HomeParticipantID, homeScore, awayScore},
		{match.AwayParticipantID, awayScore, homeScore},
	}
	for _, side := range sides {
		if side.participantID == nil {
			continue
		}
		participant, err := s.participantRepo.GetByID(ctx, tx, *side.participantID)
		if err != nil {
			return err
		}
		if participant.UserID == nil {
			continue
		}
		if err := s.stats.ApplyResult(ctx, tx, *participant.UserID, match.ID, side.goalsFor, side.goalsAgainst); err != nil {
			return err
		}
		fx.userIDs = append(fx.userIDs, *participant.UserID)
	}
	return nil
}

func (s *matchService) reverseStats(ctx context.Context, tx repositories.SQLExecutor, match *models.Match) error {
	homeScore := derefOrZero(match.HomeScore)
	awayScore := derefOrZero(match.AwayScore)

	sides := []struct {
		participantID *int
		goalsFor      int
		goalsAgainst  int
	}{
		{match.HomeParticipantID, homeScore, awayScore},
		{match.AwayParticipantID, awayScore, homeScore},
	}
	for _, side := range sides {
		if side.participantID == nil {
			continue
		}
		participant, err := s.participantRepo.GetByID(ctx, tx, *side.participantID)
		if err != nil {
			return err
		}
		if participant.UserID == nil {
			continue
		}
		if err := s.stats.ReverseResult(ctx, tx, *participant.UserID, side.goalsFor, side.goalsAgainst); err != nil {
			return err
		}
	}
	return nil
}

// ensureLifecycleEvent appends the unique lifecycle marker when a patch
// drives the transition instead of an explicit event.
func (s *matchService) ensureLifecycleEvent(ctx context.Context, tx repositories.SQLExecutor, matchID int, eventType models.MatchEventType) error {
	exists, err := s.eventRepo.HasEventOfType(ctx, tx, matchID, eventType)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.eventRepo.Create(ctx, tx, &models.MatchEvent{
		MatchID:  matchID,
		Type:     eventType,
		TeamSide: models.SideHome,
	})
}

// matchUserIDs collects the linked user accounts of both participants.
func (s *matchService) matchUserIDs(ctx context.Context, tx repositories.SQLExecutor, match *models.Match) ([]int, error) {
	ids := make([]int, 0, 2)
	for _, participantID := range []*int{match.HomeParticipantID, match.AwayParticipantID} {
		if participantID == nil {
			continue
		}
		participant, err := s.participantRepo.GetByID(ctx, tx, *participantID)
		if err != nil {
			return nil, err
		}
		if participant.UserID != nil {
			ids = append(ids, *participant.UserID)
		}
	}
	return ids, nil
}

// winnerHasAdvanced reports whether a downstream slot already holds one of
// this match's participants.
func (s *matchService) winnerHasAdvanced(ctx context.Context, tx repositories.SQLExecutor, match *models.Match) (bool, error) {
	if match.Details.MatchIndex == nil {
		return false, nil
	}
	nextRound := match.Round + 1
	nextMatches, err := s.matchRepo.ListByTournament(ctx, tx, match.TournamentID, &nextRound, nil)
	if err != nil {
		return false, err
	}

	nextIndex := *match.Details.MatchIndex / 2
	holds := func(slot *int) bool {
		if slot == nil {
			return false
		}
		if match.HomeParticipantID != nil && *slot == *match.HomeParticipantID {
			return true
		}
		return match.AwayParticipantID != nil && *slot == *match.AwayParticipantID
	}
	for _, next := range nextMatches {
		if next.Details.Stage != models.StageKnockout || next.Details.IsThirdPlace {
			continue
		}
		if next.Details.MatchIndex == nil || *next.Details.MatchIndex != nextIndex {
			continue
		}
		if holds(next.HomeParticipantID) || holds(next.AwayParticipantID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *matchService) dispatch(ctx context.Context, match *models.Match, fx sideEffects) {
	switch {
	case fx.finalized:
		s.notifier.MatchResult(ctx, match, fx.userIDs)
	case fx.started:
		s.notifier.MatchStarted(ctx, match, fx.userIDs)
	default:
		s.notifier.MatchUpdated(ctx, match)
	}
	if fx.standings {
		s.notifier.StandingsUpdated(ctx, match.TournamentID)
	}
	if fx.finalized && fx.bracket {
		s.notifier.BracketUpdated(ctx, match.TournamentID)
	}
}

func mapMatchRepoError(err error) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return fmt.Errorf("match lookup failed: %w", err)
}

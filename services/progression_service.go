package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
)

// ProgressionService moves participants through a bracket: it fills the next
// knockout slot once a tie is decided, seeds the first knockout round from
// final group tables, and builds the 3rd-place playoff on demand.
//
// Resolution is re-entrant: it runs after every update that satisfies the
// fulltime condition, so a late penalty-score correction on a drawn tie
// resolves the slot on the rerun.
type ProgressionService struct {
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StandingRepository
	logger       *slog.Logger
}

func NewProgressionService(
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	logger *slog.Logger,
) *ProgressionService {
	return &ProgressionService{
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		logger:       logger,
	}
}

// ResolveAfterFulltime dispatches on the finished match's stage. Group-stage
// results may complete a group table; knockout results may decide a tie.
func (s *ProgressionService) ResolveAfterFulltime(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, match *models.Match) error {
	switch match.Details.Stage {
	case models.StageGroup:
		return s.ResolveGroupCompletion(ctx, exec, tournament, match.Details.GroupName)
	case models.StageKnockout:
		return s.ResolveKnockout(ctx, exec, tournament, match)
	}
	return nil
}

// ResolveKnockout decides the tie the finished match belongs to and, when a
// winner exists, advances it. A drawn single match without penalty scores is
// left unresolved rather than failed: the tie stays open for a correcting
// update.
func (s *ProgressionService) ResolveKnockout(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, match *models.Match) error {
	if match.Details.MatchIndex == nil {
		// 3rd-place playoff and other standalone fixtures feed nothing.
		return nil
	}

	var winnerID *int
	switch match.Details.Leg {
	case 0:
		w, err := singleWinner(match)
		if err != nil {
			return err
		}
		winnerID = w
	default:
		legs, err := s.tieLegs(ctx, exec, match)
		if err != nil {
			return err
		}
		if len(legs) < 2 {
			return fmt.Errorf("tie %s has %d legs, expected 2", match.Details.GroupID, len(legs))
		}
		for _, leg := range legs {
			if !leg.FulltimeReached() {
				return nil
			}
		}
		w, err := aggregateWinner(legs)
		if err != nil {
			return err
		}
		winnerID = w
	}

	if winnerID == nil {
		return nil
	}
	return s.AdvanceWinner(ctx, exec, match, *winnerID)
}

// AdvanceWinner writes the winner into the downstream slot: match i of a
// round feeds match i/2 of the next round, entering as home when i is even.
// With two-legged ties both legs of the downstream tie get the participant,
// on mirrored sides. Advancing from the final is a no-op.
func (s *ProgressionService) AdvanceWinner(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int) error {
	if match.Details.MatchIndex == nil {
		return nil
	}
	matchIndex := *match.Details.MatchIndex
	nextRound := match.Round + 1
	homeSlot := matchIndex%2 == 0
	nextIndex := matchIndex / 2

	nextMatches, err := s.matchRepo.ListByTournament(ctx, exec, match.TournamentID, &nextRound, nil)
	if err != nil {
		return fmt.Errorf("failed to load round %d matches: %w", nextRound, err)
	}

	for _, next := range nextMatches {
		if next.Details.Stage != models.StageKnockout || next.Details.IsThirdPlace {
			continue
		}
		if next.Details.MatchIndex == nil || *next.Details.MatchIndex != nextIndex {
			continue
		}
		if next.Status != models.MatchScheduled {
			continue
		}

		slotIsHome := homeSlot
		if next.Details.Leg == 2 {
			slotIsHome = !slotIsHome
		}
		id := winnerID
		if slotIsHome {
			next.HomeParticipantID = &id
		} else {
			next.AwayParticipantID = &id
		}
		if err := s.matchRepo.Update(ctx, exec, next); err != nil {
			return fmt.Errorf("failed to fill slot in match %d: %w", next.ID, err)
		}
		s.logger.InfoContext(ctx, "winner advanced",
			slog.Int("from_match_id", match.ID),
			slog.Int("to_match_id", next.ID),
			slog.Int("participant_id", winnerID),
		)
	}
	return nil
}

// ResolveGroupCompletion checks whether every match of the group has been
// completed and, if so, seeds the group's qualifiers into the first knockout
// round slots whose descriptors reference it.
func (s *ProgressionService) ResolveGroupCompletion(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, groupName string) error {
	if groupName == "" {
		return nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournament.ID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load matches for tournament %d: %w", tournament.ID, err)
	}

	for _, m := range matches {
		if m.Details.Stage == models.StageGroup && m.Details.GroupName == groupName && m.Status != models.MatchCompleted {
			return nil
		}
	}

	ranked, err := s.standingRepo.ListByTournament(ctx, exec, tournament.ID, &groupName, true)
	if err != nil {
		return fmt.Errorf("failed to rank group %q: %w", groupName, err)
	}

	for _, m := range matches {
		if m.Details.Stage != models.StageKnockout || m.Status != models.MatchScheduled {
			continue
		}

		changed := false
		if pid, ok := resolvedParticipant(m.Details.ResolveHome, groupName, ranked); ok {
			m.HomeParticipantID = pid
			changed = true
		}
		if pid, ok := resolvedParticipant(m.Details.ResolveAway, groupName, ranked); ok {
			m.AwayParticipantID = pid
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.matchRepo.Update(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to seed match %d from group %q: %w", m.ID, groupName, err)
		}
	}

	s.logger.InfoContext(ctx, "group stage resolved",
		slog.Int("tournament_id", tournament.ID),
		slog.String("group", groupName),
	)
	return nil
}

func resolvedParticipant(resolver *models.SlotResolver, groupName string, ranked []*models.Standing) (*int, bool) {
	if resolver == nil || resolver.Type != models.SlotResolverGroupResult || resolver.Group != groupName {
		return nil, false
	}
	if resolver.Pos < 1 || resolver.Pos > len(ranked) {
		return nil, false
	}
	id := ranked[resolver.Pos-1].ParticipantID
	return &id, true
}

// GenerateThirdPlace builds the playoff between the two semifinal losers,
// scheduled alongside the final. Both semifinal ties must already have a
// determinable winner.
func (s *ProgressionService) GenerateThirdPlace(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) (*models.Match, error) {
	if tournament.Type == models.TournamentLeague {
		return nil, ErrUnsupportedFormat
	}

	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournament.ID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for tournament %d: %w", tournament.ID, err)
	}

	finalRound := 0
	for _, m := range matches {
		if m.Details.IsThirdPlace {
			return nil, ErrThirdPlaceExists
		}
		if m.Details.Stage == models.StageKnockout && m.Round > finalRound {
			finalRound = m.Round
		}
	}
	if finalRound == 0 {
		return nil, ErrUnsupportedFormat
	}

	// Semifinal ties keyed by their slot in the round.
	semis := make(map[int][]*models.Match)
	for _, m := range matches {
		if m.Details.Stage != models.StageKnockout || m.Round != finalRound-1 {
			continue
		}
		if m.Details.MatchIndex == nil {
			continue
		}
		semis[*m.Details.MatchIndex] = append(semis[*m.Details.MatchIndex], m)
	}
	if len(semis) != 2 {
		// A two-participant bracket has a final and nothing else.
		return nil, ErrUnsupportedFormat
	}

	losers := make([]*int, 0, 2)
	for _, idx := range []int{0, 1} {
		legs := semis[idx]
		loser, err := tieLoser(legs)
		if err != nil {
			return nil, err
		}
		losers = append(losers, loser)
	}

	playoff := &models.Match{
		TournamentID:      tournament.ID,
		HomeParticipantID: losers[0],
		AwayParticipantID: losers[1],
		Round:             finalRound,
		Status:            models.MatchScheduled,
		Details: models.MatchDetails{
			Stage:        models.StageKnockout,
			RoundName:    "3rd Place Match",
			IsThirdPlace: true,
		},
	}
	if err := s.matchRepo.Create(ctx, exec, playoff); err != nil {
		return nil, fmt.Errorf("failed to create 3rd-place match: %w", err)
	}

	s.logger.InfoContext(ctx, "3rd-place match generated",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("match_id", playoff.ID),
	)
	return playoff, nil
}

// tieLegs loads every match of the tie the given leg belongs to.
func (s *ProgressionService) tieLegs(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) ([]*models.Match, error) {
	roundMatches, err := s.matchRepo.ListByTournament(ctx, exec, match.TournamentID, &match.Round, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load round %d matches: %w", match.Round, err)
	}
	legs := make([]*models.Match, 0, 2)
	for _, m := range roundMatches {
		if m.Details.GroupID != "" && m.Details.GroupID == match.Details.GroupID {
			legs = append(legs, m)
		}
	}
	return legs, nil
}

// tieLoser determines the loser of a decided semifinal tie (one or two legs).
func tieLoser(legs []*models.Match) (*int, error) {
	if len(legs) == 0 {
		return nil, ErrSemifinalsIncomplete
	}
	for _, leg := range legs {
		if !leg.FulltimeReached() {
			return nil, ErrSemifinalsIncomplete
		}
	}

	var winner *int
	var err error
	if len(legs) == 1 {
		winner, err = singleWinner(legs[0])
	} else {
		winner, err = aggregateWinner(legs)
	}
	if err != nil {
		if errors.Is(err, ErrMatchMissingOpponents) {
			return nil, ErrSemifinalsIncomplete
		}
		return nil, err
	}
	if winner == nil {
		return nil, ErrNoWinnerDeterminable
	}

	home := legs[0].HomeParticipantID
	away := legs[0].AwayParticipantID
	if home != nil && *home == *winner {
		return away, nil
	}
	return home, nil
}

// singleWinner decides a one-off match: higher score wins, a draw falls back
// to penalty scores. Returns nil when no winner is determinable.
func singleWinner(match *models.Match) (*int, error) {
	if match.HomeParticipantID == nil || match.AwayParticipantID == nil {
		return nil, ErrMatchMissingOpponents
	}
	homeScore := derefOrZero(match.HomeScore)
	awayScore := derefOrZero(match.AwayScore)

	switch {
	case homeScore > awayScore:
		return match.HomeParticipantID, nil
	case awayScore > homeScore:
		return match.AwayParticipantID, nil
	}

	if match.HomePenalty == nil || match.AwayPenalty == nil {
		return nil, nil
	}
	switch {
	case *match.HomePenalty > *match.AwayPenalty:
		return match.HomeParticipantID, nil
	case *match.AwayPenalty > *match.HomePenalty:
		return match.AwayParticipantID, nil
	}
	return nil, nil
}

// aggregateWinner decides a two-legged tie on total goals per participant
// across both legs, falling back to the second leg's penalty shoot-out.
func aggregateWinner(legs []*models.Match) (*int, error) {
	totals := make(map[int]int, 2)
	var secondLeg *models.Match
	for _, leg := range legs {
		if leg.HomeParticipantID == nil || leg.AwayParticipantID == nil {
			return nil, ErrMatchMissingOpponents
		}
		totals[*leg.HomeParticipantID] += derefOrZero(leg.HomeScore)
		totals[*leg.AwayParticipantID] += derefOrZero(leg.AwayScore)
		if leg.Details.Leg == 2 {
			secondLeg = leg
		}
	}

	first := legs[0]
	homeID := *first.HomeParticipantID
	awayID := *first.AwayParticipantID
	switch {
	case totals[homeID] > totals[awayID]:
		return &homeID, nil
	case totals[awayID] > totals[homeID]:
		return &awayID, nil
	}

	if secondLeg == nil || secondLeg.HomePenalty == nil || secondLeg.AwayPenalty == nil {
		return nil, nil
	}
	switch {
	case *secondLeg.HomePenalty > *secondLeg.AwayPenalty:
		return secondLeg.HomeParticipantID, nil
	case *secondLeg.AwayPenalty > *secondLeg.HomePenalty:
		return secondLeg.AwayParticipantID, nil
	}
	return nil, nil
}

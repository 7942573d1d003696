package services

import (
	"context"
	"fmt"

	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
)

// StandingsLedger turns one completed result into deltas on both
// participants' standing rows, and reverses them on reset. Reversal is
// floor-clamped per field so a double reset stays safe.
type StandingsLedger struct {
	standingRepo repositories.StandingRepository
}

func NewStandingsLedger(standingRepo repositories.StandingRepository) *StandingsLedger {
	return &StandingsLedger{standingRepo: standingRepo}
}

// outcomeFor computes (points, won, drawn, lost) for one side under 3/1/0.
func outcomeFor(goalsFor, goalsAgainst int) (points, won, drawn, lost int) {
	switch {
	case goalsFor > goalsAgainst:
		return 3, 1, 0, 0
	case goalsFor == goalsAgainst:
		return 1, 0, 1, 0
	default:
		return 0, 0, 0, 1
	}
}

func (l *StandingsLedger) Apply(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return l.mutate(ctx, exec, match, 1)
}

func (l *StandingsLedger) Reverse(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return l.mutate(ctx, exec, match, -1)
}

func (l *StandingsLedger) mutate(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, sign int) error {
	if match.HomeParticipantID == nil || match.AwayParticipantID == nil {
		return ErrMatchMissingOpponents
	}

	homeScore := derefOrZero(match.HomeScore)
	awayScore := derefOrZero(match.AwayScore)

	var groupName *string
	if match.Details.GroupName != "" {
		name := match.Details.GroupName
		groupName = &name
	}

	if err := l.mutateSide(ctx, exec, match.TournamentID, *match.HomeParticipantID, groupName, homeScore, awayScore, sign); err != nil {
		return fmt.Errorf("standings update for home participant %d: %w", *match.HomeParticipantID, err)
	}
	if err := l.mutateSide(ctx, exec, match.TournamentID, *match.AwayParticipantID, groupName, awayScore, homeScore, sign); err != nil {
		return fmt.Errorf("standings update for away participant %d: %w", *match.AwayParticipantID, err)
	}
	return nil
}

func (l *StandingsLedger) mutateSide(ctx context.Context, exec repositories.SQLExecutor, tournamentID, participantID int, groupName *string, goalsFor, goalsAgainst, sign int) error {
	standing, err := l.standingRepo.GetOrCreateForUpdate(ctx, exec, tournamentID, participantID, groupName)
	if err != nil {
		return err
	}

	points, won, drawn, lost := outcomeFor(goalsFor, goalsAgainst)

	if sign >= 0 {
		standing.Points += points
		standing.Played++
		standing.Won += won
		standing.Drawn += drawn
		standing.Lost += lost
		standing.GoalsFor += goalsFor
		standing.GoalsAgainst += goalsAgainst
	} else {
		standing.Points = clampZero(standing.Points - points)
		standing.Played = clampZero(standing.Played - 1)
		standing.Won = clampZero(standing.Won - won)
		standing.Drawn = clampZero(standing.Drawn - drawn)
		standing.Lost = clampZero(standing.Lost - lost)
		standing.GoalsFor = clampZero(standing.GoalsFor - goalsFor)
		standing.GoalsAgainst = clampZero(standing.GoalsAgainst - goalsAgainst)
	}
	standing.GoalDifference = standing.GoalsFor - standing.GoalsAgainst

	return l.standingRepo.Update(ctx, exec, standing)
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func derefOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

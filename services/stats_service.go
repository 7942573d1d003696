package services

import (
	"context"
	"fmt"

	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
)

// StatsService maintains season-long per-user statistics across tournaments:
// win=+6 / draw=+2 / loss=-4 points, goal totals, win rate, and a ranked
// history snapshot appended per finalized match.
type StatsService struct {
	statsRepo repositories.UserStatsRepository
}

func NewStatsService(statsRepo repositories.UserStatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

func seasonPoints(goalsFor, goalsAgainst int) int {
	switch {
	case goalsFor > goalsAgainst:
		return models.StatsPointsWin
	case goalsFor == goalsAgainst:
		return models.StatsPointsDraw
	default:
		return models.StatsPointsLoss
	}
}

// ApplyResult folds one finalized result into the user's aggregate and
// appends a history snapshot carrying the user's rank at this moment.
func (s *StatsService) ApplyResult(ctx context.Context, exec repositories.SQLExecutor, userID, matchID, goalsFor, goalsAgainst int) error {
	stats, err := s.statsRepo.GetOrCreateForUpdate(ctx, exec, userID)
	if err != nil {
		return fmt.Errorf("load stats for user %d: %w", userID, err)
	}

	stats.Points += seasonPoints(goalsFor, goalsAgainst)
	stats.MatchesPlayed++
	switch {
	case goalsFor > goalsAgainst:
		stats.Wins++
	case goalsFor == goalsAgainst:
		stats.Draws++
	default:
		stats.Losses++
	}
	stats.GoalsFor += goalsFor
	stats.GoalsAgainst += goalsAgainst
	stats.RecomputeWinRate()

	if err := s.statsRepo.Update(ctx, exec, stats); err != nil {
		return fmt.Errorf("update stats for user %d: %w", userID, err)
	}

	better, err := s.statsRepo.CountBetter(ctx, exec, stats)
	if err != nil {
		return err
	}
	snapshot := &models.UserStatSnapshot{
		UserID:  userID,
		MatchID: matchID,
		Points:  stats.Points,
		WinRate: stats.WinRate,
		Rank:    better + 1,
	}
	if err := s.statsRepo.CreateSnapshot(ctx, exec, snapshot); err != nil {
		return err
	}
	return nil
}

// ReverseResult subtracts the deltas ApplyResult added, floor-clamped so an
// out-of-order or repeated reset never drives an aggregate negative.
// Season points may legitimately be negative (losses subtract), so only the
// counters and goal totals are clamped.
func (s *StatsService) ReverseResult(ctx context.Context, exec repositories.SQLExecutor, userID, goalsFor, goalsAgainst int) error {
	stats, err := s.statsRepo.GetOrCreateForUpdate(ctx, exec, userID)
	if err != nil {
		return fmt.Errorf("load stats for user %d: %w", userID, err)
	}

	stats.Points -= seasonPoints(goalsFor, goalsAgainst)
	stats.MatchesPlayed = clampZero(stats.MatchesPlayed - 1)
	switch {
	case goalsFor > goalsAgainst:
		stats.Wins = clampZero(stats.Wins - 1)
	case goalsFor == goalsAgainst:
		stats.Draws = clampZero(stats.Draws - 1)
	default:
		stats.Losses = clampZero(stats.Losses - 1)
	}
	stats.GoalsFor = clampZero(stats.GoalsFor - goalsFor)
	stats.GoalsAgainst = clampZero(stats.GoalsAgainst - goalsAgainst)
	stats.RecomputeWinRate()

	if err := s.statsRepo.Update(ctx, exec, stats); err != nil {
		return fmt.Errorf("update stats for user %d: %w", userID, err)
	}
	return nil
}

// RemoveSnapshots deletes the history rows a match's finalization appended,
// for all users involved.
func (s *StatsService) RemoveSnapshots(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	return s.statsRepo.DeleteSnapshotsByMatch(ctx, exec, matchID)
}

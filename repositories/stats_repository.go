package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ligahub/match-engine/models"
)

var ErrUserStatsNotFound = errors.New("user stats not found")

type UserStatsRepository interface {
	// GetOrCreateForUpdate locks (creating if absent) the user's season
	// aggregate row for read-modify-write.
	GetOrCreateForUpdate(ctx context.Context, exec SQLExecutor, userID int) (*models.UserStats, error)
	Update(ctx context.Context, exec SQLExecutor, stats *models.UserStats) error
	// CountBetter returns how many users rank strictly above the given
	// aggregate by points, then win rate, then goal difference, then goals
	// for. Rank is that count plus one.
	CountBetter(ctx context.Context, exec SQLExecutor, stats *models.UserStats) (int, error)
	CreateSnapshot(ctx context.Context, exec SQLExecutor, snapshot *models.UserStatSnapshot) error
	DeleteSnapshotsByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresUserStatsRepository struct {
	db *sql.DB
}

func NewPostgresUserStatsRepository(db *sql.DB) UserStatsRepository {
	return &postgresUserStatsRepository{db: db}
}

func (r *postgresUserStatsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userStatsColumns = `id, user_id, points, matches_played, wins, draws, losses,
	       goals_for, goals_against, win_rate, updated_at`

func (r *postgresUserStatsRepository) GetOrCreateForUpdate(ctx context.Context, exec SQLExecutor, userID int) (*models.UserStats, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + userStatsColumns + ` FROM user_stats WHERE user_id = $1 FOR UPDATE`

	var s models.UserStats
	err := executor.QueryRowContext(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Points, &s.MatchesPlayed, &s.Wins, &s.Draws, &s.Losses,
		&s.GoalsFor, &s.GoalsAgainst, &s.WinRate, &s.UpdatedAt,
	)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to scan user stats for user %d: %w", userID, err)
	}

	s = models.UserStats{UserID: userID, UpdatedAt: time.Now()}
	insert := `INSERT INTO user_stats (user_id, updated_at) VALUES ($1, $2) RETURNING id`
	if insertErr := executor.QueryRowContext(ctx, insert, s.UserID, s.UpdatedAt).Scan(&s.ID); insertErr != nil {
		return nil, fmt.Errorf("failed to create user stats for user %d: %w", userID, insertErr)
	}
	return &s, nil
}

func (r *postgresUserStatsRepository) Update(ctx context.Context, exec SQLExecutor, stats *models.UserStats) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE user_stats SET
			points = $1, matches_played = $2, wins = $3, draws = $4, losses = $5,
			goals_for = $6, goals_against = $7, win_rate = $8, updated_at = NOW()
		WHERE id = $9`
	result, err := executor.ExecContext(ctx, query,
		stats.Points, stats.MatchesPlayed, stats.Wins, stats.Draws, stats.Losses,
		stats.GoalsFor, stats.GoalsAgainst, stats.WinRate, stats.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserStatsNotFound)
}

func (r *postgresUserStatsRepository) CountBetter(ctx context.Context, exec SQLExecutor, stats *models.UserStats) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COUNT(*)
		FROM user_stats
		WHERE user_id <> $1
		  AND (points, win_rate, goals_for - goals_against, goals_for) >
		      ($2, $3, $4, $5)`
	var count int
	err := executor.QueryRowContext(ctx, query,
		stats.UserID, stats.Points, stats.WinRate, stats.GoalsFor-stats.GoalsAgainst, stats.GoalsFor,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to rank user %d: %w", stats.UserID, err)
	}
	return count, nil
}

func (r *postgresUserStatsRepository) CreateSnapshot(ctx context.Context, exec SQLExecutor, snapshot *models.UserStatSnapshot) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO user_stat_snapshots (user_id, match_id, points, win_rate, rank)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		snapshot.UserID, snapshot.MatchID, snapshot.Points, snapshot.WinRate, snapshot.Rank,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stat snapshot for user %d: %w", snapshot.UserID, err)
	}
	return nil
}

func (r *postgresUserStatsRepository) DeleteSnapshotsByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM user_stat_snapshots WHERE match_id = $1`, matchID)
	return err
}

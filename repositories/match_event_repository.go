package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ligahub/match-engine/models"
)

var ErrMatchEventNotFound = errors.New("match event not found")

type MatchEventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.MatchEvent) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchEvent, error)
	// GetLastByMatch returns the most recently appended event for the match.
	GetLastByMatch(ctx context.Context, exec SQLExecutor, matchID int) (*models.MatchEvent, error)
	HasEventOfType(ctx context.Context, exec SQLExecutor, matchID int, eventType models.MatchEventType) (bool, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresMatchEventRepository struct {
	db *sql.DB
}

func NewPostgresMatchEventRepository(db *sql.DB) MatchEventRepository {
	return &postgresMatchEventRepository{db: db}
}

func (r *postgresMatchEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchEventColumns = `id, match_id, type, minute, team_side, player, created_at`

func (r *postgresMatchEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.MatchEvent) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_events (match_id, type, minute, team_side, player)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		event.MatchID, event.Type, event.Minute, event.TeamSide, event.Player,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match event for match %d: %w", event.MatchID, err)
	}
	return nil
}

func scanMatchEvent(rowScanner interface{ Scan(...interface{}) error }) (*models.MatchEvent, error) {
	var e models.MatchEvent
	err := rowScanner.Scan(&e.ID, &e.MatchID, &e.Type, &e.Minute, &e.TeamSide, &e.Player, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresMatchEventRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchEvent, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchEventColumns + ` FROM match_events WHERE match_id = $1 ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for match %d: %w", matchID, err)
	}
	defer rows.Close()

	events := make([]*models.MatchEvent, 0)
	for rows.Next() {
		e, scanErr := scanMatchEvent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match event row: %w", scanErr)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresMatchEventRepository) GetLastByMatch(ctx context.Context, exec SQLExecutor, matchID int) (*models.MatchEvent, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchEventColumns + ` FROM match_events WHERE match_id = $1 ORDER BY id DESC LIMIT 1`
	return scanMatchEvent(executor.QueryRowContext(ctx, query, matchID))
}

func (r *postgresMatchEventRepository) HasEventOfType(ctx context.Context, exec SQLExecutor, matchID int, eventType models.MatchEventType) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM match_events WHERE match_id = $1 AND type = $2)`,
		matchID, eventType,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to probe %s event for match %d: %w", eventType, matchID, err)
	}
	return exists, nil
}

func (r *postgresMatchEventRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM match_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchEventNotFound)
}

func (r *postgresMatchEventRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM match_events WHERE match_id = $1`, matchID)
	return err
}

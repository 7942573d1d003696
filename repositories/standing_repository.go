package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ligahub/match-engine/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	// GetForUpdate locks the participant's standing row for read-modify-write.
	GetForUpdate(ctx context.Context, exec SQLExecutor, tournamentID, participantID int) (*models.Standing, error)
	// GetOrCreateForUpdate covers the should-not-happen case of a qualifying
	// result arriving for a participant without a pre-created row.
	GetOrCreateForUpdate(ctx context.Context, exec SQLExecutor, tournamentID, participantID int, groupName *string) (*models.Standing, error)
	Update(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
	// ListByTournament returns rows ordered by rank (points desc, goal
	// difference desc, goals for desc) when ranked, else by participant id.
	// groupFilter nil means all groups.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, groupFilter *string, ranked bool) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const standingColumns = `id, tournament_id, participant_id, group_name, points, played, won, drawn,
	       lost, goals_for, goals_against, goal_difference, updated_at`

func (r *postgresStandingRepository) Create(ctx context.Context, exec SQLExecutor, standing *models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO standings
			(tournament_id, participant_id, group_name, points, played, won, drawn,
			 lost, goals_for, goals_against, goal_difference, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if standing.UpdatedAt.IsZero() {
		standing.UpdatedAt = time.Now()
	}
	return executor.QueryRowContext(ctx, query,
		standing.TournamentID, standing.ParticipantID, standing.GroupName, standing.Points,
		standing.Played, standing.Won, standing.Drawn, standing.Lost,
		standing.GoalsFor, standing.GoalsAgainst, standing.GoalDifference, standing.UpdatedAt,
	).Scan(&standing.ID)
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	if len(standings) == 0 {
		return nil
	}
	for _, standing := range standings {
		if err := r.Create(ctx, exec, standing); err != nil {
			return fmt.Errorf("BatchCreate failed for participant %d: %w", standing.ParticipantID, err)
		}
	}
	return nil
}

func scanStanding(rowScanner interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	var s models.Standing
	err := rowScanner.Scan(
		&s.ID, &s.TournamentID, &s.ParticipantID, &s.GroupName, &s.Points, &s.Played,
		&s.Won, &s.Drawn, &s.Lost, &s.GoalsFor, &s.GoalsAgainst, &s.GoalDifference, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, tournamentID, participantID int) (*models.Standing, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + standingColumns + `
		FROM standings
		WHERE tournament_id = $1 AND participant_id = $2
		FOR UPDATE`
	return scanStanding(executor.QueryRowContext(ctx, query, tournamentID, participantID))
}

func (r *postgresStandingRepository) GetOrCreateForUpdate(ctx context.Context, exec SQLExecutor, tournamentID, participantID int, groupName *string) (*models.Standing, error) {
	standing, err := r.GetForUpdate(ctx, exec, tournamentID, participantID)
	if err != nil {
		if errors.Is(err, ErrStandingNotFound) {
			newStanding := &models.Standing{
				TournamentID:  tournamentID,
				ParticipantID: participantID,
				GroupName:     groupName,
				UpdatedAt:     time.Now(),
			}
			if createErr := r.Create(ctx, exec, newStanding); createErr != nil {
				return nil, fmt.Errorf("failed to create standing for t:%d p:%d: %w", tournamentID, participantID, createErr)
			}
			return newStanding, nil
		}
		return nil, fmt.Errorf("failed to get standing for t:%d p:%d: %w", tournamentID, participantID, err)
	}
	return standing, nil
}

func (r *postgresStandingRepository) Update(ctx context.Context, exec SQLExecutor, standing *models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE standings SET
			points = $1, played = $2, won = $3, drawn = $4, lost = $5,
			goals_for = $6, goals_against = $7, goal_difference = $8, updated_at = NOW()
		WHERE id = $9`
	result, err := executor.ExecContext(ctx, query,
		standing.Points, standing.Played, standing.Won, standing.Drawn, standing.Lost,
		standing.GoalsFor, standing.GoalsAgainst, standing.GoalDifference, standing.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, groupFilter *string, ranked bool) ([]*models.Standing, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + standingColumns + ` FROM standings WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if groupFilter != nil {
		queryBuilder.WriteString(" AND group_name = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *groupFilter)
	}

	if ranked {
		queryBuilder.WriteString(" ORDER BY points DESC, goal_difference DESC, goals_for DESC, participant_id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY participant_id ASC")
	}

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

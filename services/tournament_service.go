package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
)

type TournamentService interface {
	// GetOverview returns the tournament with participants, matches and the
	// ranked standings table attached.
	GetOverview(ctx context.Context, tournamentID int) (*models.Tournament, error)
	ListMatches(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	ListStandings(ctx context.Context, tournamentID int, groupFilter *string) ([]*models.Standing, error)
	// Finalize moves an active tournament to completed once every match is
	// done.
	Finalize(ctx context.Context, tournamentID int) (*models.Tournament, error)
	GenerateThirdPlaceMatch(ctx context.Context, tournamentID int) (*models.Match, error)
}

type tournamentService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	standingRepo    repositories.StandingRepository
	progression     *ProgressionService
	notifier        Notifier
	logger          *slog.Logger
}

func NewTournamentService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	progression *ProgressionService,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		standingRepo:    standingRepo,
		progression:     progression,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *tournamentService) GetOverview(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gCtx, nil, tournamentID, nil)
		if err != nil {
			return err
		}
		tournament.Participants = make([]models.Participant, len(participants))
		for i, p := range participants {
			tournament.Participants[i] = *p
		}
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, nil, tournamentID, nil, nil)
		if err != nil {
			return err
		}
		tournament.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			tournament.Matches[i] = *m
		}
		return nil
	})
	g.Go(func() error {
		standings, err := s.standingRepo.ListByTournament(gCtx, nil, tournamentID, nil, true)
		if err != nil {
			return err
		}
		tournament.Standings = make([]models.Standing, len(standings))
		for i, st := range standings {
			tournament.Standings[i] = *st
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) ListMatches(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID, roundFilter, statusFilter)
}

func (s *tournamentService) ListStandings(ctx context.Context, tournamentID int, groupFilter *string) ([]*models.Standing, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.standingRepo.ListByTournament(ctx, nil, tournamentID, groupFilter, true)
}

func (s *tournamentService) Finalize(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if tournament.Status != models.StatusActive {
			return ErrTournamentNotActive
		}

		matches, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID, nil, nil)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return ErrTournamentUnfinished
		}
		for _, m := range matches {
			if m.Status != models.MatchCompleted {
				return ErrTournamentUnfinished
			}
		}

		if err = s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusCompleted); err != nil {
			return err
		}
		tournament.Status = models.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament finalized", slog.Int("tournament_id", tournamentID))
	return tournament, nil
}

func (s *tournamentService) GenerateThirdPlaceMatch(ctx context.Context, tournamentID int) (*models.Match, error) {
	var playoff *models.Match
	err := s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		// The row lock serializes concurrent attempts so the duplicate check
		// inside the generator holds.
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err)
		}

		playoff, err = s.progression.GenerateThirdPlace(ctx, tx, tournament)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.BracketUpdated(ctx, tournamentID)
	return playoff, nil
}

func mapTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

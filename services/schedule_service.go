package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ligahub/match-engine/brackets"
	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
)

type ScheduleService interface {
	// GenerateSchedule builds and persists the full fixture list for a draft
	// tournament and activates it. Returns the number of matches created.
	GenerateSchedule(ctx context.Context, tournamentID int) (int, error)
}

type scheduleService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	standingRepo    repositories.StandingRepository
	progression     *ProgressionService
	notifier        Notifier
	logger          *slog.Logger

	// shuffleSeed fixes the draw when non-zero; zero means a fresh draw
	// every generation.
	shuffleSeed int64
}

func NewScheduleService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	progression *ProgressionService,
	notifier Notifier,
	logger *slog.Logger,
	shuffleSeed int64,
) ScheduleService {
	return &scheduleService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		standingRepo:    standingRepo,
		progression:     progression,
		notifier:        notifier,
		logger:          logger,
		shuffleSeed:     shuffleSeed,
	}
}

func minParticipantsFor(t models.TournamentType) int {
	if t == models.TournamentGroupKnockout {
		return 4
	}
	return 2
}

func (s *scheduleService) GenerateSchedule(ctx context.Context, tournamentID int) (int, error) {
	var created int
	err := s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrTournamentNotDraft
		}

		// The row lock makes this check race-free against a concurrent
		// generation of the same tournament.
		existing, err := s.matchRepo.CountByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyGenerated
		}

		approved := models.ParticipantApproved
		participants, err := s.participantRepo.ListByTournament(ctx, tx, tournamentID, &approved)
		if err != nil {
			return err
		}
		if len(participants) < minParticipantsFor(tournament.Type) {
			return ErrInsufficientParticipants
		}

		generator, err := brackets.ForType(tournament.Type)
		if err != nil {
			return err
		}

		seed := s.shuffleSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		fixtures, err := generator.Generate(ctx, brackets.GenerateParams{
			Tournament:   tournament,
			Participants: participants,
			Rand:         rand.New(rand.NewSource(seed)),
		})
		if err != nil {
			return err
		}

		matches := make([]*models.Match, 0, len(fixtures))
		for _, f := range fixtures {
			match := &models.Match{
				TournamentID:      tournamentID,
				HomeParticipantID: f.HomeParticipantID,
				AwayParticipantID: f.AwayParticipantID,
				Round:             f.Round,
				Status:            models.MatchScheduled,
				Details:           f.Details,
			}
			if err = s.matchRepo.Create(ctx, tx, match); err != nil {
				return err
			}
			matches = append(matches, match)
		}

		if err = s.seedStandings(ctx, tx, tournament, participants, matches); err != nil {
			return err
		}
		if err = s.advanceWalkovers(ctx, tx, matches); err != nil {
			return err
		}

		if err = s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusActive); err != nil {
			return err
		}

		created = len(matches)
		s.logger.InfoContext(ctx, "schedule generated",
			slog.Int("tournament_id", tournamentID),
			slog.String("type", string(tournament.Type)),
			slog.String("generator", generator.Name()),
			slog.Int("matches", created),
		)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifier.BracketUpdated(ctx, tournamentID)
	return created, nil
}

// seedStandings pre-creates zeroed table rows for every participant of a
// standings-bearing format. Group membership is read back off the generated
// group fixtures so the table carries the same labels the bracket does.
func (s *scheduleService) seedStandings(ctx context.Context, tx repositories.SQLExecutor, tournament *models.Tournament, participants []*models.Participant, matches []*models.Match) error {
	switch tournament.Type {
	case models.TournamentLeague, models.TournamentGroupKnockout:
	default:
		return nil
	}

	groupOf := make(map[int]string)
	if tournament.Type == models.TournamentGroupKnockout {
		for _, m := range matches {
			if m.Details.Stage != models.StageGroup {
				continue
			}
			if m.HomeParticipantID != nil {
				groupOf[*m.HomeParticipantID] = m.Details.GroupName
			}
			if m.AwayParticipantID != nil {
				groupOf[*m.AwayParticipantID] = m.Details.GroupName
			}
		}
	}

	standings := make([]*models.Standing, 0, len(participants))
	for _, p := range participants {
		var groupName *string
		if name, ok := groupOf[p.ID]; ok {
			groupName = &name
		}
		standings = append(standings, &models.Standing{
			TournamentID:  tournament.ID,
			ParticipantID: p.ID,
			GroupName:     groupName,
		})
	}
	return s.standingRepo.BatchCreate(ctx, tx, standings)
}

// advanceWalkovers completes first-round byes immediately: a match with a
// single concrete participant is a walkover and its participant moves to the
// next round before the tournament even starts.
func (s *scheduleService) advanceWalkovers(ctx context.Context, tx repositories.SQLExecutor, matches []*models.Match) error {
	now := time.Now()
	for _, m := range matches {
		if m.Details.Stage != models.StageKnockout {
			continue
		}

		var lone *int
		switch {
		case m.HomeParticipantID != nil && m.AwayParticipantID == nil && m.Details.ResolveAway == nil:
			lone = m.HomeParticipantID
		case m.AwayParticipantID != nil && m.HomeParticipantID == nil && m.Details.ResolveHome == nil:
			lone = m.AwayParticipantID
		default:
			continue
		}

		m.Status = models.MatchCompleted
		m.FinalizedAt = &now
		if err := s.matchRepo.Update(ctx, tx, m); err != nil {
			return err
		}
		if err := s.progression.AdvanceWinner(ctx, tx, m, *lone); err != nil {
			return err
		}
	}
	return nil
}

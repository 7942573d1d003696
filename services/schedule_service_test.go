package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/ligahub/match-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleFixture struct {
	svc            ScheduleService
	matchRepo      *fakeMatchRepo
	standingRepo   *fakeStandingRepo
	tournamentRepo *fakeTournamentRepo
}

func newScheduleFixture(tournament *models.Tournament, participantCount int) *scheduleFixture {
	participants := make([]*models.Participant, participantCount)
	for i := 0; i < participantCount; i++ {
		participants[i] = &models.Participant{
			ID:           i + 1,
			TournamentID: tournament.ID,
			Name:         fmt.Sprintf("Team %d", i+1),
			Status:       models.ParticipantApproved,
		}
	}

	f := &scheduleFixture{
		matchRepo:      newFakeMatchRepo(),
		standingRepo:   newFakeStandingRepo(),
		tournamentRepo: newFakeTournamentRepo(tournament),
	}
	logger := testLogger()
	progression := NewProgressionService(f.matchRepo, f.standingRepo, logger)
	f.svc = NewScheduleService(
		fakeTxManager{},
		f.tournamentRepo,
		newFakeParticipantRepo(participants...),
		f.matchRepo,
		f.standingRepo,
		progression,
		noopNotifier{},
		logger,
		42,
	)
	return f
}

func TestGenerateScheduleLeague(t *testing.T) {
	ctx := context.Background()
	tournament := &models.Tournament{ID: 1, Type: models.TournamentLeague, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
	f := newScheduleFixture(tournament, 4)

	created, err := f.svc.GenerateSchedule(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	matches, err := f.matchRepo.ListByTournament(ctx, nil, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 6)
	for _, m := range matches {
		assert.Equal(t, models.MatchScheduled, m.Status)
		require.NotNil(t, m.HomeParticipantID)
		require.NotNil(t, m.AwayParticipantID)
	}

	standings, err := f.standingRepo.ListByTournament(ctx, nil, 1, nil, false)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	for _, s := range standings {
		assert.Nil(t, s.GroupName)
		assert.Zero(t, s.Points)
		assert.Zero(t, s.Played)
	}

	assert.Equal(t, models.StatusActive, f.tournamentRepo.tournaments[1].Status)
}

func TestGenerateScheduleIsOneShot(t *testing.T) {
	ctx := context.Background()
	tournament := &models.Tournament{ID: 1, Type: models.TournamentLeague, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
	f := newScheduleFixture(tournament, 4)

	_, err := f.svc.GenerateSchedule(ctx, 1)
	require.NoError(t, err)

	// The tournament is active now, so a rerun fails the draft check; force
	// it back to draft to hit the duplicate-schedule guard itself.
	tournament.Status = models.StatusDraft
	_, err = f.svc.GenerateSchedule(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyGenerated)
}

func TestGenerateScheduleRequiresDraft(t *testing.T) {
	ctx := context.Background()
	tournament := &models.Tournament{ID: 1, Type: models.TournamentLeague, MatchFormat: models.MatchFormatSingle, Status: models.StatusActive}
	f := newScheduleFixture(tournament, 4)

	_, err := f.svc.GenerateSchedule(ctx, 1)
	assert.ErrorIs(t, err, ErrTournamentNotDraft)
}

func TestGenerateScheduleRequiresParticipants(t *testing.T) {
	ctx := context.Background()

	t.Run("league needs two", func(t *testing.T) {
		tournament := &models.Tournament{ID: 1, Type: models.TournamentLeague, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
		f := newScheduleFixture(tournament, 1)
		_, err := f.svc.GenerateSchedule(ctx, 1)
		assert.ErrorIs(t, err, ErrInsufficientParticipants)
	})

	t.Run("hybrid needs four", func(t *testing.T) {
		tournament := &models.Tournament{ID: 1, Type: models.TournamentGroupKnockout, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
		f := newScheduleFixture(tournament, 3)
		_, err := f.svc.GenerateSchedule(ctx, 1)
		assert.ErrorIs(t, err, ErrInsufficientParticipants)
	})
}

func TestGenerateScheduleUnknownTournament(t *testing.T) {
	ctx := context.Background()
	tournament := &models.Tournament{ID: 1, Type: models.TournamentLeague, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
	f := newScheduleFixture(tournament, 4)

	_, err := f.svc.GenerateSchedule(ctx, 99)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestGenerateScheduleKnockoutAdvancesWalkovers(t *testing.T) {
	ctx := context.Background()
	tournament := &models.Tournament{ID: 1, Type: models.TournamentKnockout, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
	f := newScheduleFixture(tournament, 3)

	created, err := f.svc.GenerateSchedule(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, created, "bracket of 4: two semifinals and a final")

	matches, err := f.matchRepo.ListByTournament(ctx, nil, 1, nil, nil)
	require.NoError(t, err)

	var walkover, contested, final *models.Match
	for _, m := range matches {
		switch {
		case m.Round == 2:
			final = m
		case m.AwayParticipantID == nil:
			walkover = m
		default:
			contested = m
		}
	}
	require.NotNil(t, walkover)
	require.NotNil(t, contested)
	require.NotNil(t, final)

	// The bye match is already settled and its participant waits in the
	// final; the contested semifinal still has to be played.
	assert.Equal(t, models.MatchCompleted, walkover.Status)
	require.NotNil(t, walkover.FinalizedAt)
	assert.Equal(t, models.MatchScheduled, contested.Status)

	advanced := final.HomeParticipantID
	if advanced == nil {
		advanced = final.AwayParticipantID
	}
	require.NotNil(t, advanced)
	assert.Equal(t, *walkover.HomeParticipantID, *advanced)
}

func TestGenerateScheduleGroupKnockoutSeedsGroupTables(t *testing.T) {
	ctx := context.Background()
	tournament := &models.Tournament{ID: 1, Type: models.TournamentGroupKnockout, MatchFormat: models.MatchFormatSingle, Status: models.StatusDraft}
	f := newScheduleFixture(tournament, 8)

	_, err := f.svc.GenerateSchedule(ctx, 1)
	require.NoError(t, err)

	standings, err := f.standingRepo.ListByTournament(ctx, nil, 1, nil, false)
	require.NoError(t, err)
	require.Len(t, standings, 8)

	perGroup := make(map[string]int)
	for _, s := range standings {
		require.NotNil(t, s.GroupName)
		perGroup[*s.GroupName]++
	}
	assert.Equal(t, map[string]int{"Group A": 4, "Group B": 4}, perGroup)
}

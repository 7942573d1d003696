package brackets

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ligahub/match-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knockoutTournament(format models.MatchFormat) *models.Tournament {
	return &models.Tournament{
		ID:          1,
		Name:        "Test Cup",
		Type:        models.TournamentKnockout,
		MatchFormat: format,
		Status:      models.StatusDraft,
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 6: 8, 8: 8, 9: 16, 16: 16, 17: 32}
	for n, expected := range cases {
		assert.Equal(t, expected, nextPowerOfTwo(n), "n=%d", n)
	}
}

func TestSingleEliminationSixParticipants(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	fixtures, err := gen.Generate(context.Background(), GenerateParams{
		Tournament:   knockoutTournament(models.MatchFormatSingle),
		Participants: testParticipants(6),
		Rand:         rand.New(rand.NewSource(11)),
	})
	require.NoError(t, err)

	// Bracket of 8: 4 + 2 + 1 matches.
	require.Len(t, fixtures, 7)

	byRound := make(map[int][]*Fixture)
	for _, f := range fixtures {
		assert.Equal(t, models.StageKnockout, f.Details.Stage)
		require.NotNil(t, f.Details.MatchIndex)
		byRound[f.Round] = append(byRound[f.Round], f)
	}
	require.Len(t, byRound[1], 4)
	require.Len(t, byRound[2], 2)
	require.Len(t, byRound[3], 1)

	// Two byes spread across different round-1 matches, never facing each
	// other.
	byes := 0
	for _, f := range byRound[1] {
		require.NotNil(t, f.HomeParticipantID, "home slots are always seeded in round 1")
		if f.AwayParticipantID == nil {
			byes++
		}
	}
	assert.Equal(t, 2, byes)

	assert.Equal(t, "Quarter-final", byRound[1][0].Details.RoundName)
	assert.Equal(t, "Semi-final", byRound[2][0].Details.RoundName)
	assert.Equal(t, "Final", byRound[3][0].Details.RoundName)

	// Later rounds are empty skeleton slots.
	for round := 2; round <= 3; round++ {
		for _, f := range byRound[round] {
			assert.Nil(t, f.HomeParticipantID)
			assert.Nil(t, f.AwayParticipantID)
		}
	}
}

func TestSingleEliminationMatchIndexFeedsNextRound(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	fixtures, err := gen.Generate(context.Background(), GenerateParams{
		Tournament:   knockoutTournament(models.MatchFormatSingle),
		Participants: testParticipants(8),
		Rand:         rand.New(rand.NewSource(5)),
	})
	require.NoError(t, err)

	indexes := make(map[int][]int)
	for _, f := range fixtures {
		indexes[f.Round] = append(indexes[f.Round], *f.Details.MatchIndex)
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, indexes[1])
	assert.ElementsMatch(t, []int{0, 1}, indexes[2])
	assert.ElementsMatch(t, []int{0}, indexes[3])
}

func TestSingleEliminationHomeAwayLegs(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	fixtures, err := gen.Generate(context.Background(), GenerateParams{
		Tournament:   knockoutTournament(models.MatchFormatHomeAway),
		Participants: testParticipants(4),
		Rand:         rand.New(rand.NewSource(9)),
	})
	require.NoError(t, err)

	// Two semifinal ties over two legs plus a single final.
	require.Len(t, fixtures, 5)

	ties := make(map[string][]*Fixture)
	var final *Fixture
	for _, f := range fixtures {
		if f.Round == 2 {
			final = f
			continue
		}
		require.NotEmpty(t, f.Details.GroupID)
		ties[f.Details.GroupID] = append(ties[f.Details.GroupID], f)
	}

	require.NotNil(t, final)
	assert.Equal(t, 0, final.Details.Leg, "the final is a single match")
	assert.Equal(t, "Final", final.Details.RoundName)

	require.Len(t, ties, 2)
	for tieKey, legs := range ties {
		require.Len(t, legs, 2, "tie %s", tieKey)
		var first, second *Fixture
		for _, leg := range legs {
			switch leg.Details.Leg {
			case 1:
				first = leg
			case 2:
				second = leg
			}
		}
		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, *first.Details.MatchIndex, *second.Details.MatchIndex)
		assert.Equal(t, *first.HomeParticipantID, *second.AwayParticipantID)
		assert.Equal(t, *first.AwayParticipantID, *second.HomeParticipantID)
	}
}

func TestSingleEliminationRejectsTinyField(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	_, err := gen.Generate(context.Background(), GenerateParams{
		Tournament:   knockoutTournament(models.MatchFormatSingle),
		Participants: testParticipants(1),
	})
	assert.Error(t, err)
}

package brackets

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ligahub/match-engine/models"
)

// Fixture is one generated match descriptor. Generators are pure: they never
// touch persistence, the schedule service owns the batch insert.
type Fixture struct {
	HomeParticipantID *int
	AwayParticipantID *int
	Round             int
	Details           models.MatchDetails
}

type GenerateParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant

	// Rand drives the draw order. Callers inject a seeded source so tests
	// can assert exact bracket shape.
	Rand *rand.Rand
}

type ScheduleGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error)
	Name() string
}

// ForType selects the generator for a tournament type.
func ForType(t models.TournamentType) (ScheduleGenerator, error) {
	switch t {
	case models.TournamentLeague:
		return NewRoundRobinGenerator(), nil
	case models.TournamentKnockout:
		return NewSingleEliminationGenerator(), nil
	case models.TournamentGroupKnockout:
		return NewGroupKnockoutGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament type %q", t)
	}
}

func shuffledIDs(participants []*models.Participant, rnd *rand.Rand) []int {
	ids := make([]int, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	if rnd != nil {
		rnd.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}
	return ids
}

func roundLabel(matchesInRound int) string {
	switch matchesInRound {
	case 1:
		return "Final"
	case 2:
		return "Semi-final"
	case 4:
		return "Quarter-final"
	case 8:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round of %d", matchesInRound*2)
	}
}

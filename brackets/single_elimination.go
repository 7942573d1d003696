package brackets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ligahub/match-engine/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() ScheduleGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate shuffles the field, pads it to the next power of two with byes and
// builds every round up front. Only round 1 carries concrete participant ids;
// a nil opponent there is a walkover for the schedule service to advance.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("SingleEliminationGenerator: not enough participants (found %d, min 2 required)", n)
	}

	ids := shuffledIDs(params.Participants, params.Rand)
	bracketSize := nextPowerOfTwo(n)

	// Pair slot i against slot bracketSize-1-i so the byes at the tail spread
	// one per match instead of meeting each other.
	firstRound := make([]slotPair, bracketSize/2)
	slotID := func(i int) *int {
		if i < n {
			return intPtr(ids[i])
		}
		return nil
	}
	for i := 0; i < bracketSize/2; i++ {
		firstRound[i] = slotPair{
			home: slotID(i),
			away: slotID(bracketSize - 1 - i),
		}
	}

	homeAway := params.Tournament.MatchFormat == models.MatchFormatHomeAway
	return knockoutFixtures(firstRound, 0, homeAway), nil
}

type slotPair struct {
	home, away               *int
	resolveHome, resolveAway *models.SlotResolver
}

// knockoutFixtures builds a full elimination tree over len(firstRound)*2
// bracket slots. Rounds are numbered roundOffset+1 onward; match i of a round
// feeds match i/2 of the next, as home when i is even. With homeAway every
// non-final round is played over two legs sharing a tie key; the final is
// always a single match.
func knockoutFixtures(firstRound []slotPair, roundOffset int, homeAway bool) []*Fixture {
	fixtures := make([]*Fixture, 0, len(firstRound)*4)

	matchesInRound := len(firstRound)
	round := roundOffset + 1
	for matchesInRound >= 1 {
		isFinal := matchesInRound == 1
		label := roundLabel(matchesInRound)

		for i := 0; i < matchesInRound; i++ {
			var pair slotPair
			if round == roundOffset+1 {
				pair = firstRound[i]
			}

			details := models.MatchDetails{
				Stage:       models.StageKnockout,
				MatchIndex:  intPtr(i),
				RoundName:   label,
				ResolveHome: pair.resolveHome,
				ResolveAway: pair.resolveAway,
			}

			if homeAway && !isFinal {
				tieKey := uuid.New().String()
				details.Leg = 1
				details.GroupID = tieKey
				fixtures = append(fixtures, &Fixture{
					HomeParticipantID: pair.home,
					AwayParticipantID: pair.away,
					Round:             round,
					Details:           details,
				})
				fixtures = append(fixtures, &Fixture{
					HomeParticipantID: pair.away,
					AwayParticipantID: pair.home,
					Round:             round,
					Details: models.MatchDetails{
						Stage:       models.StageKnockout,
						MatchIndex:  intPtr(i),
						RoundName:   label,
						Leg:         2,
						GroupID:     tieKey,
						ResolveHome: pair.resolveAway,
						ResolveAway: pair.resolveHome,
					},
				})
			} else {
				fixtures = append(fixtures, &Fixture{
					HomeParticipantID: pair.home,
					AwayParticipantID: pair.away,
					Round:             round,
					Details:           details,
				})
			}
		}

		matchesInRound /= 2
		round++
	}

	return fixtures
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

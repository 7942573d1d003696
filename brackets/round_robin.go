package brackets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ligahub/match-engine/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() ScheduleGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate builds a circle-method round robin. Every participant meets every
// other once per leg; home_away mirrors the season with venues swapped.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error) {
	if len(params.Participants) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough participants (found %d, min 2 required)", len(params.Participants))
	}

	ids := shuffledIDs(params.Participants, params.Rand)
	homeAway := params.Tournament.MatchFormat == models.MatchFormatHomeAway

	fixtures := roundRobinFixtures(ids, homeAway)
	for _, f := range fixtures {
		f.Details.RoundName = fmt.Sprintf("Matchday %d", f.Round)
	}
	return fixtures, nil
}

// roundRobinFixtures runs the circle method over the given participant ids.
// Rounds are numbered from 1. With homeAway the first-leg fixtures are
// mirrored into a second leg at round+numRounds, both legs sharing a tie key.
func roundRobinFixtures(ids []int, homeAway bool) []*Fixture {
	slots := make([]int, len(ids))
	copy(slots, ids)

	// Odd field: pad with a bye slot, pairings touching it are dropped.
	const bye = -1
	if len(slots)%2 != 0 {
		slots = append(slots, bye)
	}
	n := len(slots)
	numRounds := n - 1

	fixtures := make([]*Fixture, 0, n*(n-1)/2)
	for r := 0; r < numRounds; r++ {
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == bye || away == bye {
				continue
			}
			// Alternate venues by round parity to balance home counts.
			if r%2 == 1 {
				home, away = away, home
			}
			fixtures = append(fixtures, &Fixture{
				HomeParticipantID: intPtr(home),
				AwayParticipantID: intPtr(away),
				Round:             r + 1,
			})
		}
		// Rotate all but the first slot by one position.
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}

	if homeAway {
		mirrored := make([]*Fixture, 0, len(fixtures))
		for _, f := range fixtures {
			tieKey := uuid.New().String()
			f.Details.Leg = 1
			f.Details.GroupID = tieKey
			mirrored = append(mirrored, &Fixture{
				HomeParticipantID: f.AwayParticipantID,
				AwayParticipantID: f.HomeParticipantID,
				Round:             f.Round + numRounds,
				Details: models.MatchDetails{
					Leg:     2,
					GroupID: tieKey,
				},
			})
		}
		fixtures = append(fixtures, mirrored...)
	}

	return fixtures
}

func intPtr(v int) *int {
	return &v
}

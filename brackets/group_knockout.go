package brackets

import (
	"context"
	"fmt"

	"github.com/ligahub/match-engine/models"
)

type GroupKnockoutGenerator struct{}

func NewGroupKnockoutGenerator() ScheduleGenerator {
	return &GroupKnockoutGenerator{}
}

func (g *GroupKnockoutGenerator) Name() string {
	return "GroupKnockout"
}

// crossGroupSeeding is the fixed first-knockout-round pairing per group
// count: group winners meet the runner-up of the adjacent group, never a team
// from their own group.
var crossGroupSeeding = map[int][][2]string{
	2: {{"A1", "B2"}, {"B1", "A2"}},
	4: {{"A1", "B2"}, {"C1", "D2"}, {"B1", "A2"}, {"D1", "C2"}},
	8: {
		{"A1", "B2"}, {"C1", "D2"}, {"E1", "F2"}, {"G1", "H2"},
		{"B1", "A2"}, {"D1", "C2"}, {"F1", "E2"}, {"H1", "G2"},
	},
}

// GroupCountFor picks the number of groups for a field size: small fields get
// two groups, large fields up to eight.
func GroupCountFor(participants int) int {
	switch {
	case participants < 12:
		return 2
	case participants < 24:
		return 4
	default:
		return 8
	}
}

// GroupName labels groups A, B, C... in draw order.
func GroupName(index int) string {
	return fmt.Sprintf("Group %c", 'A'+rune(index))
}

// Generate distributes the shuffled field evenly into groups, runs the league
// algorithm inside each group, then lays the knockout skeleton on top. Only
// the first knockout round carries resolve descriptors; later rounds stay
// empty for the progression resolver to fill.
func (g *GroupKnockoutGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error) {
	n := len(params.Participants)
	if n < 4 {
		return nil, fmt.Errorf("GroupKnockoutGenerator: not enough participants (found %d, min 4 required)", n)
	}

	ids := shuffledIDs(params.Participants, params.Rand)
	numGroups := GroupCountFor(n)
	homeAway := params.Tournament.MatchFormat == models.MatchFormatHomeAway

	groups := make([][]int, numGroups)
	for i, id := range ids {
		groups[i%numGroups] = append(groups[i%numGroups], id)
	}

	fixtures := make([]*Fixture, 0, n*2)
	maxGroupRound := 0
	for gi, groupIDs := range groups {
		if len(groupIDs) < 2 {
			return nil, fmt.Errorf("GroupKnockoutGenerator: group %s would have %d participants, min 2 required", GroupName(gi), len(groupIDs))
		}
		name := GroupName(gi)
		for _, f := range roundRobinFixtures(groupIDs, homeAway) {
			f.Details.Stage = models.StageGroup
			f.Details.GroupName = name
			f.Details.RoundName = fmt.Sprintf("%s Matchday %d", name, f.Round)
			if f.Round > maxGroupRound {
				maxGroupRound = f.Round
			}
			fixtures = append(fixtures, f)
		}
	}

	firstRound := make([]slotPair, len(crossGroupSeeding[numGroups]))
	for i, pairing := range crossGroupSeeding[numGroups] {
		firstRound[i] = slotPair{
			resolveHome: seedResolver(pairing[0]),
			resolveAway: seedResolver(pairing[1]),
		}
	}

	fixtures = append(fixtures, knockoutFixtures(firstRound, maxGroupRound, homeAway)...)
	return fixtures, nil
}

// seedResolver turns a seeding token like "A1" into a deferred-slot
// descriptor for the rank-1 finisher of Group A.
func seedResolver(token string) *models.SlotResolver {
	return &models.SlotResolver{
		Type:  models.SlotResolverGroupResult,
		Group: fmt.Sprintf("Group %c", token[0]),
		Pos:   int(token[1] - '0'),
	}
}

package models

import "time"

type MatchEventType string

const (
	EventGoal        MatchEventType = "goal"
	EventPenaltyGoal MatchEventType = "penalty_goal"
	EventOwnGoal     MatchEventType = "own_goal"
	EventYellowCard  MatchEventType = "yellow_card"
	EventRedCard     MatchEventType = "red_card"
	EventKickoff     MatchEventType = "kickoff"
	EventFulltime    MatchEventType = "fulltime"
)

type TeamSide string

const (
	SideHome TeamSide = "home"
	SideAway TeamSide = "away"
)

// MatchEvent is one append-only log row for a match. Lifecycle markers
// (kickoff, fulltime) are unique per match.
type MatchEvent struct {
	ID        int            `json:"id" db:"id"`
	MatchID   int            `json:"match_id" db:"match_id"`
	Type      MatchEventType `json:"type" db:"type"`
	Minute    int            `json:"minute" db:"minute"`
	TeamSide  TeamSide       `json:"team_side" db:"team_side"`
	Player    *string        `json:"player,omitempty" db:"player"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

func (t MatchEventType) Valid() bool {
	switch t {
	case EventGoal, EventPenaltyGoal, EventOwnGoal, EventYellowCard, EventRedCard, EventKickoff, EventFulltime:
		return true
	}
	return false
}

// ScoreDelta returns the (home, away) score contribution of the event.
// An own goal credits the opposite side.
func (e *MatchEvent) ScoreDelta() (home int, away int) {
	switch e.Type {
	case EventGoal, EventPenaltyGoal:
		if e.TeamSide == SideHome {
			return 1, 0
		}
		return 0, 1
	case EventOwnGoal:
		if e.TeamSide == SideHome {
			return 0, 1
		}
		return 1, 0
	}
	return 0, 0
}

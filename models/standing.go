package models

import "time"

// Standing is one row per (tournament, participant), optionally scoped to a
// group. Invariants maintained by the ledger:
// GoalDifference = GoalsFor - GoalsAgainst and Played = Won + Drawn + Lost.
type Standing struct {
	ID             int       `json:"id" db:"id"`
	TournamentID   int       `json:"tournament_id" db:"tournament_id"`
	ParticipantID  int       `json:"participant_id" db:"participant_id"`
	GroupName      *string   `json:"group_name,omitempty" db:"group_name"`
	Points         int       `json:"points" db:"points"`
	Played         int       `json:"played" db:"played"`
	Won            int       `json:"won" db:"won"`
	Drawn          int       `json:"drawn" db:"drawn"`
	Lost           int       `json:"lost" db:"lost"`
	GoalsFor       int       `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int       `json:"goals_against" db:"goals_against"`
	GoalDifference int       `json:"goal_difference" db:"goal_difference"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Participant *Participant `json:"participant,omitempty" db:"-"`
}

package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

// MatchPeriod is the live phase of play. It is meaningful only while the
// match is live or when "fulltime" signals the finished-playing condition.
type MatchPeriod string

const (
	PeriodFirstHalf  MatchPeriod = "1st_half"
	PeriodHalftime   MatchPeriod = "halftime"
	PeriodSecondHalf MatchPeriod = "2nd_half"
	PeriodFulltime   MatchPeriod = "fulltime"
)

// Match is one fixture. Home/Away participant ids are nullable: a nil id
// means the slot has not been resolved yet (a later stage will fill it).
type Match struct {
	ID                int          `json:"id" db:"id"`
	TournamentID      int          `json:"tournament_id" db:"tournament_id"`
	HomeParticipantID *int         `json:"home_participant_id" db:"home_participant_id"`
	AwayParticipantID *int         `json:"away_participant_id" db:"away_participant_id"`
	Round             int          `json:"round" db:"round"`
	Status            MatchStatus  `json:"status" db:"status"`
	Period            *MatchPeriod `json:"period,omitempty" db:"period"`
	HomeScore         *int         `json:"home_score" db:"home_score"`
	AwayScore         *int         `json:"away_score" db:"away_score"`
	HomePenalty       *int         `json:"home_penalty,omitempty" db:"home_penalty"`
	AwayPenalty       *int         `json:"away_penalty,omitempty" db:"away_penalty"`
	Details           MatchDetails `json:"details" db:"details"`
	FinalizedAt       *time.Time   `json:"finalized_at,omitempty" db:"finalized_at"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

// FulltimeReached reports whether the match satisfies the finished condition:
// completed status or the fulltime period flag.
func (m *Match) FulltimeReached() bool {
	if m.Status == MatchCompleted {
		return true
	}
	return m.Period != nil && *m.Period == PeriodFulltime
}

func (m *Match) IsKnockoutStage() bool {
	return m.Details.Stage == StageKnockout
}

// IsStandingsFixture reports whether a completed result feeds the standings
// table: every league match and every group-stage match of the hybrid format.
func (m *Match) IsStandingsFixture(tournamentType TournamentType) bool {
	switch tournamentType {
	case TournamentLeague:
		return true
	case TournamentGroupKnockout:
		return m.Details.Stage == StageGroup
	}
	return false
}

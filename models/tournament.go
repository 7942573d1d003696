package models

import "time"

// TournamentType selects the scheduling algorithm.
type TournamentType string

const (
	TournamentLeague        TournamentType = "league"
	TournamentKnockout      TournamentType = "knockout"
	TournamentGroupKnockout TournamentType = "group_knockout"
)

// MatchFormat controls whether each pairing is played once or over two legs.
type MatchFormat string

const (
	MatchFormatSingle   MatchFormat = "single"
	MatchFormatHomeAway MatchFormat = "home_away"
)

// TournamentStatus transitions only forward:
// draft -> active on schedule generation, active -> completed on finalize.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Type        TournamentType   `json:"type" db:"type"`
	MatchFormat MatchFormat      `json:"match_format" db:"match_format"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services when requested.
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
	Standings    []Standing    `json:"standings,omitempty" db:"-"`
}

func (t TournamentType) Valid() bool {
	switch t {
	case TournamentLeague, TournamentKnockout, TournamentGroupKnockout:
		return true
	}
	return false
}

func (f MatchFormat) Valid() bool {
	return f == MatchFormatSingle || f == MatchFormatHomeAway
}

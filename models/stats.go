package models

import "time"

// Season points per result for user statistics.
const (
	StatsPointsWin  = 6
	StatsPointsDraw = 2
	StatsPointsLoss = -4
)

// UserStats is the season-long aggregate for one user across tournaments.
type UserStats struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	Points        int       `json:"points" db:"points"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	Wins          int       `json:"wins" db:"wins"`
	Draws         int       `json:"draws" db:"draws"`
	Losses        int       `json:"losses" db:"losses"`
	GoalsFor      int       `json:"goals_for" db:"goals_for"`
	GoalsAgainst  int       `json:"goals_against" db:"goals_against"`
	WinRate       float64   `json:"win_rate" db:"win_rate"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// RecomputeWinRate refreshes the cached rate after a mutation.
func (s *UserStats) RecomputeWinRate() {
	if s.MatchesPlayed <= 0 {
		s.WinRate = 0
		return
	}
	s.WinRate = float64(s.Wins) / float64(s.MatchesPlayed)
}

// UserStatSnapshot is one history row appended when a match finalizes,
// carrying the user's rank at that moment. MatchID ties the snapshot to the
// finalizing match so a reset can remove exactly the rows it created.
type UserStatSnapshot struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	Points    int       `json:"points" db:"points"`
	WinRate   float64   `json:"win_rate" db:"win_rate"`
	Rank      int       `json:"rank" db:"rank"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package services

import (
	"context"
	"log/slog"

	"github.com/ligahub/match-engine/brackets"
	"github.com/ligahub/match-engine/models"
)

// Notifier delivers best-effort updates after a transaction commits. Failures
// are logged and swallowed: delivery must never block or fail an engine
// transition.
type Notifier interface {
	MatchStarted(ctx context.Context, match *models.Match, userIDs []int)
	MatchResult(ctx context.Context, match *models.Match, userIDs []int)
	MatchUpdated(ctx context.Context, match *models.Match)
	StandingsUpdated(ctx context.Context, tournamentID int)
	BracketUpdated(ctx context.Context, tournamentID int)
}

type hubNotifier struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func NewHubNotifier(hub *brackets.Hub, logger *slog.Logger) Notifier {
	return &hubNotifier{hub: hub, logger: logger}
}

func (n *hubNotifier) broadcast(tournamentID int, messageType string, payload interface{}) {
	room := brackets.RoomForTournament(tournamentID)
	n.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  room,
	})
}

func (n *hubNotifier) MatchStarted(ctx context.Context, match *models.Match, userIDs []int) {
	n.logger.InfoContext(ctx, "match kicked off",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.Any("notified_users", userIDs),
	)
	n.broadcast(match.TournamentID, brackets.MessageMatchStarted, match)
}

func (n *hubNotifier) MatchResult(ctx context.Context, match *models.Match, userIDs []int) {
	n.logger.InfoContext(ctx, "match result recorded",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.Any("notified_users", userIDs),
	)
	n.broadcast(match.TournamentID, brackets.MessageMatchResult, match)
}

func (n *hubNotifier) MatchUpdated(ctx context.Context, match *models.Match) {
	n.broadcast(match.TournamentID, brackets.MessageMatchUpdated, match)
}

func (n *hubNotifier) StandingsUpdated(ctx context.Context, tournamentID int) {
	n.broadcast(tournamentID, brackets.MessageStandingsUpdated, map[string]int{"tournament_id": tournamentID})
}

func (n *hubNotifier) BracketUpdated(ctx context.Context, tournamentID int) {
	n.broadcast(tournamentID, brackets.MessageBracketUpdated, map[string]int{"tournament_id": tournamentID})
}

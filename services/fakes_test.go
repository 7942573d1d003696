package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ligahub/match-engine/models"
	"github.com/ligahub/match-engine/repositories"
)

// In-memory repository fakes. They ignore the SQLExecutor parameter: the fake
// transaction manager runs the unit of work directly.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(_ context.Context, fn func(tx repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

type fakeParticipantRepo struct {
	participants map[int]*models.Participant
}

func newFakeParticipantRepo(participants ...*models.Participant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{participants: make(map[int]*models.Participant)}
	for _, p := range participants {
		r.participants[p.ID] = p
	}
	return r
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Participant, error) {
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && p.Status != *statusFilter {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) add(m *models.Match) *models.Match {
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	} else if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
	cp := *m
	r.matches[m.ID] = &cp
	return m
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.CreatedAt = time.Now()
	r.add(match)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if roundFilter != nil && m.Round != *roundFilter {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeMatchRepo) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	cp := *match
	r.matches[match.ID] = &cp
	return nil
}

type fakeEventRepo struct {
	nextID int
	events map[int][]*models.MatchEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{nextID: 1, events: make(map[int][]*models.MatchEvent)}
}

func (r *fakeEventRepo) Create(_ context.Context, _ repositories.SQLExecutor, event *models.MatchEvent) error {
	event.ID = r.nextID
	r.nextID++
	event.CreatedAt = time.Now()
	cp := *event
	r.events[event.MatchID] = append(r.events[event.MatchID], &cp)
	return nil
}

func (r *fakeEventRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.MatchEvent, error) {
	out := make([]*models.MatchEvent, 0, len(r.events[matchID]))
	for _, e := range r.events[matchID] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeEventRepo) GetLastByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) (*models.MatchEvent, error) {
	events := r.events[matchID]
	if len(events) == 0 {
		return nil, repositories.ErrMatchEventNotFound
	}
	cp := *events[len(events)-1]
	return &cp, nil
}

func (r *fakeEventRepo) HasEventOfType(_ context.Context, _ repositories.SQLExecutor, matchID int, eventType models.MatchEventType) (bool, error) {
	for _, e := range r.events[matchID] {
		if e.Type == eventType {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	for matchID, events := range r.events {
		for i, e := range events {
			if e.ID == id {
				r.events[matchID] = append(events[:i], events[i+1:]...)
				return nil
			}
		}
	}
	return repositories.ErrMatchEventNotFound
}

func (r *fakeEventRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	delete(r.events, matchID)
	return nil
}

type standingKey struct {
	tournamentID  int
	participantID int
}

type fakeStandingRepo struct {
	nextID    int
	standings map[standingKey]*models.Standing
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{nextID: 1, standings: make(map[standingKey]*models.Standing)}
}

func (r *fakeStandingRepo) Create(_ context.Context, _ repositories.SQLExecutor, standing *models.Standing) error {
	standing.ID = r.nextID
	r.nextID++
	cp := *standing
	r.standings[standingKey{standing.TournamentID, standing.ParticipantID}] = &cp
	return nil
}

func (r *fakeStandingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, standings []*models.Standing) error {
	for _, s := range standings {
		if err := r.Create(ctx, exec, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeStandingRepo) GetForUpdate(_ context.Context, _ repositories.SQLExecutor, tournamentID, participantID int) (*models.Standing, error) {
	s, ok := r.standings[standingKey{tournamentID, participantID}]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStandingRepo) GetOrCreateForUpdate(ctx context.Context, exec repositories.SQLExecutor, tournamentID, participantID int, groupName *string) (*models.Standing, error) {
	s, err := r.GetForUpdate(ctx, exec, tournamentID, participantID)
	if err == nil {
		return s, nil
	}
	created := &models.Standing{
		TournamentID:  tournamentID,
		ParticipantID: participantID,
		GroupName:     groupName,
	}
	if err := r.Create(ctx, exec, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *fakeStandingRepo) Update(_ context.Context, _ repositories.SQLExecutor, standing *models.Standing) error {
	key := standingKey{standing.TournamentID, standing.ParticipantID}
	if _, ok := r.standings[key]; !ok {
		return repositories.ErrStandingNotFound
	}
	cp := *standing
	r.standings[key] = &cp
	return nil
}

func (r *fakeStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, groupFilter *string, ranked bool) ([]*models.Standing, error) {
	out := make([]*models.Standing, 0)
	for _, s := range r.standings {
		if s.TournamentID != tournamentID {
			continue
		}
		if groupFilter != nil && (s.GroupName == nil || *s.GroupName != *groupFilter) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	if ranked {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Points != out[j].Points {
				return out[i].Points > out[j].Points
			}
			if out[i].GoalDifference != out[j].GoalDifference {
				return out[i].GoalDifference > out[j].GoalDifference
			}
			if out[i].GoalsFor != out[j].GoalsFor {
				return out[i].GoalsFor > out[j].GoalsFor
			}
			return out[i].ParticipantID < out[j].ParticipantID
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeStatsRepo struct {
	nextID    int
	stats     map[int]*models.UserStats
	snapshots []*models.UserStatSnapshot
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{nextID: 1, stats: make(map[int]*models.UserStats)}
}

func (r *fakeStatsRepo) GetOrCreateForUpdate(_ context.Context, _ repositories.SQLExecutor, userID int) (*models.UserStats, error) {
	if s, ok := r.stats[userID]; ok {
		cp := *s
		return &cp, nil
	}
	s := &models.UserStats{ID: r.nextID, UserID: userID, UpdatedAt: time.Now()}
	r.nextID++
	cp := *s
	r.stats[userID] = &cp
	return s, nil
}

func (r *fakeStatsRepo) Update(_ context.Context, _ repositories.SQLExecutor, stats *models.UserStats) error {
	if _, ok := r.stats[stats.UserID]; !ok {
		return repositories.ErrUserStatsNotFound
	}
	cp := *stats
	r.stats[stats.UserID] = &cp
	return nil
}

func (r *fakeStatsRepo) CountBetter(_ context.Context, _ repositories.SQLExecutor, stats *models.UserStats) (int, error) {
	count := 0
	for _, other := range r.stats {
		if other.UserID == stats.UserID {
			continue
		}
		if better(other, stats) {
			count++
		}
	}
	return count, nil
}

func better(a, b *models.UserStats) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.WinRate != b.WinRate {
		return a.WinRate > b.WinRate
	}
	aDiff, bDiff := a.GoalsFor-a.GoalsAgainst, b.GoalsFor-b.GoalsAgainst
	if aDiff != bDiff {
		return aDiff > bDiff
	}
	return a.GoalsFor > b.GoalsFor
}

func (r *fakeStatsRepo) CreateSnapshot(_ context.Context, _ repositories.SQLExecutor, snapshot *models.UserStatSnapshot) error {
	snapshot.ID = len(r.snapshots) + 1
	snapshot.CreatedAt = time.Now()
	cp := *snapshot
	r.snapshots = append(r.snapshots, &cp)
	return nil
}

func (r *fakeStatsRepo) DeleteSnapshotsByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	kept := r.snapshots[:0]
	for _, s := range r.snapshots {
		if s.MatchID != matchID {
			kept = append(kept, s)
		}
	}
	r.snapshots = kept
	return nil
}

type noopNotifier struct{}

func (noopNotifier) MatchStarted(context.Context, *models.Match, []int) {}
func (noopNotifier) MatchResult(context.Context, *models.Match, []int)  {}
func (noopNotifier) MatchUpdated(context.Context, *models.Match)        {}
func (noopNotifier) StandingsUpdated(context.Context, int)              {}
func (noopNotifier) BracketUpdated(context.Context, int)                {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

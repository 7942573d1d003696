package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsApplyResult(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo)

	// A win, a draw and a loss for the same user.
	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 1, 2, 0))
	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 2, 1, 1))
	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 3, 0, 3))

	stats := repo.stats[100]
	require.NotNil(t, stats)
	assert.Equal(t, 6+2-4, stats.Points)
	assert.Equal(t, 3, stats.MatchesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 3, stats.GoalsFor)
	assert.Equal(t, 4, stats.GoalsAgainst)
	assert.InDelta(t, 1.0/3.0, stats.WinRate, 1e-9)
	assert.Len(t, repo.snapshots, 3)
}

func TestStatsSnapshotRank(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo)

	// User 100 wins first, user 200 then loses: 200 ranks below 100.
	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 1, 2, 0))
	require.NoError(t, svc.ApplyResult(ctx, nil, 200, 1, 0, 2))

	require.Len(t, repo.snapshots, 2)
	assert.Equal(t, 1, repo.snapshots[0].Rank)
	assert.Equal(t, 2, repo.snapshots[1].Rank)
}

func TestStatsReverseResult(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo)

	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 1, 2, 1))
	require.NoError(t, svc.ReverseResult(ctx, nil, 100, 2, 1))

	stats := repo.stats[100]
	assert.Zero(t, stats.Points)
	assert.Zero(t, stats.MatchesPlayed)
	assert.Zero(t, stats.Wins)
	assert.Zero(t, stats.GoalsFor)
	assert.Zero(t, stats.GoalsAgainst)
	assert.Zero(t, stats.WinRate)
}

func TestStatsReverseClampsCounters(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo)

	// Reversing a loss the aggregate never saw: counters clamp at zero but
	// the points balance still moves, losses subtract real points.
	require.NoError(t, svc.ReverseResult(ctx, nil, 100, 0, 1))

	stats := repo.stats[100]
	assert.Equal(t, 4, stats.Points, "reversing a -4 loss adds 4")
	assert.Zero(t, stats.MatchesPlayed)
	assert.Zero(t, stats.Losses)
	assert.Zero(t, stats.GoalsAgainst)
}

func TestStatsRemoveSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo)

	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 7, 1, 0))
	require.NoError(t, svc.ApplyResult(ctx, nil, 200, 7, 0, 1))
	require.NoError(t, svc.ApplyResult(ctx, nil, 100, 8, 1, 0))

	require.NoError(t, svc.RemoveSnapshots(ctx, nil, 7))

	require.Len(t, repo.snapshots, 1)
	assert.Equal(t, 8, repo.snapshots[0].MatchID)
}

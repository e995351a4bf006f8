package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turnclock/turnclock-server/internal/game/timer"
	"github.com/turnclock/turnclock-server/internal/repository"
)

type capturingSink struct {
	saved []repository.GameSummary
	err   error
}

func (s *capturingSink) Save(_ context.Context, summary repository.GameSummary) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, summary)
	return nil
}

func TestManagerLifecycle(t *testing.T) {
	mgr := NewManager(zap.NewNop(), nil)

	engine, err := mgr.CreateGame(testConfig())
	require.NoError(t, err)
	require.NotEmpty(t, engine.ID())
	assert.Equal(t, 1, mgr.GameCount())

	got, ok := mgr.GetGame(engine.ID())
	require.True(t, ok)
	assert.Same(t, engine, got)

	require.NoError(t, mgr.RemoveGame(context.Background(), engine.ID()))
	assert.Equal(t, 0, mgr.GameCount())
	_, ok = mgr.GetGame(engine.ID())
	assert.False(t, ok)

	assert.ErrorIs(t, mgr.RemoveGame(context.Background(), engine.ID()), ErrGameNotFound)
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	mgr := NewManager(zap.NewNop(), nil)

	cfg := testConfig()
	cfg.PlayerNames = []string{"only", "two"}
	_, err := mgr.CreateGame(cfg)
	require.ErrorIs(t, err, timer.ErrInvalidConfig)
	assert.Equal(t, 0, mgr.GameCount())
}

func TestManagerWritesSummaryOnRemove(t *testing.T) {
	sink := &capturingSink{}
	mgr := NewManager(zap.NewNop(), sink)

	engine, err := mgr.CreateGame(testConfig())
	require.NoError(t, err)

	engine.ToggleRunning()
	engine.Advance(30 * time.Second)
	require.NoError(t, engine.PickPlayer(1))

	require.NoError(t, mgr.RemoveGame(context.Background(), engine.ID()))
	require.Len(t, sink.saved, 1)

	summary := sink.saved[0]
	assert.Equal(t, engine.ID(), summary.GameID)
	assert.Equal(t, int64(120000), summary.TurnDurationMs)
	assert.Equal(t, int64(60000), summary.ReserveDurationMs)
	require.Len(t, summary.Players, 3)
	assert.Equal(t, "Alice", summary.Players[0].Name)
	assert.Equal(t, int64(30000), summary.Players[0].TotalUsedMs)
	assert.False(t, summary.Players[0].Eliminated)
}

func TestManagerWritesSummaryOnFinalElimination(t *testing.T) {
	sink := &capturingSink{}
	mgr := NewManager(zap.NewNop(), sink)

	engine, err := mgr.CreateGame(testConfig())
	require.NoError(t, err)

	// First elimination leaves two players; no summary yet.
	engine.ToggleRunning()
	engine.Advance(120 * time.Second)
	engine.Advance(60 * time.Second)
	require.Empty(t, sink.saved)

	// Second elimination leaves a single player standing; the summary is
	// recorded without waiting for a teardown request.
	require.NoError(t, engine.PickPlayer(1))
	engine.ToggleRunning()
	engine.Advance(180 * time.Second)
	require.Len(t, sink.saved, 1)

	summary := sink.saved[0]
	assert.Equal(t, engine.ID(), summary.GameID)
	require.Len(t, summary.Players, 3)
	assert.True(t, summary.Players[0].Eliminated)
	assert.True(t, summary.Players[1].Eliminated)
	assert.False(t, summary.Players[2].Eliminated)

	// Removing the game afterwards does not record it a second time.
	require.NoError(t, mgr.RemoveGame(context.Background(), engine.ID()))
	assert.Len(t, sink.saved, 1)
}

func TestManagerRetriesSummaryAfterFailedSave(t *testing.T) {
	sink := &capturingSink{err: context.DeadlineExceeded}
	mgr := NewManager(zap.NewNop(), sink)

	engine, err := mgr.CreateGame(testConfig())
	require.NoError(t, err)

	// The elimination-triggered save fails; nothing is recorded.
	engine.ToggleRunning()
	engine.Advance(180 * time.Second)
	require.NoError(t, engine.PickPlayer(1))
	engine.ToggleRunning()
	engine.Advance(180 * time.Second)
	require.Empty(t, sink.saved)

	// Once the sink recovers, removal records the summary exactly once.
	sink.err = nil
	require.NoError(t, mgr.RemoveGame(context.Background(), engine.ID()))
	require.Len(t, sink.saved, 1)
}

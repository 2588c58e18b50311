package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantaris/risk-engine/internal/portfolio"
)

func newTestTracker() *StopTracker {
	return NewStopTracker(NewStopLossCalculator(testStopConfig()))
}

func TestStopTracker_TrackAndRelease(t *testing.T) {
	tr := newTestTracker()

	tr.Track(portfolio.Position{Symbol: "BTCUSDT", Direction: portfolio.Long, EntryPrice: 50_000, StopLevel: 49_000, StopType: portfolio.StopFixed})

	pos, ok := tr.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 49_000, pos.StopLevel, 1e-9)

	tr.Release("BTCUSDT")
	_, ok = tr.Position("BTCUSDT")
	assert.False(t, ok)
}

func TestStopTracker_UpdatePrice_UntrackedSymbol(t *testing.T) {
	tr := newTestTracker()
	assert.Nil(t, tr.UpdatePrice("BTCUSDT", 50_000, 500))
}

func TestStopTracker_UpdatePrice_TriggersLongStop(t *testing.T) {
	tr := newTestTracker()
	tr.Track(portfolio.Position{Symbol: "BTCUSDT", Direction: portfolio.Long, EntryPrice: 50_000, StopLevel: 49_000, StopType: portfolio.StopFixed})

	ev := tr.UpdatePrice("BTCUSDT", 49_500, 500)
	require.NotNil(t, ev)
	assert.False(t, ev.Triggered)

	ev = tr.UpdatePrice("BTCUSDT", 48_900, 500)
	require.NotNil(t, ev)
	assert.True(t, ev.Triggered)
	assert.InDelta(t, 49_000, ev.StopLevel, 1e-9)
}

func TestStopTracker_UpdatePrice_TriggersShortStop(t *testing.T) {
	tr := newTestTracker()
	tr.Track(portfolio.Position{Symbol: "ETHUSDT", Direction: portfolio.Short, EntryPrice: 3000, StopLevel: 3060, StopType: portfolio.StopFixed})

	ev := tr.UpdatePrice("ETHUSDT", 3050, 30)
	require.NotNil(t, ev)
	assert.False(t, ev.Triggered)

	ev = tr.UpdatePrice("ETHUSDT", 3070, 30)
	require.NotNil(t, ev)
	assert.True(t, ev.Triggered)
}

func TestStopTracker_UpdatePrice_TrailingStateSticks(t *testing.T) {
	tr := newTestTracker()
	tr.Track(portfolio.Position{Symbol: "BTCUSDT", Direction: portfolio.Long, EntryPrice: 50_000, StopLevel: 49_000, StopType: portfolio.StopTrailing})

	ev := tr.UpdatePrice("BTCUSDT", 51_000, 500)
	require.NotNil(t, ev)
	assert.True(t, ev.Moved)
	assert.InDelta(t, 50_250, ev.StopLevel, 1e-9)

	// The advanced stop persists on the tracked position.
	pos, ok := tr.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 50_250, pos.StopLevel, 1e-9)

	// A pullback to the advanced stop now triggers it.
	ev = tr.UpdatePrice("BTCUSDT", 50_200, 500)
	require.NotNil(t, ev)
	assert.True(t, ev.Triggered)
}

func TestStopTracker_Track_ReplacesExisting(t *testing.T) {
	tr := newTestTracker()
	tr.Track(portfolio.Position{Symbol: "BTCUSDT", StopLevel: 49_000, Direction: portfolio.Long, EntryPrice: 50_000, StopType: portfolio.StopFixed})
	tr.Track(portfolio.Position{Symbol: "BTCUSDT", StopLevel: 48_000, Direction: portfolio.Long, EntryPrice: 50_000, StopType: portfolio.StopFixed})

	pos, ok := tr.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 48_000, pos.StopLevel, 1e-9)
}

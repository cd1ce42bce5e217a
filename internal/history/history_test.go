package history

import (
	"fmt"
	"price-alert-bot/internal/types"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func reading(a types.Asset, minute int, v float64) types.PriceReading {
	return types.PriceReading{Asset: a, Timestamp: t0.Add(time.Duration(minute) * time.Minute), Value: v}
}

func TestFirstReadingBecomesBaseline(t *testing.T) {
	s := NewStore(10)

	_, ok := s.LastAccepted(types.Monero)
	assert.False(t, ok)

	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 0, 100)))

	base, ok := s.LastAccepted(types.Monero)
	require.True(t, ok)
	assert.Equal(t, 100.0, base.Value)

	_, ok = s.LastAccepted(types.Zcash)
	assert.False(t, ok, "assets are tracked independently")
}

func TestRecordDoesNotMoveBaseline(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 0, 100)))
	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 5, 104.99)))
	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 10, 103)))

	base, _ := s.LastAccepted(types.Monero)
	assert.Equal(t, 100.0, base.Value)
	assert.Len(t, s.Readings(types.Monero), 3)

	s.AdvanceBaseline(types.Monero, reading(types.Monero, 10, 103))
	base, _ = s.LastAccepted(types.Monero)
	assert.Equal(t, 103.0, base.Value)
	assert.Len(t, s.Readings(types.Monero), 3, "advancing the baseline does not record")
}

func TestRecordRejectsOutOfOrder(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Record(types.Zcash, reading(types.Zcash, 5, 40)))

	err := s.Record(types.Zcash, reading(types.Zcash, 4, 41))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Len(t, s.Readings(types.Zcash), 1)

	require.NoError(t, s.Record(types.Zcash, reading(types.Zcash, 5, 42)), "equal timestamps are allowed")
}

func TestRingIsBounded(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(types.Monero, reading(types.Monero, i, float64(100+i))))
	}

	got := s.Readings(types.Monero)
	require.Len(t, got, 3)
	assert.Equal(t, 102.0, got[0].Value)
	assert.Equal(t, 104.0, got[2].Value)

	base, _ := s.LastAccepted(types.Monero)
	assert.Equal(t, 100.0, base.Value, "eviction never touches the baseline")
}

func TestReadingsReturnsCopy(t *testing.T) {
	s := NewStore(3)
	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 0, 100)))

	got := s.Readings(types.Monero)
	got[0].Value = 1

	assert.Equal(t, 100.0, s.Readings(types.Monero)[0].Value)
	assert.Nil(t, s.Readings(types.Zcash))
}

func TestSnapshot(t *testing.T) {
	s := NewStore(0)
	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 0, 100)))
	require.NoError(t, s.Record(types.Monero, reading(types.Monero, 1, 101)))

	states := s.Snapshot(types.TrackedAssets)
	require.Len(t, states, 2)

	assert.Equal(t, types.Monero, states[0].Asset)
	assert.True(t, states[0].HasBaseline)
	assert.Equal(t, 100.0, states[0].Baseline.Value)
	assert.Equal(t, 101.0, states[0].Latest.Value)
	assert.Equal(t, 2, states[0].Count)

	assert.Equal(t, types.Zcash, states[1].Asset)
	assert.False(t, states[1].HasBaseline)
	assert.Equal(t, 0, states[1].Count)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(64)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r := reading(types.Monero, i, float64(100+i%7))
			_ = s.Record(types.Monero, r)
			if i%10 == 0 {
				s.AdvanceBaseline(types.Monero, r)
			}
		}
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if base, ok := s.LastAccepted(types.Monero); ok {
					assert.Equal(t, types.Monero, base.Asset, fmt.Sprintf("reader %d", id))
				}
				_ = s.Snapshot(types.TrackedAssets)
			}
		}(g)
	}

	wg.Wait()
	assert.Len(t, s.Readings(types.Monero), 64)
}

package history

import (
	"price-alert-bot/internal/types"
	"sync"

	"github.com/pkg/errors"
)

// DefaultSize is the number of readings kept per asset when none is configured
const DefaultSize = 512

// ErrOutOfOrder is returned when a reading is older than the last one stored for the asset
var ErrOutOfOrder = errors.New("reading is older than the last recorded one")

type series struct {
	readings []types.PriceReading
	baseline types.PriceReading
	hasBase  bool
}

// Store keeps recent readings per asset and the baseline deltas are computed against.
// The baseline is set by the first reading and afterwards only moves through AdvanceBaseline.
// One writer (the monitor) and any number of readers.
type Store struct {
	mu     sync.RWMutex
	size   int
	assets map[string]*series
}

// AssetState is a consistent copy of one asset's state
type AssetState struct {
	Asset       types.Asset
	Baseline    types.PriceReading
	HasBaseline bool
	Latest      types.PriceReading
	Count       int
}

// NewStore creates an empty store that retains at most size readings per asset
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	return &Store{
		size:   size,
		assets: make(map[string]*series),
	}
}

// Record appends a reading. The first reading of an asset becomes its baseline.
func (s *Store) Record(asset types.Asset, reading types.PriceReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.assets[asset.ID]
	if !ok {
		sr = &series{readings: make([]types.PriceReading, 0, s.size)}
		s.assets[asset.ID] = sr
	}

	if n := len(sr.readings); n > 0 && reading.Timestamp.Before(sr.readings[n-1].Timestamp) {
		return errors.Wrapf(ErrOutOfOrder, "%s: %s before %s", asset.ID,
			reading.Timestamp.Format("15:04:05"), sr.readings[n-1].Timestamp.Format("15:04:05"))
	}

	if len(sr.readings) >= s.size {
		copy(sr.readings, sr.readings[1:])
		sr.readings = sr.readings[:len(sr.readings)-1]
	}
	sr.readings = append(sr.readings, reading)

	if !sr.hasBase {
		sr.baseline = reading
		sr.hasBase = true
	}
	return nil
}

// LastAccepted returns the baseline; false only before the first Record for the asset
func (s *Store) LastAccepted(asset types.Asset) (types.PriceReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.assets[asset.ID]
	if !ok || !sr.hasBase {
		return types.PriceReading{}, false
	}
	return sr.baseline, true
}

// AdvanceBaseline moves the comparison baseline to reading. Called only when an alert fired.
func (s *Store) AdvanceBaseline(asset types.Asset, reading types.PriceReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.assets[asset.ID]
	if !ok {
		sr = &series{readings: make([]types.PriceReading, 0, s.size)}
		s.assets[asset.ID] = sr
	}
	sr.baseline = reading
	sr.hasBase = true
}

// Readings returns a copy of the retained readings, oldest first
func (s *Store) Readings(asset types.Asset) []types.PriceReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.assets[asset.ID]
	if !ok {
		return nil
	}
	out := make([]types.PriceReading, len(sr.readings))
	copy(out, sr.readings)
	return out
}

// Snapshot returns the state of every given asset taken under a single lock
func (s *Store) Snapshot(assets []types.Asset) []AssetState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]AssetState, 0, len(assets))
	for _, a := range assets {
		st := AssetState{Asset: a}
		if sr, ok := s.assets[a.ID]; ok {
			st.Baseline = sr.baseline
			st.HasBaseline = sr.hasBase
			st.Count = len(sr.readings)
			if st.Count > 0 {
				st.Latest = sr.readings[st.Count-1]
			}
		}
		states = append(states, st)
	}
	return states
}

package alert

import (
	"math"
	"price-alert-bot/internal/types"
)

// relativeEpsilon absorbs the binary rounding of a difference of two decimal prices
const relativeEpsilon = 1e-9

// Evaluate compares the current reading with the baseline and returns an event
// when the absolute move is at least threshold. The boundary is inclusive and a
// zero move never fires.
func Evaluate(asset types.Asset, previous, current types.PriceReading, threshold float64) *types.AlertEvent {
	delta := current.Value - previous.Value
	magnitude := math.Abs(delta)

	// 35.01 - 30.01 is 4.9999999999999964 in float64, still a move of exactly 5
	slack := relativeEpsilon * math.Max(math.Abs(previous.Value), math.Abs(current.Value))
	if delta == 0 || magnitude+slack < threshold {
		return nil
	}

	direction := types.Down
	if delta > 0 {
		direction = types.Up
	}

	return &types.AlertEvent{
		Asset:     asset,
		Direction: direction,
		Magnitude: magnitude,
		Previous:  previous.Value,
		Current:   current.Value,
		At:        current.Timestamp,
	}
}

package types

import (
	"strings"
	"time"
)

// Asset is a tracked coin
type Asset struct {
	ID        string `json:"id"`         // CoinGecko id, e.g. "monero"
	PaprikaID string `json:"paprika_id"` // CoinPaprika id, e.g. "xmr-monero"
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Color     string `json:"color"` // accent color used by the chart, hex without '#'
}

// Label returns the display form used in captions: "monero (XMR)"
func (a Asset) Label() string {
	return a.Name + " (" + a.Symbol + ")"
}

var (
	Monero = Asset{ID: "monero", PaprikaID: "xmr-monero", Name: "monero", Symbol: "XMR", Color: "ff4d4d"}
	Zcash  = Asset{ID: "zcash", PaprikaID: "zec-zcash", Name: "zcash", Symbol: "ZEC", Color: "4da6ff"}
)

// TrackedAssets is the fixed set of assets the monitor polls, in polling order.
var TrackedAssets = []Asset{Monero, Zcash}

// LookupAsset finds a tracked asset by id or symbol, case-insensitive.
func LookupAsset(key string) (Asset, bool) {
	for _, a := range TrackedAssets {
		if strings.EqualFold(a.ID, key) || strings.EqualFold(a.Symbol, key) {
			return a, true
		}
	}
	return Asset{}, false
}

// PriceReading a single USD price observation
type PriceReading struct {
	Asset     Asset     `json:"asset"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Direction of a price move
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// AlertEvent is produced when a move crosses the threshold
type AlertEvent struct {
	Asset     Asset     `json:"asset"`
	Direction Direction `json:"direction"`
	Magnitude float64   `json:"magnitude"`
	Previous  float64   `json:"previous"`
	Current   float64   `json:"current_price"`
	At        time.Time `json:"at"`
}

// ChartMode selects between the two-panel startup chart and a single asset chart
type ChartMode string

const (
	ChartStartup ChartMode = "startup"
	ChartSingle  ChartMode = "single"
)

// ChartRequest describes which chart to render. Asset is only used in single mode.
type ChartRequest struct {
	Mode  ChartMode
	Asset Asset
}

// AlertRecord is a journaled alert, newest first when listed
type AlertRecord struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Magnitude float64   `json:"magnitude"`
	Previous  float64   `json:"previous"`
	Price     float64   `json:"price"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

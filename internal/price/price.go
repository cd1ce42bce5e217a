package price

import (
	"context"
	"math"
	"net/http"
	"price-alert-bot/internal/types"
	"time"

	"github.com/pkg/errors"
)

// Source fetches prices for tracked assets. Implementations never retry.
type Source interface {
	// FetchSpot returns the current USD price stamped with the fetch time
	FetchSpot(ctx context.Context, asset types.Asset) (types.PriceReading, error)
	// FetchSeries returns the last `days` days of USD prices, oldest first
	FetchSeries(ctx context.Context, asset types.Asset, days int) ([]types.PriceReading, error)
	Name() string
}

// Options configure NewSource
type Options struct {
	Provider         string // "coingecko" or "coinpaprika"
	CoinGeckoBaseURL string
	APIProKey        string
	Timeout          time.Duration
}

// NewSource builds the configured price source
func NewSource(opts Options) (Source, error) {
	client := &http.Client{Timeout: opts.Timeout}

	switch opts.Provider {
	case "", "coingecko":
		return NewCoinGecko(opts.CoinGeckoBaseURL, client), nil
	case "coinpaprika":
		return NewPaprika(opts.APIProKey, client), nil
	}
	return nil, errors.Errorf("unknown price source %q", opts.Provider)
}

func checkArgs(asset types.Asset, days int) error {
	if _, ok := types.LookupAsset(asset.ID); !ok || asset.ID == "" {
		return errors.Wrapf(ErrInvalidArgument, "asset %q is not tracked", asset.ID)
	}
	if days <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "days must be positive, got %d", days)
	}
	return nil
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

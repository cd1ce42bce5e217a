package price

import (
	"context"
	"fmt"
	"net/http"
	"price-alert-bot/internal/types"
	"sort"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
)

const paprikaName = "coinpaprika"

// Paprika reads prices through the CoinPaprika API client
type Paprika struct {
	client *coinpaprika.Client
	now    func() time.Time
}

// NewPaprika creates a CoinPaprika source, using the pro API when a key is given
func NewPaprika(apiProKey string, httpClient *http.Client) *Paprika {
	var client *coinpaprika.Client
	if apiProKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}
	return &Paprika{client: client, now: time.Now}
}

func (p *Paprika) Name() string { return paprikaName }

// FetchSpot reads the USD quote of the asset ticker. The client has no context
// support, cancellation is bounded by the http client timeout.
func (p *Paprika) FetchSpot(ctx context.Context, asset types.Asset) (types.PriceReading, error) {
	if err := checkArgs(asset, 1); err != nil {
		return types.PriceReading{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.PriceReading{}, unavailable(paprikaName, asset.ID, err)
	}

	ticker, err := p.client.Tickers.GetByID(asset.PaprikaID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return types.PriceReading{}, unavailable(paprikaName, asset.ID, err)
	}
	if ticker == nil || ticker.Quotes == nil {
		return types.PriceReading{}, malformed(paprikaName, asset.ID, "ticker without quotes", nil)
	}

	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return types.PriceReading{}, malformed(paprikaName, asset.ID, "missing USD quote", nil)
	}
	if !validPrice(*usd.Price) {
		return types.PriceReading{}, malformed(paprikaName, asset.ID, fmt.Sprintf("invalid price %v", *usd.Price), nil)
	}

	return types.PriceReading{
		Asset:     asset,
		Timestamp: p.now().UTC(),
		Value:     *usd.Price,
	}, nil
}

// FetchSeries reads 5 minute historical ticks covering the last `days` days
func (p *Paprika) FetchSeries(ctx context.Context, asset types.Asset, days int) ([]types.PriceReading, error) {
	if err := checkArgs(asset, days); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, unavailable(paprikaName, asset.ID, err)
	}

	opts := &coinpaprika.TickersHistoricalOptions{
		Quote:    "USD",
		Interval: "5m",
		Limit:    days * 288,
		Start:    p.now().UTC().Add(-time.Duration(days) * 24 * time.Hour),
	}
	ticks, err := p.client.Tickers.GetHistoricalTickersByID(asset.PaprikaID, opts)
	if err != nil {
		return nil, unavailable(paprikaName, asset.ID, err)
	}
	if len(ticks) == 0 {
		return nil, malformed(paprikaName, asset.ID, "empty price series", nil)
	}

	series := make([]types.PriceReading, 0, len(ticks))
	for i, t := range ticks {
		if t == nil || t.Timestamp == nil || t.Price == nil {
			return nil, malformed(paprikaName, asset.ID, fmt.Sprintf("tick %d is incomplete", i), nil)
		}
		if !validPrice(*t.Price) {
			return nil, malformed(paprikaName, asset.ID, fmt.Sprintf("tick %d has invalid price %v", i, *t.Price), nil)
		}
		series = append(series, types.PriceReading{
			Asset:     asset,
			Timestamp: t.Timestamp.UTC(),
			Value:     *t.Price,
		})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	return series, nil
}

package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"price-alert-bot/internal/types"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const coinGeckoName = "coingecko"

// CoinGecko reads the public CoinGecko v3 API
type CoinGecko struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewCoinGecko creates a CoinGecko source. The client's Timeout bounds every request.
func NewCoinGecko(baseURL string, client *http.Client) *CoinGecko {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

func (c *CoinGecko) Name() string { return coinGeckoName }

// FetchSpot queries /simple/price, which answers {"monero":{"usd":352.1}}
func (c *CoinGecko) FetchSpot(ctx context.Context, asset types.Asset) (types.PriceReading, error) {
	if err := checkArgs(asset, 1); err != nil {
		return types.PriceReading{}, err
	}

	q := url.Values{}
	q.Set("ids", asset.ID)
	q.Set("vs_currencies", "usd")

	body, err := c.get(ctx, asset, "/simple/price?"+q.Encode())
	if err != nil {
		return types.PriceReading{}, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return types.PriceReading{}, malformed(coinGeckoName, asset.ID, "body is not a JSON object", body)
	}

	rawQuotes, ok := payload[asset.ID]
	if !ok {
		return types.PriceReading{}, malformed(coinGeckoName, asset.ID, fmt.Sprintf("missing %q key", asset.ID), body)
	}

	var quotes map[string]*float64
	if err := json.Unmarshal(rawQuotes, &quotes); err != nil {
		return types.PriceReading{}, malformed(coinGeckoName, asset.ID, "quotes are not an object", body)
	}

	usd, ok := quotes["usd"]
	if !ok || usd == nil {
		return types.PriceReading{}, malformed(coinGeckoName, asset.ID, "missing usd quote", body)
	}
	if !validPrice(*usd) {
		return types.PriceReading{}, malformed(coinGeckoName, asset.ID, fmt.Sprintf("invalid price %v", *usd), body)
	}

	return types.PriceReading{
		Asset:     asset,
		Timestamp: c.now().UTC(),
		Value:     *usd,
	}, nil
}

// FetchSeries queries /coins/{id}/market_chart, which answers {"prices":[[ms, price], ...]}
func (c *CoinGecko) FetchSeries(ctx context.Context, asset types.Asset, days int) ([]types.PriceReading, error) {
	if err := checkArgs(asset, days); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", fmt.Sprintf("%d", days))

	body, err := c.get(ctx, asset, "/coins/"+url.PathEscape(asset.ID)+"/market_chart?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, malformed(coinGeckoName, asset.ID, "body is not a JSON object", body)
	}

	rawPrices, ok := payload["prices"]
	if !ok {
		return nil, malformed(coinGeckoName, asset.ID, `missing "prices" key`, body)
	}

	var points [][]float64
	if err := json.Unmarshal(rawPrices, &points); err != nil {
		return nil, malformed(coinGeckoName, asset.ID, "prices are not [timestamp, price] pairs", body)
	}
	if len(points) == 0 {
		return nil, malformed(coinGeckoName, asset.ID, "empty price series", body)
	}

	series := make([]types.PriceReading, 0, len(points))
	for i, p := range points {
		if len(p) != 2 {
			return nil, malformed(coinGeckoName, asset.ID, fmt.Sprintf("point %d has %d fields", i, len(p)), body)
		}
		if !validPrice(p[1]) {
			return nil, malformed(coinGeckoName, asset.ID, fmt.Sprintf("point %d has invalid price %v", i, p[1]), body)
		}
		series = append(series, types.PriceReading{
			Asset:     asset,
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Value:     p[1],
		})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	return series, nil
}

func (c *CoinGecko) get(ctx context.Context, asset types.Asset, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, unavailable(coinGeckoName, asset.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, unavailable(coinGeckoName, asset.ID, errors.Wrap(err, "read body"))
	}

	// error objects are reported as malformed so the payload gets logged;
	// anything that is not JSON at all is a transport problem
	if resp.StatusCode/100 != 2 && !json.Valid(body) {
		return nil, unavailable(coinGeckoName, asset.ID, errors.Errorf("unexpected status %s", resp.Status))
	}

	return body, nil
}

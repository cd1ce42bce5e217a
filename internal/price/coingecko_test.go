package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"price-alert-bot/internal/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoinGecko(t *testing.T, handler http.HandlerFunc) *CoinGecko {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewCoinGecko(srv.URL, &http.Client{Timeout: 2 * time.Second})
	c.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCoinGeckoFetchSpot(t *testing.T) {
	c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "monero", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"monero":{"usd":352.17}}`))
	})

	reading, err := c.FetchSpot(context.Background(), types.Monero)
	require.NoError(t, err)
	assert.Equal(t, 352.17, reading.Value)
	assert.Equal(t, types.Monero, reading.Asset)
	assert.Equal(t, time.UTC, reading.Timestamp.Location())
}

func TestCoinGeckoFetchSpotMalformed(t *testing.T) {
	bodies := map[string]string{
		"error object":   `{"error": "rate limited"}`,
		"status object":  `{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit"}}`,
		"missing usd":    `{"monero":{"eur":300}}`,
		"null usd":       `{"monero":{"usd":null}}`,
		"zero price":     `{"monero":{"usd":0}}`,
		"negative price": `{"monero":{"usd":-1}}`,
		"not an object":  `[1,2,3]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			_, err := c.FetchSpot(context.Background(), types.Monero)
			require.Error(t, err)
			assert.True(t, IsMalformedResponse(err), "got %v", err)
			assert.Equal(t, "malformed_response", Kind(err))
		})
	}
}

func TestCoinGeckoMalformedKeepsPayload(t *testing.T) {
	c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	})

	_, err := c.FetchSpot(context.Background(), types.Zcash)
	var mr *MalformedResponseError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, `{"error": "rate limited"}`, mr.Payload)
	assert.Equal(t, "zcash", mr.Asset)
}

func TestCoinGeckoSourceUnavailable(t *testing.T) {
	t.Run("non json error page", func(t *testing.T) {
		c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		})
		_, err := c.FetchSpot(context.Background(), types.Monero)
		assert.True(t, IsSourceUnavailable(err), "got %v", err)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"monero":{"usd":1}}`))
		})
		c.client.Timeout = 20 * time.Millisecond
		_, err := c.FetchSpot(context.Background(), types.Monero)
		assert.True(t, IsSourceUnavailable(err), "got %v", err)
		assert.Equal(t, "source_unavailable", Kind(err))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := NewCoinGecko(srv.URL, nil)
		_, err := c.FetchSpot(context.Background(), types.Monero)
		assert.True(t, IsSourceUnavailable(err), "got %v", err)
	})
}

func TestCoinGeckoFetchSeries(t *testing.T) {
	c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/zcash/market_chart", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("days"))
		w.Write([]byte(`{"prices":[[1740830400000,41.5],[1740826800000,40.25],[1740834000000,42]],"market_caps":[]}`))
	})

	series, err := c.FetchSeries(context.Background(), types.Zcash, 1)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, 40.25, series[0].Value)
	assert.Equal(t, 41.5, series[1].Value)
	assert.Equal(t, 42.0, series[2].Value)
	assert.Equal(t, time.UnixMilli(1740826800000).UTC(), series[0].Timestamp)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Timestamp.Before(series[i].Timestamp))
	}
}

func TestCoinGeckoFetchSeriesMalformed(t *testing.T) {
	bodies := map[string]string{
		"no prices key": `{"error":"coin not found"}`,
		"empty series":  `{"prices":[]}`,
		"bad pair":      `{"prices":[[1740830400000]]}`,
		"null price":    `{"prices":[[1740830400000,null]]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.FetchSeries(context.Background(), types.Monero, 1)
			assert.True(t, IsMalformedResponse(err), "got %v", err)
		})
	}
}

func TestFetchInvalidArguments(t *testing.T) {
	c := NewCoinGecko("http://127.0.0.1:1", nil)

	_, err := c.FetchSpot(context.Background(), types.Asset{ID: "bitcoin"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.FetchSeries(context.Background(), types.Monero, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid_argument", Kind(err))
}

func TestNewSource(t *testing.T) {
	s, err := NewSource(Options{Provider: "coingecko", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "coingecko", s.Name())

	s, err = NewSource(Options{Provider: "coinpaprika", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "coinpaprika", s.Name())

	_, err = NewSource(Options{Provider: "kraken"})
	assert.Error(t, err)
}

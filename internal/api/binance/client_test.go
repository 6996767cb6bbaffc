package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalDesk/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/klines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`[
			[1704068100000,"101.0","103.0","100.0","102.0","20.5",1704068999999,"0",1,"0","0","0"],
			[1704067200000,"100.0","102.0","99.0","101.0","10.0",1704068099999,"0",1,"0","0","0"]
		]`))
	})
	mux.HandleFunc("/fapi/v1/openInterest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"openInterest":"110.0","symbol":"BTCUSDT","time":1704067200000}`))
	})
	mux.HandleFunc("/futures/data/openInterestHist", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1h", r.URL.Query().Get("period"))
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","sumOpenInterest":"105.0","timestamp":2},
			{"symbol":"BTCUSDT","sumOpenInterest":"100.0","timestamp":1}
		]`))
	})
	mux.HandleFunc("/fapi/v1/fundingRate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","fundingRate":"0.0003","fundingTime":3},
			{"symbol":"BTCUSDT","fundingRate":"0.0001","fundingTime":1},
			{"symbol":"BTCUSDT","fundingRate":"0.0002","fundingTime":2}
		]`))
	})
	mux.HandleFunc("/fng/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Fear and Greed Index","data":[{"value":"27","value_classification":"Fear","timestamp":"1704067200"}]}`))
	})
	mux.HandleFunc("/global", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"total_market_cap":{"usd":1.7e12,"eur":1.5e12},"market_cap_percentage":{"btc":52.4,"eth":16.9}}}`))
	})
	mux.HandleFunc("/liquidations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"long_usd":3000000,"short_usd":1000000}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return httptest.NewServer(mux)
}

func newTestClient(srv *httptest.Server, liquidations string) *Client {
	return NewClient(ClientOptions{
		BaseURL:         srv.URL,
		SentimentURL:    srv.URL + "/fng/",
		GlobalURL:       srv.URL + "/global",
		LiquidationURL:  liquidations,
		RequestTimeout:  time.Second,
		RequestsPerSec:  100,
		MaxRetries:      1,
		MaxRetryTimeout: time.Second,
	})
}

func TestGetBars(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	bars, err := newTestClient(srv, "").GetBars(context.Background(), "BTCUSDT", models.TF15m, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.True(t, bars[0].OpenTime.Before(bars[1].OpenTime))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].OpenTime)
	assert.Equal(t, models.Bar{
		OpenTime: time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC),
		Open:     101, High: 103, Low: 100, Close: 102, Volume: 20.5,
	}, bars[1])
}

func TestGetOpenInterest(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	oi, err := newTestClient(srv, "").GetOpenInterest(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 110.0, oi.Current)
	assert.Equal(t, []float64{100, 105}, oi.History)
	// fewer than 24 samples compares against the oldest
	assert.InDelta(t, 10.0, oi.Change24hPct, 1e-9)
}

func TestChangePct(t *testing.T) {
	history := make([]float64, 30)
	for i := range history {
		history[i] = float64(100 + i)
	}
	// 24 samples back from the end is index 6
	assert.InDelta(t, (150.0-106.0)/106.0*100, changePct(150, history), 1e-9)
	assert.Equal(t, 0.0, changePct(150, nil))
	assert.Equal(t, 0.0, changePct(150, []float64{0}))
}

func TestGetFundingHistory(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	rates, err := newTestClient(srv, "").GetFundingHistory(context.Background(), "BTCUSDT", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0001, 0.0002, 0.0003}, rates)
}

func TestContextSections(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := newTestClient(srv, srv.URL+"/liquidations")

	sent, err := c.GetSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.Sentiment{Value: 27, Classification: "Fear"}, sent)

	global, err := c.GetGlobalMarket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.7e12, global.TotalMarketCapUSD)
	assert.Equal(t, 52.4, global.BTCDominance)

	liq, err := c.GetLiquidations(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 4e6, liq.Total())
}

func TestUnavailableSections(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	t.Run("liquidations not configured", func(t *testing.T) {
		_, err := newTestClient(srv, "").GetLiquidations(context.Background(), "BTCUSDT")
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
	})

	t.Run("upstream error", func(t *testing.T) {
		c := newTestClient(srv, srv.URL+"/broken")
		_, err := c.GetLiquidations(context.Background(), "BTCUSDT")
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
	})

	t.Run("malformed kline", func(t *testing.T) {
		_, err := parseKline(nil)
		assert.Error(t, err)
	})
}

package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpclient "github.com/Alias1177/SignalDesk/internal/platform/http"
	"github.com/Alias1177/SignalDesk/models"
)

const (
	defaultBaseURL      = "https://fapi.binance.com"
	defaultSentimentURL = "https://api.alternative.me/fng/?limit=1"
	defaultGlobalURL    = "https://api.coingecko.com/api/v3/global"

	maxKlines       = 1500
	oiHistoryPeriod = "1h"
	oiHistoryLimit  = 30
	oiChangeSamples = 24
)

// Client reads futures market data from Binance plus the sentiment and global
// aggregates used as context
type Client struct {
	baseURL        string
	dataURL        string
	sentimentURL   string
	globalURL      string
	liquidationURL string
	httpClient     *httpclient.Client
	logger         zerolog.Logger
}

// ClientOptions holds options for creating a new market data client
type ClientOptions struct {
	BaseURL         string
	DataURL         string
	SentimentURL    string
	GlobalURL       string
	LiquidationURL  string // optional, liquidations are unavailable when empty
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new market data client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.DataURL == "" {
		options.DataURL = options.BaseURL
	}
	if options.SentimentURL == "" {
		options.SentimentURL = defaultSentimentURL
	}
	if options.GlobalURL == "" {
		options.GlobalURL = defaultGlobalURL
	}

	return &Client{
		baseURL:        options.BaseURL,
		dataURL:        options.DataURL,
		sentimentURL:   options.SentimentURL,
		globalURL:      options.GlobalURL,
		liquidationURL: options.LiquidationURL,
		httpClient: httpclient.NewClient(httpclient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "binance_client").Logger(),
	}
}

var _ models.MarketDataProvider = (*Client)(nil)

func unavailable(section string, err error) error {
	return fmt.Errorf("%s: %w: %w", section, models.ErrDataUnavailable, err)
}

// GetBars fetches the latest limit klines, oldest first
func (c *Client) GetBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	if limit <= 0 || limit > maxKlines {
		limit = maxKlines
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(tf))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/fapi/v1/klines?" + q.Encode()

	c.logger.Debug().Str("url", endpoint).Msg("Fetching klines")

	var raw [][]json.RawMessage
	if err := c.httpClient.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, unavailable("klines "+string(tf), err)
	}
	if len(raw) == 0 {
		return nil, unavailable("klines "+string(tf), fmt.Errorf("empty data returned"))
	}

	bars := make([]models.Bar, 0, len(raw))
	for i, row := range raw {
		bar, err := parseKline(row)
		if err != nil {
			return nil, unavailable("klines "+string(tf), fmt.Errorf("row %d: %w", i, err))
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].OpenTime.Before(bars[j].OpenTime)
	})

	c.logger.Debug().Str("timeframe", string(tf)).Int("count", len(bars)).Msg("Fetched klines")
	return bars, nil
}

// parseKline reads [openTime, open, high, low, close, volume, ...]
func parseKline(row []json.RawMessage) (models.Bar, error) {
	if len(row) < 6 {
		return models.Bar{}, fmt.Errorf("short kline of %d fields", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return models.Bar{}, fmt.Errorf("open time: %w", err)
	}

	var fields [5]float64
	for i := range fields {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return models.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		fields[i] = v
	}

	return models.Bar{
		OpenTime: time.UnixMilli(openTime).UTC(),
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, nil
}

type openInterestResponse struct {
	OpenInterest string `json:"openInterest"`
}

type openInterestHistRow struct {
	SumOpenInterest string `json:"sumOpenInterest"`
	Timestamp       int64  `json:"timestamp"`
}

// GetOpenInterest returns the current open interest and its hourly history
func (c *Client) GetOpenInterest(ctx context.Context, symbol string) (*models.OpenInterest, error) {
	var cur openInterestResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/fapi/v1/openInterest?symbol="+url.QueryEscape(symbol), &cur); err != nil {
		return nil, unavailable("open interest", err)
	}
	current, err := strconv.ParseFloat(cur.OpenInterest, 64)
	if err != nil {
		return nil, unavailable("open interest", err)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", oiHistoryPeriod)
	q.Set("limit", strconv.Itoa(oiHistoryLimit))

	var rows []openInterestHistRow
	if err := c.httpClient.GetJSON(ctx, c.dataURL+"/futures/data/openInterestHist?"+q.Encode(), &rows); err != nil {
		return nil, unavailable("open interest history", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })

	history := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, err := strconv.ParseFloat(r.SumOpenInterest, 64)
		if err != nil {
			return nil, unavailable("open interest history", err)
		}
		history = append(history, v)
	}

	return &models.OpenInterest{
		Current:      current,
		History:      history,
		Change24hPct: changePct(current, history),
	}, nil
}

// changePct compares current against the sample oiChangeSamples back, or the oldest one
func changePct(current float64, history []float64) float64 {
	if len(history) == 0 {
		return 0
	}
	ref := history[max(0, len(history)-oiChangeSamples)]
	if ref == 0 {
		return 0
	}
	return (current - ref) / ref * 100
}

type fundingRow struct {
	FundingRate string `json:"fundingRate"`
	FundingTime int64  `json:"fundingTime"`
}

// GetFundingHistory returns the last limit funding rates, oldest first
func (c *Client) GetFundingHistory(ctx context.Context, symbol string, limit int) ([]float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))

	var rows []fundingRow
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/fapi/v1/fundingRate?"+q.Encode(), &rows); err != nil {
		return nil, unavailable("funding", err)
	}
	if len(rows) == 0 {
		return nil, unavailable("funding", fmt.Errorf("empty data returned"))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FundingTime < rows[j].FundingTime })

	rates := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, err := strconv.ParseFloat(r.FundingRate, 64)
		if err != nil {
			return nil, unavailable("funding", err)
		}
		rates = append(rates, v)
	}
	return rates, nil
}

// GetLiquidations reads the configured liquidation aggregate. The endpoint
// returns {"long_usd": n, "short_usd": n} for the symbol query parameter.
func (c *Client) GetLiquidations(ctx context.Context, symbol string) (*models.Liquidations, error) {
	if c.liquidationURL == "" {
		return nil, unavailable("liquidations", fmt.Errorf("no liquidation source configured"))
	}

	u, err := url.Parse(c.liquidationURL)
	if err != nil {
		return nil, unavailable("liquidations", err)
	}
	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	var out models.Liquidations
	if err := c.httpClient.GetJSON(ctx, u.String(), &out); err != nil {
		return nil, unavailable("liquidations", err)
	}
	return &out, nil
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// GetSentiment reads the latest fear and greed value
func (c *Client) GetSentiment(ctx context.Context) (*models.Sentiment, error) {
	var resp fngResponse
	if err := c.httpClient.GetJSON(ctx, c.sentimentURL, &resp); err != nil {
		return nil, unavailable("sentiment", err)
	}
	if len(resp.Data) == 0 {
		return nil, unavailable("sentiment", fmt.Errorf("empty data returned"))
	}

	v, err := strconv.ParseFloat(resp.Data[0].Value, 64)
	if err != nil {
		return nil, unavailable("sentiment", err)
	}
	return &models.Sentiment{Value: v, Classification: resp.Data[0].Classification}, nil
}

type globalResponse struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

// GetGlobalMarket reads total capitalization and BTC dominance
func (c *Client) GetGlobalMarket(ctx context.Context) (*models.GlobalMarket, error) {
	var resp globalResponse
	if err := c.httpClient.GetJSON(ctx, c.globalURL, &resp); err != nil {
		return nil, unavailable("global", err)
	}

	total, ok := resp.Data.TotalMarketCap["usd"]
	if !ok {
		return nil, unavailable("global", fmt.Errorf("missing usd market cap"))
	}
	return &models.GlobalMarket{
		TotalMarketCapUSD: total,
		BTCDominance:      resp.Data.MarketCapPercentage["btc"],
	}, nil
}

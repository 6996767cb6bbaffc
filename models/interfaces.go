package models

import "context"

// MarketDataProvider is the upstream source of bars and derivatives context
type MarketDataProvider interface {
	GetBars(ctx context.Context, symbol string, tf Timeframe, limit int) ([]Bar, error)
	GetOpenInterest(ctx context.Context, symbol string) (*OpenInterest, error)
	GetFundingHistory(ctx context.Context, symbol string, limit int) ([]float64, error)
	GetLiquidations(ctx context.Context, symbol string) (*Liquidations, error)
	GetSentiment(ctx context.Context) (*Sentiment, error)
	GetGlobalMarket(ctx context.Context) (*GlobalMarket, error)
}

// KVStore is a small key-value store. TTL handling is left to the caller.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Notifier delivers an emitted play through an external channel
type Notifier interface {
	Send(ctx context.Context, play Play, snap *Snapshot) error
}

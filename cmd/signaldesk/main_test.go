package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalDesk/internal/config"
	"github.com/Alias1177/SignalDesk/internal/dedup"
	"github.com/Alias1177/SignalDesk/internal/notify"
)

func TestOpenMemoryStore(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), &config.Config{StoreBackend: config.StoreMemory})
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &dedup.MemoryStore{}, store)
}

func TestDryRunNotifier(t *testing.T) {
	n, err := newNotifier(&config.Config{DryRun: true})
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)
}

func TestEngineParams(t *testing.T) {
	cfg := &config.Config{Symbol: "ETHUSDT", Tuning: config.DefaultTuning()}
	p := engineParams(cfg)
	assert.Equal(t, "ETHUSDT", p.Symbol)
	assert.Equal(t, cfg.Tuning.Analyze, p.Analyze)
	assert.Equal(t, cfg.Tuning.Gate, p.Gate)
}

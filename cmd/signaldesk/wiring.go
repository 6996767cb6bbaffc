package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/internal/config"
	"github.com/Alias1177/SignalDesk/internal/database"
	"github.com/Alias1177/SignalDesk/internal/dedup"
	"github.com/Alias1177/SignalDesk/internal/notify"
	"github.com/Alias1177/SignalDesk/models"
)

// openStore connects the configured de-dup backend. The returned func closes it.
func openStore(ctx context.Context, cfg *config.Config) (models.KVStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		store, err := dedup.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.StorePostgres:
		db, err := database.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}

	log.Warn().Msg("Using in-memory de-dup state, mute windows reset every run")
	return dedup.NewMemoryStore(), func() {}, nil
}

func newNotifier(cfg *config.Config) (models.Notifier, error) {
	if cfg.DryRun {
		return notify.NewLogNotifier(), nil
	}
	return notify.NewTelegramNotifier(notify.TelegramOptions{
		Token:  cfg.TelegramBotToken,
		ChatID: cfg.TelegramChatID,
	})
}

package dedup

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, "state")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"per_key":{}}`)
	require.NoError(t, s.Set(ctx, "state", value))
	value[0] = 'X'

	got, ok, err := s.Get(ctx, "state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"per_key":{}}`, string(got))
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := &RedisStore{client: db, prefix: "signaldesk:"}
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet("signaldesk:state").SetVal(`{"per_key":{}}`)
		v, ok, err := s.Get(ctx, "state")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"per_key":{}}`, string(v))
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("signaldesk:state").RedisNil()
		v, ok, err := s.Get(ctx, "state")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("get error", func(t *testing.T) {
		mock.ExpectGet("signaldesk:state").SetErr(redis.TxFailedErr)
		_, _, err := s.Get(ctx, "state")
		assert.ErrorIs(t, err, redis.TxFailedErr)
	})

	t.Run("set", func(t *testing.T) {
		value := []byte(`{"global_last_emit":"2024-03-06T12:00:00Z"}`)
		mock.ExpectSet("signaldesk:state", value, 0).SetVal("OK")
		require.NoError(t, s.Set(ctx, "state", value))
	})

	t.Run("set error", func(t *testing.T) {
		value := []byte(`{}`)
		mock.ExpectSet("signaldesk:state", value, 0).SetErr(redis.TxFailedErr)
		assert.Error(t, s.Set(ctx, "state", value))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/domain"
)

func TestSnapshotCacheHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSnapshotCache(client, time.Minute)

	bars := []domain.Bar{{Date: d(20), Close: 100, Volume: 10}}
	payload, err := json.Marshal(bars)
	require.NoError(t, err)

	mock.ExpectGet("bars:7:2025-11-03:2025-11-07").SetVal(string(payload))

	got, ok := cache.Get(context.Background(), 7, d(3), d(7))
	require.True(t, ok)
	assert.Equal(t, bars, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSnapshotCache(client, time.Minute)

	mock.ExpectGet("bars:7:2025-11-03:2025-11-07").RedisNil()

	_, ok := cache.Get(context.Background(), 7, d(3), d(7))
	assert.False(t, ok)
}

func TestSnapshotCacheCorruptPayloadIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSnapshotCache(client, time.Minute)

	mock.ExpectGet("bars:7:2025-11-03:2025-11-07").SetVal("{not json")

	_, ok := cache.Get(context.Background(), 7, d(3), d(7))
	assert.False(t, ok)
}

func TestSnapshotCacheSet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSnapshotCache(client, time.Minute)

	bars := []domain.Bar{{Date: d(20), Close: 100}}
	payload, err := json.Marshal(bars)
	require.NoError(t, err)

	mock.ExpectSet("bars:7:2025-11-03:2025-11-07", payload, time.Minute).SetVal("OK")

	cache.Set(context.Background(), 7, d(3), d(7), bars)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotCacheClear(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewSnapshotCache(client, time.Minute)

	mock.ExpectKeys("bars:7:*").SetVal([]string{"bars:7:a", "bars:7:b"})
	mock.ExpectDel("bars:7:a", "bars:7:b").SetVal(2)

	cache.Clear(context.Background(), 7)
	assert.NoError(t, mock.ExpectationsWereMet())
}

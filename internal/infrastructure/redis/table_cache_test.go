package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
)

func TestTableCache(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewTableCache(client)
	ctx := context.Background()
	require.NoError(t, cache.Invalidate(ctx))

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		_, err := cache.GetTables(ctx)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("保存した一覧を取得できる", func(t *testing.T) {
		resID := "res-1"
		now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
		tables := []*table.Table{
			{ID: "t-1", Name: "Bar #1", Capacity: 1, CreatedAt: now, UpdatedAt: now},
			{ID: "t-2", Name: "#1", Capacity: 6, Occupied: true, ReservationID: &resID, CreatedAt: now, UpdatedAt: now},
		}
		require.NoError(t, cache.SetTables(ctx, tables, 30*time.Second))

		got, err := cache.GetTables(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Bar #1", got[0].Name)
		assert.Nil(t, got[0].ReservationID)
		assert.True(t, got[1].Occupied)
		require.NotNil(t, got[1].ReservationID)
		assert.Equal(t, resID, *got[1].ReservationID)
		assert.True(t, now.Equal(got[1].CreatedAt))
	})

	t.Run("無効化後はキャッシュミスになる", func(t *testing.T) {
		require.NoError(t, cache.SetTables(ctx, []*table.Table{{ID: "t-1", Name: "#1", Capacity: 2}}, 30*time.Second))
		require.NoError(t, cache.Invalidate(ctx))

		_, err := cache.GetTables(ctx)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("TTL経過後はキャッシュミスになる", func(t *testing.T) {
		require.NoError(t, cache.SetTables(ctx, []*table.Table{{ID: "t-1", Name: "#1", Capacity: 2}}, 100*time.Millisecond))
		time.Sleep(200 * time.Millisecond)

		_, err := cache.GetTables(ctx)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

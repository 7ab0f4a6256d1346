package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

const tableListKey = "tables:list"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type cachedTable struct {
	ID            string    `json:"table_id"`
	Name          string    `json:"table_name"`
	Capacity      int       `json:"capacity"`
	Occupied      bool      `json:"is_seated"`
	ReservationID *string   `json:"reservation_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableCache はテーブル一覧のキャッシュを管理する
type TableCache struct {
	client *redis.Client
}

// NewTableCache は新しいTableCacheインスタンスを作成する
func NewTableCache(client *redis.Client) *TableCache {
	return &TableCache{client: client}
}

// GetTables はテーブル一覧をキャッシュから取得する
func (c *TableCache) GetTables(ctx context.Context) ([]*table.Table, error) {
	raw, err := c.client.Get(ctx, tableListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var entries []cachedTable
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	tables := make([]*table.Table, len(entries))
	for i, e := range entries {
		tables[i] = &table.Table{
			ID: e.ID, Name: e.Name, Capacity: e.Capacity,
			Occupied: e.Occupied, ReservationID: e.ReservationID,
			CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
		}
	}
	return tables, nil
}

// SetTables はテーブル一覧をキャッシュに保存する
func (c *TableCache) SetTables(ctx context.Context, tables []*table.Table, ttl time.Duration) error {
	entries := make([]cachedTable, len(tables))
	for i, t := range tables {
		entries[i] = cachedTable{
			ID: t.ID, Name: t.Name, Capacity: t.Capacity,
			Occupied: t.Occupied, ReservationID: t.ReservationID,
			CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
		}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, tableListKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はテーブル一覧のキャッシュを無効化する
func (c *TableCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, tableListKey).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// InventoryCacheInterface は在庫数キャッシュのインターフェース
type InventoryCacheInterface interface {
	GetAvailableCount(ctx context.Context, eventID string) (int, error)
	SetAvailableCount(ctx context.Context, eventID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// InventoryCache はイベントごとの購入可能チケット数のキャッシュを管理する
type InventoryCache struct {
	client *redis.Client
}

// NewInventoryCache は新しいInventoryCacheインスタンスを作成する
func NewInventoryCache(client *redis.Client) *InventoryCache {
	return &InventoryCache{client: client}
}

// GetAvailableCount はイベントの購入可能チケット数をキャッシュから取得する
func (c *InventoryCache) GetAvailableCount(ctx context.Context, eventID string) (int, error) {
	key := c.availableCountKey(eventID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount はイベントの購入可能チケット数をキャッシュに保存する
func (c *InventoryCache) SetAvailableCount(ctx context.Context, eventID string, count int, ttl time.Duration) error {
	key := c.availableCountKey(eventID)
	if err := c.client.Set(ctx, key, count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
func (c *InventoryCache) Invalidate(ctx context.Context, eventID string) error {
	key := c.availableCountKey(eventID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *InventoryCache) availableCountKey(eventID string) string {
	return fmt.Sprintf("tickets:available:%s", eventID)
}

var _ InventoryCacheInterface = (*InventoryCache)(nil)

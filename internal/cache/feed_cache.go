package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"wellnesshub/internal/model"
)

const publishedFeedKey = "wellness:feed:published"

// FeedCache keeps the public published-session listing in Redis.
type FeedCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewFeedCache(client *redisv9.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &FeedCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *FeedCache) GetPublished(ctx context.Context) ([]model.PublishedSession, bool, error) {
	raw, err := c.client.Get(ctx, publishedFeedKey).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get feed failed: %w", err)
	}

	var sessions []model.PublishedSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached feed failed: %w", err)
	}
	return sessions, true, nil
}

func (c *FeedCache) SetPublished(ctx context.Context, sessions []model.PublishedSession) error {
	if sessions == nil {
		sessions = []model.PublishedSession{}
	}
	payload, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("marshal feed cache failed: %w", err)
	}
	if err := c.client.Set(ctx, publishedFeedKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set feed failed: %w", err)
	}
	return nil
}

func (c *FeedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, publishedFeedKey).Err(); err != nil {
		return fmt.Errorf("redis delete feed failed: %w", err)
	}
	return nil
}

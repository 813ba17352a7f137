package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/venuelab/backend/pkg/xredis"
)

// MockRedisClient is an in-memory xredis.Client. TTLs are ignored.
type MockRedisClient struct {
	mutex  sync.Mutex
	values map[string][]byte
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{values: make(map[string][]byte)}
}

func (c *MockRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, ok := c.values[key]
	return ok, nil
}

func (c *MockRedisClient) Del(ctx context.Context, keys ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *MockRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.values[key] = b
	return nil
}

func (c *MockRedisClient) GetObj(ctx context.Context, key string, v any) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, ok := c.values[key]
	if !ok {
		return xredis.ErrNotFound
	}

	return json.Unmarshal(b, v)
}

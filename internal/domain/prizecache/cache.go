package prizecache

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/venuelab/backend/pkg/xredis"
)

const prizeTTL = 10 * time.Minute

// Cache is a read-through cache of prize catalog rows. It only serves
// display lookups (labels, colors); stock and emitted counters are always
// read from the database.
type Cache interface {
	Get(ctx context.Context, prizeID string) (*entity.Prize, bool)
	Set(ctx context.Context, prize *entity.Prize)
	Invalidate(ctx context.Context, prizeID string)
}

type cache struct {
	local       *xsync.MapOf[string, entity.Prize]
	redisClient xredis.Client
}

// New creates a prize cache. The redis client is optional; without it the
// cache is process-local only.
func New(redisClient xredis.Client) *cache {
	return &cache{
		local:       xsync.NewMapOf[entity.Prize](),
		redisClient: redisClient,
	}
}

func (c *cache) Get(ctx context.Context, prizeID string) (*entity.Prize, bool) {
	if prize, ok := c.local.Load(prizeID); ok {
		return &prize, true
	}

	if c.redisClient == nil {
		return nil, false
	}

	var prize entity.Prize
	err := c.redisClient.GetObj(ctx, common.RedisKeyPrize(prizeID), &prize)
	if err != nil {
		if !errors.Is(err, xredis.ErrNotFound) {
			xcontext.Logger(ctx).Warnf("Cannot load prize from redis: %v", err)
		}

		return nil, false
	}

	c.local.Store(prizeID, prize)
	return &prize, true
}

func (c *cache) Set(ctx context.Context, prize *entity.Prize) {
	if prize == nil {
		return
	}

	c.local.Store(prize.ID, *prize)
	if c.redisClient != nil {
		err := c.redisClient.SetObj(ctx, common.RedisKeyPrize(prize.ID), prize, prizeTTL)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot store prize to redis: %v", err)
		}
	}
}

func (c *cache) Invalidate(ctx context.Context, prizeID string) {
	c.local.Delete(prizeID)
	if c.redisClient != nil {
		if err := c.redisClient.Del(ctx, common.RedisKeyPrize(prizeID)); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot invalidate prize in redis: %v", err)
		}
	}
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/traininglog/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const generationKeyPrefix = "traininglog::load-gen::"

// LoadCache keeps serialized load results in a local freecache.
// Keys carry the owner's generation, kept in redis, so bumping the generation
// invalidates the owner's results on every service instance at once.
type LoadCache struct {
	local *freecache.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

func NewLoadCache(rdb *redis.Client, sizeMB int, ttl time.Duration) *LoadCache {
	megabyte := 1024 * 1024
	return &LoadCache{
		local: freecache.NewCache(sizeMB * megabyte),
		rdb:   rdb,
		ttl:   ttl,
	}
}

// NoGeneration is returned by Get when the owner's generation could not be read.
// Set ignores values stored under it.
const NoGeneration int64 = -1

// Get looks up a result under the owner's current generation. The observed
// generation is returned even on a miss; a result computed after the miss is
// stored with Set under that same generation, so an Invalidate in between
// makes it unreachable.
func (c *LoadCache) Get(ctx context.Context, ownerID, queryKey string) ([]byte, int64, bool) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.load.get")
	defer span.End()

	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		log.Errorf("load cache get, owner [%s]: %s", ownerID, err)
		return nil, NoGeneration, false
	}
	span.SetAttributes(attribute.Int64("generation", gen))

	value, err := c.local.Get([]byte(entryKey(ownerID, gen, queryKey)))
	if err != nil {
		span.SetAttributes(attribute.Bool("hit", false))
		return nil, gen, false
	}

	span.SetAttributes(attribute.Bool("hit", true))
	return value, gen, true
}

// Set stores a result under gen, the generation returned by the Get that missed.
func (c *LoadCache) Set(ctx context.Context, ownerID, queryKey string, gen int64, value []byte) {
	_, span := tracing.GlobalTracer.Start(ctx, "cache.load.set")
	defer span.End()

	if gen < 0 {
		return
	}
	span.SetAttributes(attribute.Int64("generation", gen))

	if err := c.local.Set([]byte(entryKey(ownerID, gen, queryKey)), value, int(c.ttl.Seconds())); err != nil {
		log.Errorf("load cache set, owner [%s]: %s", ownerID, err)
	}
}

// Invalidate drops all cached results of the owner.
func (c *LoadCache) Invalidate(ctx context.Context, ownerID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.load.invalidate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.rdb.Incr(ctx, generationKeyPrefix+ownerID).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

func (c *LoadCache) generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKeyPrefix+ownerID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

func entryKey(ownerID string, gen int64, queryKey string) string {
	return fmt.Sprintf("%s::%d::%s", ownerID, gen, queryKey)
}

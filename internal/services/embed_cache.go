package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
)

const embedCacheTTL = 7 * 24 * time.Hour

// cachedEmbedder is a read-through redis cache in front of an Embedder.
// Cache problems never fail a request; a miss or redis error just falls
// through to the upstream embedder.
type cachedEmbedder struct {
	log      *logger.Logger
	rdb      *redis.Client
	upstream Embedder
	prefix   string
}

func NewCachedEmbedder(baseLog *logger.Logger, rdb *redis.Client, upstream Embedder) Embedder {
	return &cachedEmbedder{
		log:      baseLog.With("service", "CachedEmbedder"),
		rdb:      rdb,
		upstream: upstream,
		prefix:   "embed:v1:",
	}
}

func (c *cachedEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, len(inputs))
	missing := make([]int, 0, len(inputs))
	for i, input := range inputs {
		cached, ok := c.get(ctx, input)
		if ok {
			out[i] = cached
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	toEmbed := make([]string, len(missing))
	for i, idx := range missing {
		toEmbed[i] = inputs[idx]
	}
	vectors, err := c.upstream.Embed(ctx, toEmbed)
	if err != nil {
		return nil, err
	}
	for i, idx := range missing {
		out[idx] = vectors[i]
		c.put(ctx, inputs[idx], vectors[i])
	}
	return out, nil
}

func (c *cachedEmbedder) key(input string) string {
	sum := sha256.Sum256([]byte(input))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *cachedEmbedder) get(ctx context.Context, input string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, c.key(input)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("embed cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.log.Warn("embed cache entry corrupt", "error", err)
		return nil, false
	}
	return vec, true
}

func (c *cachedEmbedder) put(ctx context.Context, input string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(input), raw, embedCacheTTL).Err(); err != nil {
		c.log.Warn("embed cache write failed", "error", err)
	}
}

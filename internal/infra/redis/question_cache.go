package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/quiz"
)

// QuestionCache caches per-category question pools in Redis (JSON blob per
// category) and falls back to the wrapped provider on cache miss. Each
// session is served a fresh shuffle of the pool.
type QuestionCache struct {
	client *redis.Client
	source quiz.QuestionProvider
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, source quiz.QuestionProvider, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FetchQuestions(ctx context.Context, category domain.QuizCategory, count int) ([]domain.Question, error) {
	key := c.key(category.Key)

	if pool, ok := c.lookup(ctx, key); ok {
		return c.serve(pool, count), nil
	}

	result, err, _ := c.sf.Do(category.Key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if pool, ok := c.lookup(ctx, key); ok {
			return pool, nil
		}

		pool, err := c.source.FetchQuestions(ctx, category, count*2)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(pool); err == nil {
			// best-effort cache write
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return c.serve(result.([]domain.Question), count), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(raw, &pool); err != nil || len(pool) == 0 {
		return nil, false
	}
	return pool, true
}

func (c *QuestionCache) serve(pool []domain.Question, count int) []domain.Question {
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	c.rndMu.Lock()
	c.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	c.rndMu.Unlock()
	if len(out) > count {
		out = out[:count]
	}
	return out
}

func (c *QuestionCache) key(categoryKey string) string {
	return "quiz:pool:" + categoryKey
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"studyhub-bot/internal/domain"
	"studyhub-bot/internal/quiz"
)

// QuestionCache caches a per-category question pool with TTL to avoid
// hammering the upstream sources on every session. Each session is served a
// fresh shuffle of the pool, so back-to-back quizzes do not see identical
// question orderings.
type QuestionCache struct {
	source quiz.QuestionProvider
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(source quiz.QuestionProvider, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

func (c *QuestionCache) FetchQuestions(ctx context.Context, category domain.QuizCategory, count int) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[category.Key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return c.serve(entry.questions, count), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(category.Key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[category.Key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		// Over-fetch so consecutive sessions draw different subsets.
		pool, err := c.source.FetchQuestions(ctx, category, count*2)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[category.Key] = cachedPool{
			questions: pool,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return c.serve(result.([]domain.Question), count), nil
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

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

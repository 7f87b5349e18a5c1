package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"knowme/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyCode = "quiz:code:"
	cacheKeySlug = "quiz:slug:"

	cacheMaxTTL = time.Hour
)

// QuizCache is a read-through cache for taker-facing quiz lookups. It is
// strictly best-effort: Redis being down or cold only costs a database
// round trip. A nil *QuizCache is valid and does nothing, so the service
// layer never branches on whether caching is configured.
type QuizCache struct {
	client *redis.Client
	now    func() time.Time
}

func NewQuizCache(client *redis.Client) *QuizCache {
	if client == nil {
		return nil
	}
	return &QuizCache{client: client, now: time.Now}
}

func (c *QuizCache) Get(prefix, key string) *models.Quiz {
	if c == nil {
		return nil
	}

	data, err := c.client.Get(context.Background(), prefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error reading %s%s: %v", prefix, key, err)
		}
		return nil
	}

	var quiz models.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		log.Printf("Failed to unmarshal cached quiz %s%s: %v", prefix, key, err)
		return nil
	}
	return &quiz
}

// Put stores the quiz under one public key. The TTL never outlives the
// quiz's own retention window, so the cache cannot resurrect an expired
// quiz.
func (c *QuizCache) Put(prefix, key string, quiz *models.Quiz) {
	if c == nil || quiz == nil {
		return
	}

	ttl := cacheMaxTTL
	if remaining := time.Until(quiz.ExpiresAt()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		log.Printf("Failed to marshal quiz %d for cache: %v", quiz.ID, err)
		return
	}

	if err := c.client.Set(context.Background(), prefix+key, data, ttl).Err(); err != nil {
		log.Printf("Redis error storing %s%s: %v", prefix, key, err)
	}
}

// Invalidate drops both public keys for a quiz, e.g. after a question is
// added or the sweeper removes it.
func (c *QuizCache) Invalidate(quiz *models.Quiz) {
	if c == nil || quiz == nil {
		return
	}

	keys := []string{
		cacheKeyCode + quiz.AccessCode,
		cacheKeySlug + strings.ToLower(quiz.URLSlug),
	}
	if err := c.client.Del(context.Background(), keys...).Err(); err != nil {
		log.Printf("Redis error invalidating quiz %d: %v", quiz.ID, err)
	}
}

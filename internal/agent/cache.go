package agent

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

const redisKeyPrefix = "ledgerflow:intent:"

type cacheEntry struct {
	classification models.Classification
	expiresAt      time.Time
}

// ClassCache caches intent classifications by normalized sentence. The local
// tier is a TTL map; an optional redis tier shares classifications across
// processes. Redis failures are silent, the local tier always answers.
type ClassCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	rdb     *redis.Client
	stop    chan struct{}
}

// NewClassCache builds a cache with the given entry TTL. rdb may be nil for
// a purely local cache.
func NewClassCache(ttl time.Duration, rdb *redis.Client) *ClassCache {
	c := &ClassCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		rdb:     rdb,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func normalizeSentence(sentence string) string {
	return strings.Join(strings.Fields(strings.ToLower(sentence)), " ")
}

// Get returns a cached classification for sentence, if one is live.
func (c *ClassCache) Get(ctx context.Context, sentence string) (models.Classification, bool) {
	key := normalizeSentence(sentence)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.classification, true
	}

	if c.rdb == nil {
		return models.Classification{}, false
	}

	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return models.Classification{}, false
	}
	var cls models.Classification
	if err := json.Unmarshal([]byte(raw), &cls); err != nil {
		return models.Classification{}, false
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{classification: cls, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return cls, true
}

// Put stores a classification in both tiers.
func (c *ClassCache) Put(ctx context.Context, sentence string, cls models.Classification) {
	key := normalizeSentence(sentence)

	c.mu.Lock()
	c.entries[key] = cacheEntry{classification: cls, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	payload, err := json.Marshal(cls)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		log.Printf("agent: redis cache write failed: %v", err)
	}
}

// Len reports the number of live local entries.
func (c *ClassCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Close stops the background cleanup goroutine.
func (c *ClassCache) Close() {
	close(c.stop)
}

func (c *ClassCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

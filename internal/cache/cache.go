package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/savcinema/voicereview-service/internal/storage"
	"github.com/savcinema/voicereview-service/internal/types"
)

// CacheService fronts the active-movie pointer with Redis. The pointer is
// read on every public page load but swapped rarely, so a short TTL plus
// explicit invalidation on swap keeps reads off Postgres.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key and duration
const (
	ActiveMovieKey = "active_movie"

	ActiveMovieCacheDuration = 60 * time.Second
)

// cachedPointer distinguishes "no active movie" from a cache miss.
type cachedPointer struct {
	Movie *types.Movie `json:"movie"`
}

// GetActiveMovie returns the cached pointer or fetches from the database.
// Absence is a valid cached value, not an error.
func (c *CacheService) GetActiveMovie(ctx context.Context) (*types.Movie, error) {
	cached, err := c.redis.Get(ctx, ActiveMovieKey).Result()
	if err == nil {
		var pointer cachedPointer
		if err := json.Unmarshal([]byte(cached), &pointer); err == nil {
			return pointer.Movie, nil
		}
	}

	// Cache miss - fetch from database
	movie, err := c.storage.GetActiveMovie()
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(cachedPointer{Movie: movie})
	c.redis.Set(ctx, ActiveMovieKey, data, ActiveMovieCacheDuration)

	return movie, nil
}

// InvalidateActiveMovie clears the pointer cache after a swap
func (c *CacheService) InvalidateActiveMovie(ctx context.Context) {
	c.redis.Del(ctx, ActiveMovieKey)
}
